package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#7C6AF2")
	muted  = lipgloss.Color("241")
	danger = lipgloss.Color("203")

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(accent)
	subtleStyle    = lipgloss.NewStyle().Foreground(muted)
	errorStyle     = lipgloss.NewStyle().Foreground(danger)
	userLabel      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantLabel = lipgloss.NewStyle().Bold(true).Foreground(accent)
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent).PaddingLeft(1).
			Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(accent)
	itemStyle  = lipgloss.NewStyle().PaddingLeft(2)
	emptyStyle = lipgloss.NewStyle().Foreground(muted).Align(lipgloss.Center)
	inputStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(muted).Padding(0, 1)
	helpStyle  = lipgloss.NewStyle().Foreground(muted).MarginTop(1)
)

func labelFor(user bool, text string) string {
	if user {
		return userLabel.Render(text)
	}
	return assistantLabel.Render(text)
}
