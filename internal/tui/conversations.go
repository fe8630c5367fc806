package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/memohai/memochat/internal/history"
	"github.com/memohai/memochat/internal/viewer"
)

const (
	loadingText = "Loading conversation history..."
	noHistory   = "No conversations found. Start chatting to create history."
	clearPrompt = "Press X again to delete all conversations, any other key to cancel."
)

type listPage struct {
	browser *history.Browser

	entries   []history.Entry
	cursor    int
	loading   bool
	status    string
	searching bool
	query     textinput.Model

	// confirmClear is set by the first X; a second X deletes everything.
	confirmClear bool
}

func newListPage(browser *history.Browser) listPage {
	q := textinput.New()
	q.Placeholder = "search conversations"
	q.Prompt = "/ "
	return listPage{browser: browser, query: q}
}

func (p *listPage) done(err error) {
	p.loading = false
	p.entries = p.browser.Entries()
	p.status = ""
	if err != nil {
		p.status = "Could not load conversations: " + err.Error()
	}
	p.clamp()
}

func (p *listPage) deleted(id string, err error) {
	if err != nil {
		p.status = "Delete failed: " + err.Error()
		return
	}
	p.entries = p.browser.Entries()
	p.status = "Deleted " + id
	p.clamp()
}

func (p *listPage) cleared(err error) {
	if err != nil {
		p.status = "Clear failed: " + err.Error()
		return
	}
	p.entries = p.browser.Entries()
	p.status = "History cleared"
	p.clamp()
}

func (p *listPage) clamp() {
	if p.cursor >= len(p.entries) {
		p.cursor = len(p.entries) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

func (p *listPage) selected() (history.Entry, bool) {
	if p.cursor < 0 || p.cursor >= len(p.entries) {
		return history.Entry{}, false
	}
	return p.entries[p.cursor], true
}

func (p *listPage) update(m *Model, msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if p.searching {
		switch key.String() {
		case "enter":
			p.searching = false
			p.query.Blur()
			return m.searchHistory(p.query.Value())
		case "esc":
			p.searching = false
			p.query.Blur()
			p.query.Reset()
			return nil
		}
		var cmd tea.Cmd
		p.query, cmd = p.query.Update(msg)
		return cmd
	}
	pressed := key.String()
	if pressed != "X" && p.confirmClear {
		p.confirmClear = false
		p.status = ""
	}
	switch pressed {
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.entries)-1 {
			p.cursor++
		}
	case "r":
		return m.refreshHistory()
	case "/":
		p.searching = true
		return p.query.Focus()
	case "enter":
		if entry, ok := p.selected(); ok {
			return m.viewConversation(entry.ID())
		}
	case "d":
		if entry, ok := p.selected(); ok {
			return m.deleteConversation(entry.ID())
		}
	case "X":
		if !p.confirmClear {
			p.confirmClear = true
			p.status = clearPrompt
			return nil
		}
		p.confirmClear = false
		return m.clearHistory()
	}
	return nil
}

func (p *listPage) render(width int) string {
	parts := []string{titleStyle.Render("Conversation History"), ""}
	switch {
	case p.loading:
		parts = append(parts, subtleStyle.Render(loadingText))
	case len(p.entries) == 0:
		parts = append(parts, emptyStyle.Width(max(width, 1)).Render(noHistory))
	default:
		for i, entry := range p.entries {
			parts = append(parts, renderEntry(entry, i == p.cursor))
		}
	}
	if p.searching {
		parts = append(parts, "", p.query.View())
	}
	if p.status != "" {
		parts = append(parts, "", errorStyle.Render(p.status))
	}
	parts = append(parts, helpStyle.Render("enter view • d delete • / search • r refresh • X X clear all • esc back"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderEntry(entry history.Entry, selected bool) string {
	lines := strings.Join([]string{
		viewer.FormatDate(entry.CreatedAt()),
		entry.Preview,
		subtleStyle.Render(messageCount(entry.MessageCount)),
	}, "\n")
	if selected {
		return selectedStyle.Render(lines)
	}
	return itemStyle.Render(lines)
}

func messageCount(n int) string {
	if n == 1 {
		return "1 message"
	}
	return fmt.Sprintf("%d messages", n)
}
