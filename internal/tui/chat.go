package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/memohai/memochat/internal/conversation"
	"github.com/memohai/memochat/internal/session"
)

const (
	emptyTitle = "Start a new conversation"
	emptyHint  = "Ask any question to get started"
	chatChrome = 8
)

type chatPage struct {
	session *session.Controller
	md      *markdown

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	messages []conversation.Message
	state    session.State
	status   string
}

func newChatPage(ctrl *session.Controller, md *markdown) chatPage {
	input := textinput.New()
	input.Placeholder = "Type your message..."
	input.Prompt = "> "
	input.CharLimit = 4000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	p := chatPage{
		session:  ctrl,
		md:       md,
		input:    input,
		viewport: viewport.New(80, 24-chatChrome),
		spinner:  sp,
	}
	p.sync()
	return p
}

func (p *chatPage) focus() tea.Cmd {
	if p.session.Busy() {
		p.input.Blur()
		return nil
	}
	return p.input.Focus()
}

func (p *chatPage) resize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = max(height-chatChrome, 3)
	p.input.Width = max(width-6, 10)
	p.refreshViewport()
}

// sync re-reads the controller after a change notification.
func (p *chatPage) sync() {
	p.messages = p.session.Messages()
	p.state = p.session.State()
	if p.state == session.StateSending {
		p.input.Blur()
	}
	p.refreshViewport()
}

func (p *chatPage) refreshViewport() {
	var b strings.Builder
	for i, msg := range p.messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(labelFor(msg.Role == conversation.RoleUser, msg.Label()))
		b.WriteString("\n")
		b.WriteString(p.md.render(msg))
	}
	p.viewport.SetContent(b.String())
	p.viewport.GotoBottom()
}

func (p *chatPage) update(m *Model, msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case sentMsg:
		p.status = ""
		if msg.err != nil && !errors.Is(msg.err, session.ErrEmptyInput) {
			p.status = msg.err.Error()
		}
		return p.focus()
	case loadedMsg:
		return p.focus()
	case spinner.TickMsg:
		if p.state != session.StateSending && p.state != session.StateLoading {
			return nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return p.submit(m)
		case "ctrl+r":
			if err := p.session.Reset(); err != nil {
				p.status = err.Error()
				return nil
			}
			p.status = ""
			p.sync()
			return nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			p.viewport, cmd = p.viewport.Update(msg)
			return cmd
		}
	}
	if p.session.Busy() {
		return nil
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

func (p *chatPage) submit(m *Model) tea.Cmd {
	text := p.input.Value()
	if strings.TrimSpace(text) == "" || p.session.Busy() {
		return nil
	}
	p.input.Reset()
	p.input.Blur()
	p.state = session.StateSending
	return tea.Batch(m.send(text), p.spinner.Tick)
}

func (p *chatPage) render(width int) string {
	header := titleStyle.Render("Memochat") + subtleStyle.Render("  "+p.session.UserID())

	var body string
	switch {
	case p.state == session.StateLoading || p.state == session.StateIdle:
		body = subtleStyle.Render(p.spinner.View() + " Loading conversation...")
	case len(p.messages) == 0:
		body = emptyStyle.Width(max(width, 1)).Render(
			lipgloss.JoinVertical(lipgloss.Center,
				titleStyle.Render(emptyTitle),
				subtleStyle.Render(emptyHint),
			))
	default:
		body = p.viewport.View()
	}

	parts := []string{header, "", body}
	if p.state == session.StateSending {
		parts = append(parts, subtleStyle.Render(p.spinner.View()+" Thinking..."))
	}
	if p.status != "" {
		parts = append(parts, errorStyle.Render(p.status))
	}
	parts = append(parts,
		inputStyle.Render(p.input.View()),
		helpStyle.Render("enter send • ctrl+r new chat • ctrl+h conversations • ctrl+c quit"),
	)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
