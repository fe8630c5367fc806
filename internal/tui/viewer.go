package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/memohai/memochat/internal/conversation"
	"github.com/memohai/memochat/internal/storage"
	"github.com/memohai/memochat/internal/viewer"
)

type viewerPage struct {
	md       *markdown
	record   conversation.Record
	viewport viewport.Model
}

func newViewerPage(md *markdown) viewerPage {
	return viewerPage{md: md, viewport: viewport.New(80, 20)}
}

func (p *viewerPage) open(ctx context.Context, handoff storage.KV) error {
	record, err := viewer.Open(ctx, handoff)
	if err != nil {
		return err
	}
	p.record = record
	p.refresh()
	return nil
}

func (p *viewerPage) resize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = max(height-4, 3)
	p.refresh()
}

func (p *viewerPage) refresh() {
	p.viewport.SetContent(viewer.Render(p.record, p.md.render))
	p.viewport.GotoTop()
}

func (p *viewerPage) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return cmd
}

func (p *viewerPage) render() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		p.viewport.View(),
		helpStyle.Render("↑/↓ scroll • esc back to conversations • ctrl+n chat"),
	)
}
