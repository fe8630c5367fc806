package tui

import (
	"log/slog"

	"github.com/memohai/memochat/internal/conversation"
	"github.com/memohai/memochat/internal/viewer"
)

const minWrap = 20

// markdown rebuilds the glamour renderer when the wrap width changes.
type markdown struct {
	enabled bool
	width   int
	content viewer.ContentRenderer
	logger  *slog.Logger
}

func newMarkdown(log *slog.Logger, enabled bool) *markdown {
	return &markdown{enabled: enabled, logger: log}
}

func (m *markdown) setWidth(width int) {
	width = max(width, minWrap)
	if width == m.width {
		return
	}
	m.width = width
	m.content = nil
	if !m.enabled {
		return
	}
	content, err := viewer.Markdown(width)
	if err != nil {
		m.logger.Warn("markdown renderer unavailable", slog.Any("error", err))
		return
	}
	m.content = content
}

func (m *markdown) render(msg conversation.Message) string {
	if m.content == nil {
		return msg.Content
	}
	return m.content(msg)
}
