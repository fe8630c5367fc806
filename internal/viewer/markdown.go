package viewer

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/memohai/memochat/internal/conversation"
)

// Markdown returns a renderer that formats assistant turns as terminal
// markdown wrapped at width. User turns are returned verbatim.
func Markdown(width int) (ContentRenderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return func(m conversation.Message) string {
		if m.Role == conversation.RoleUser {
			return m.Content
		}
		out, err := r.Render(m.Content)
		if err != nil {
			return m.Content
		}
		return strings.Trim(out, "\n")
	}, nil
}
