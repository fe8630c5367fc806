package viewer

import (
	"strings"
	"time"

	"github.com/memohai/memochat/internal/conversation"
)

// NoMessagesText is shown for records without a transcript.
const NoMessagesText = "No messages found in this conversation."

// DateLayout formats record timestamps for display.
const DateLayout = "2006-01-02 15:04:05"

// FormatDate renders t in the local zone, or "unknown date" when unset.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown date"
	}
	return t.Local().Format(DateLayout)
}

// ContentRenderer turns message content into display text (e.g. markdown to ANSI).
type ContentRenderer func(conversation.Message) string

// PlainContent returns the content unchanged.
func PlainContent(m conversation.Message) string {
	return m.Content
}

// Render formats the full transcript of record as read-only text.
func Render(record conversation.Record, render ContentRenderer) string {
	if render == nil {
		render = PlainContent
	}
	var b strings.Builder
	b.WriteString("Conversation\n")
	b.WriteString(FormatDate(record.CreatedAt))
	b.WriteString("\n\n")
	if len(record.Data) == 0 {
		b.WriteString(NoMessagesText)
		b.WriteString("\n")
		return b.String()
	}
	for i, msg := range record.Data {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(msg.Label())
		b.WriteString("\n")
		b.WriteString(strings.TrimRight(render(msg), "\n"))
		b.WriteString("\n")
	}
	return b.String()
}
