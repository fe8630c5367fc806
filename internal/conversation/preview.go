package conversation

import (
	"fmt"
	"strings"
)

const (
	// PreviewMessages is how many leading messages a preview shows.
	PreviewMessages = 2
	// PreviewChars is the per-message content budget in a preview.
	PreviewChars = 40
	// EmptyPreview is shown for records without a usable transcript.
	EmptyPreview = "Empty conversation"

	previewEllipsis  = "..."
	previewSeparator = " | "
)

// Preview summarizes the first messages of a record on one line.
func Preview(r Record) string {
	if len(r.Data) == 0 {
		return EmptyPreview
	}
	head := r.Data[:min(PreviewMessages, len(r.Data))]
	parts := make([]string, 0, len(head))
	for _, msg := range head {
		parts = append(parts, fmt.Sprintf("%s: %s", msg.Role, Truncate(msg.Content, PreviewChars)))
	}
	return strings.Join(parts, previewSeparator)
}

// Truncate cuts s to limit characters and appends an ellipsis when it was longer.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + previewEllipsis
}
