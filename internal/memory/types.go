package memory

import "github.com/memohai/memochat/internal/conversation"

// SaveRequest is the body of POST /api/memory. Each save creates a new record.
type SaveRequest struct {
	Data     []conversation.Message `json:"data"`
	UserID   string                 `json:"user_id"`
	Metadata map[string]any         `json:"metadata,omitempty"`
}

// SaveResult is the backend acknowledgement of a save.
type SaveResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
}

// SearchRequest is the body of POST /api/memory/search.
type SearchRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id,omitempty"`
}

// DeleteResponse is the backend acknowledgement of a delete.
type DeleteResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
