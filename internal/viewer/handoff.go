// Package viewer shows a single conversation handed over from the history
// browser through transient storage. It never queries the backend.
package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/memohai/memochat/internal/conversation"
	"github.com/memohai/memochat/internal/storage"
)

// HandoffKey is the transient storage key holding the selected record.
const HandoffKey = "viewMemory"

// ErrNoHandoff means nothing was selected for viewing; callers redirect back
// to the conversation list.
var ErrNoHandoff = errors.New("no conversation selected")

// Handoff stores the full record for the viewer.
func Handoff(ctx context.Context, kv storage.KV, record conversation.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode handoff: %w", err)
	}
	if err := kv.Set(ctx, HandoffKey, string(payload)); err != nil {
		return fmt.Errorf("store handoff: %w", err)
	}
	return nil
}

// Open reads the handed-off record. A missing or unreadable value is ErrNoHandoff.
func Open(ctx context.Context, kv storage.KV) (conversation.Record, error) {
	if kv == nil {
		return conversation.Record{}, ErrNoHandoff
	}
	raw, ok, err := kv.Get(ctx, HandoffKey)
	if err != nil {
		return conversation.Record{}, fmt.Errorf("%w: %v", ErrNoHandoff, err)
	}
	if !ok || raw == "" {
		return conversation.Record{}, ErrNoHandoff
	}
	var record conversation.Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return conversation.Record{}, fmt.Errorf("%w: %v", ErrNoHandoff, err)
	}
	return record, nil
}
