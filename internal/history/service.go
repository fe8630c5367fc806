// Package history lists saved conversation snapshots for a user and lets the
// caller delete them or hand one over to the viewer.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/memohai/memochat/internal/conversation"
	"github.com/memohai/memochat/internal/event"
	"github.com/memohai/memochat/internal/storage"
	"github.com/memohai/memochat/internal/viewer"
)

// ErrUnknownRecord is returned for ids that are not in the current list.
var ErrUnknownRecord = errors.New("conversation not in history list")

// Source is the subset of the memory client the browser needs.
type Source interface {
	List(ctx context.Context, userID string) ([]conversation.Record, error)
	Search(ctx context.Context, query, userID string) ([]conversation.Record, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context, userID string) error
}

type Browser struct {
	userID  string
	source  Source
	handoff storage.KV
	hub     event.Publisher
	logger  *slog.Logger

	mu      sync.RWMutex
	entries []Entry
	loading bool
	loaded  bool
}

func NewBrowser(log *slog.Logger, userID string, source Source, handoff storage.KV, hub event.Publisher) *Browser {
	if log == nil {
		log = slog.Default()
	}
	return &Browser{
		userID:  userID,
		source:  source,
		handoff: handoff,
		hub:     hub,
		logger:  log.With(slog.String("service", "history"), slog.String("user_id", userID)),
	}
}

// Entries returns the displayed list, newest first.
func (b *Browser) Entries() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Loading reports whether a refresh is in flight.
func (b *Browser) Loading() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loading
}

// Loaded reports whether at least one refresh has finished.
func (b *Browser) Loaded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loaded
}

// Refresh reloads the list from the backend. On failure the current list is kept.
func (b *Browser) Refresh(ctx context.Context) error {
	return b.fill(ctx, "list", func(ctx context.Context) ([]conversation.Record, error) {
		return b.source.List(ctx, b.userID)
	})
}

// Search replaces the list with matching chat snapshots.
func (b *Browser) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return b.Refresh(ctx)
	}
	return b.fill(ctx, "search", func(ctx context.Context) ([]conversation.Record, error) {
		return b.source.Search(ctx, query, b.userID)
	})
}

func (b *Browser) fill(ctx context.Context, op string, fetch func(context.Context) ([]conversation.Record, error)) error {
	b.setLoading(true)
	records, err := fetch(ctx)
	if err != nil {
		b.setLoading(false)
		b.logger.Error("history "+op+" failed", slog.Any("error", err))
		b.notify()
		return fmt.Errorf("%s history: %w", op, err)
	}
	records = conversation.NewestFirst(conversation.ChatHistory(records))
	entries := make([]Entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, newEntry(record))
	}

	b.mu.Lock()
	b.entries = entries
	b.loading = false
	b.loaded = true
	b.mu.Unlock()
	b.logger.Debug("history loaded", slog.String("op", op), slog.Int("count", len(entries)))
	b.notify()
	return nil
}

// Delete removes one record on the backend and then from the list.
// The list is left unchanged when the backend refuses.
func (b *Browser) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrUnknownRecord
	}
	if err := b.source.Delete(ctx, id); err != nil {
		b.logger.Error("delete conversation failed", slog.String("id", id), slog.Any("error", err))
		return fmt.Errorf("delete conversation: %w", err)
	}
	b.mu.Lock()
	kept := make([]Entry, 0, len(b.entries))
	for _, entry := range b.entries {
		if entry.ID() != id {
			kept = append(kept, entry)
		}
	}
	b.entries = kept
	b.mu.Unlock()
	b.notify()
	return nil
}

// Clear deletes every memory of the user and empties the list.
func (b *Browser) Clear(ctx context.Context) error {
	if err := b.source.DeleteAll(ctx, b.userID); err != nil {
		b.logger.Error("clear history failed", slog.Any("error", err))
		return fmt.Errorf("clear history: %w", err)
	}
	b.mu.Lock()
	b.entries = nil
	b.mu.Unlock()
	b.notify()
	return nil
}

// View hands the listed record over to the viewer. No request is made.
func (b *Browser) View(ctx context.Context, id string) (conversation.Record, error) {
	entry, ok := b.lookup(id)
	if !ok {
		return conversation.Record{}, ErrUnknownRecord
	}
	if b.handoff == nil {
		return conversation.Record{}, errors.New("handoff store not configured")
	}
	if err := viewer.Handoff(ctx, b.handoff, entry.Record); err != nil {
		return conversation.Record{}, err
	}
	return entry.Record, nil
}

func (b *Browser) lookup(id string) (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, entry := range b.entries {
		if entry.ID() == id {
			return entry, true
		}
	}
	return Entry{}, false
}

func (b *Browser) setLoading(loading bool) {
	b.mu.Lock()
	b.loading = loading
	b.mu.Unlock()
	b.notify()
}

func (b *Browser) notify() {
	if b.hub == nil {
		return
	}
	b.hub.Publish(event.Event{Type: event.TypeHistoryChanged, UserID: b.userID})
}
