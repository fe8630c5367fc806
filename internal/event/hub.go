// Package event notifies views that client state changed. Views re-read state
// from its owner, so each subscriber only ever holds the newest pending event:
// a later event replaces one the subscriber has not taken yet.
package event

import (
	"strings"
	"sync"
)

// Type identifies what changed.
type Type string

const (
	// TypeTranscriptChanged is emitted when the active chat transcript grows or resets.
	TypeTranscriptChanged Type = "transcript_changed"
	// TypeStateChanged is emitted when the chat session changes state (loading, sending...).
	TypeStateChanged Type = "state_changed"
	// TypeHistoryChanged is emitted when the browsed record list changes.
	TypeHistoryChanged Type = "history_changed"
)

// Event is the notification payload.
type Event struct {
	Type   Type   `json:"type"`
	UserID string `json:"user_id"`
	State  string `json:"state,omitempty"`
}

// Publisher publishes events to subscribers.
type Publisher interface {
	Publish(event Event)
}

// Subscriber subscribes to user-scoped events.
type Subscriber interface {
	Subscribe(userID string) (<-chan Event, func())
}

// mailbox holds at most one undelivered event.
type mailbox chan Event

// put stores ev, replacing an event the reader has not taken.
// Callers hold the hub lock, so put never races another put.
func (m mailbox) put(ev Event) {
	select {
	case m <- ev:
		return
	default:
	}
	select {
	case <-m:
	default:
	}
	m <- ev
}

// Hub fans events out to the mailboxes of one user.
type Hub struct {
	mu    sync.Mutex
	boxes map[string]map[mailbox]struct{}
}

func NewHub() *Hub {
	return &Hub{boxes: map[string]map[mailbox]struct{}{}}
}

// Publish delivers ev to every mailbox of ev.UserID without blocking.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	userID := strings.TrimSpace(ev.UserID)
	if userID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for box := range h.boxes[userID] {
		box.put(ev)
	}
}

// Subscribe opens a mailbox for userID. The channel is closed by cancel,
// which may be called more than once. A nil hub or blank user yields a
// closed channel.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	userID = strings.TrimSpace(userID)
	if h == nil || userID == "" {
		box := make(mailbox)
		close(box)
		return box, func() {}
	}

	box := make(mailbox, 1)
	h.mu.Lock()
	if h.boxes[userID] == nil {
		h.boxes[userID] = map[mailbox]struct{}{}
	}
	h.boxes[userID][box] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return box, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.boxes[userID], box)
			if len(h.boxes[userID]) == 0 {
				delete(h.boxes, userID)
			}
			close(box)
		})
	}
}
