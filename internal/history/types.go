package history

import (
	"time"

	"github.com/memohai/memochat/internal/conversation"
)

// Entry is one row of the conversation list.
type Entry struct {
	Record       conversation.Record
	Preview      string
	MessageCount int
}

// ID returns the record id.
func (e Entry) ID() string {
	return e.Record.ID
}

// CreatedAt returns the snapshot creation time.
func (e Entry) CreatedAt() time.Time {
	return e.Record.CreatedAt
}

func newEntry(record conversation.Record) Entry {
	return Entry{
		Record:       record,
		Preview:      conversation.Preview(record),
		MessageCount: len(record.Data),
	}
}
