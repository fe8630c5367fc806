// Package conversation defines chat messages, persisted conversation records,
// and the pure functions that select, filter, and summarize them.
package conversation

import (
	"strings"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TypeChatHistory is the metadata type tag carried by chat transcript snapshots.
const TypeChatHistory = "chat_history"

// MetadataTypeKey is the metadata key holding the record type.
const MetadataTypeKey = "type"

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserMessage builds a message authored by the user.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds a message authored by the assistant.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Label returns the display name for the message author.
func (m Message) Label() string {
	if m.Role == RoleUser {
		return "You"
	}
	return "Assistant"
}

// Record is a persisted snapshot of a full transcript (a "memory" item).
// Records are never mutated by the client; each save creates a new one.
type Record struct {
	ID        string         `json:"id"`
	Data      []Message      `json:"data"`
	UserID    string         `json:"user_id"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at,omitzero"`
}

// Type returns the metadata type tag, or "" when absent.
func (r Record) Type() string {
	if r.Metadata == nil {
		return ""
	}
	value, _ := r.Metadata[MetadataTypeKey].(string)
	return strings.TrimSpace(value)
}

// IsChatHistory reports whether the record is a chat transcript snapshot.
func (r Record) IsChatHistory() bool {
	return r.Type() == TypeChatHistory
}

// ChatHistoryMetadata returns the metadata attached to every persisted transcript.
func ChatHistoryMetadata() map[string]any {
	return map[string]any{MetadataTypeKey: TypeChatHistory}
}

// Append returns a new transcript with msgs added after base. base is never aliased.
func Append(base []Message, msgs ...Message) []Message {
	out := make([]Message, 0, len(base)+len(msgs))
	out = append(out, base...)
	return append(out, msgs...)
}
