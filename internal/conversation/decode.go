package conversation

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

type recordWire struct {
	ID        string          `json:"id"`
	Data      json.RawMessage `json:"data"`
	UserID    string          `json:"user_id"`
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt json.RawMessage `json:"created_at"`
	UpdatedAt json.RawMessage `json:"updated_at"`
}

// UnmarshalJSON decodes a record leniently: a data field that is missing or
// not a list of message objects yields an empty transcript, and metadata or
// timestamps of the wrong shape are left zero.
func (r *Record) UnmarshalJSON(b []byte) error {
	var wire recordWire
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	*r = Record{
		ID:        wire.ID,
		Data:      decodeMessages(wire.Data),
		UserID:    wire.UserID,
		Metadata:  decodeMetadata(wire.Metadata),
		CreatedAt: decodeTimestamp(wire.CreatedAt),
		UpdatedAt: decodeTimestamp(wire.UpdatedAt),
	}
	return nil
}

func decodeMessages(raw json.RawMessage) []Message {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil
	}
	msgs := make([]Message, 0, len(items))
	for _, item := range items {
		var m struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		}
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil
		}
		if err := json.Unmarshal(item, &m); err != nil {
			return nil
		}
		msgs = append(msgs, Message{
			Role:    Role(strings.TrimSpace(m.Role)),
			Content: contentString(m.Content),
		})
	}
	return msgs
}

func contentString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func decodeMetadata(raw json.RawMessage) map[string]any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var meta map[string]any
	if err := json.Unmarshal(trimmed, &meta); err != nil {
		return nil
	}
	return meta
}

func decodeTimestamp(raw json.RawMessage) time.Time {
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return time.Time{}
	}
	parsed, err := ParseTimestamp(value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// ParseTimestamp parses RFC 3339 timestamps as well as the zone-less ISO 8601
// form produced by the memory backend. Zone-less values carry the server's
// wall clock and are read in the local zone, so they display unchanged.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return dateparse.ParseIn(value, time.Local)
}
