package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(minute int) time.Time {
	return time.Date(2024, 5, 1, 10, minute, 0, 0, time.UTC)
}

func snapshot(id string, minute int, typ string, msgs ...Message) Record {
	r := Record{ID: id, CreatedAt: at(minute), Data: msgs, UserID: "user-1"}
	if typ != "" {
		r.Metadata = map[string]any{MetadataTypeKey: typ}
	}
	return r
}

func TestLatestPicksMaxCreatedAt(t *testing.T) {
	records := []Record{
		snapshot("b", 5, TypeChatHistory, UserMessage("hi"), AssistantMessage("yo")),
		snapshot("c", 9, TypeChatHistory, UserMessage("hi"), AssistantMessage("yo"), UserMessage("again"), AssistantMessage("sure")),
		snapshot("a", 1, TypeChatHistory, UserMessage("hi")),
	}

	got, ok := Latest(records)
	require.True(t, ok)
	assert.Equal(t, "c", got.ID)
	assert.Len(t, got.Data, 4, "latest snapshot is adopted, not a concatenation")
}

func TestLatestTieResolvesToLastReceived(t *testing.T) {
	records := []Record{
		snapshot("first", 3, TypeChatHistory),
		snapshot("second", 3, TypeChatHistory),
		snapshot("older", 1, TypeChatHistory),
	}
	got, ok := Latest(records)
	require.True(t, ok)
	assert.Equal(t, "second", got.ID)
}

func TestLatestEmpty(t *testing.T) {
	_, ok := Latest(nil)
	assert.False(t, ok)
}

func TestChatHistoryFiltersOtherTypes(t *testing.T) {
	records := []Record{
		snapshot("chat", 1, TypeChatHistory),
		snapshot("note", 2, "note"),
		snapshot("untyped", 3, ""),
		snapshot("chat2", 4, TypeChatHistory),
	}
	got := ChatHistory(records)
	require.Len(t, got, 2)
	assert.Equal(t, "chat", got[0].ID)
	assert.Equal(t, "chat2", got[1].ID)
}

func TestNewestFirstSortsDescendingAndStable(t *testing.T) {
	records := []Record{
		snapshot("a", 1, TypeChatHistory),
		snapshot("b", 7, TypeChatHistory),
		snapshot("c", 4, TypeChatHistory),
		snapshot("d", 7, TypeChatHistory),
	}
	got := NewestFirst(records)
	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"b", "d", "c", "a"}, ids)
	assert.Equal(t, "a", records[0].ID, "input must not be reordered")
}

func TestWithoutRemovesOnlyThatID(t *testing.T) {
	records := []Record{snapshot("a", 1, ""), snapshot("b", 2, ""), snapshot("c", 3, "")}
	got := Without(records, "b")
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Len(t, records, 3)
}

func TestAppendDoesNotAlias(t *testing.T) {
	base := make([]Message, 1, 8)
	base[0] = UserMessage("one")
	a := Append(base, AssistantMessage("two"))
	b := Append(base, AssistantMessage("other"))
	assert.Equal(t, "two", a[1].Content)
	assert.Equal(t, "other", b[1].Content)
}
