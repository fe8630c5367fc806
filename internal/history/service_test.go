package history

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/memochat/internal/conversation"
	"github.com/memohai/memochat/internal/event"
	"github.com/memohai/memochat/internal/storage"
	"github.com/memohai/memochat/internal/viewer"
)

type fakeSource struct {
	records   []conversation.Record
	listErr   error
	deleteErr error
	deleted   []string
	cleared   []string
	queries   []string
}

func (f *fakeSource) List(_ context.Context, _ string) ([]conversation.Record, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]conversation.Record(nil), f.records...), nil
}

func (f *fakeSource) Search(_ context.Context, query, _ string) ([]conversation.Record, error) {
	f.queries = append(f.queries, query)
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []conversation.Record
	for _, r := range f.records {
		for _, m := range r.Data {
			if strings.Contains(m.Content, query) {
				out = append(out, r)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeSource) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func (f *fakeSource) DeleteAll(_ context.Context, userID string) error {
	f.cleared = append(f.cleared, userID)
	return f.deleteErr
}

var base = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func chat(id string, minutes int, contents ...string) conversation.Record {
	var msgs []conversation.Message
	for i, c := range contents {
		if i%2 == 0 {
			msgs = append(msgs, conversation.UserMessage(c))
		} else {
			msgs = append(msgs, conversation.AssistantMessage(c))
		}
	}
	return conversation.Record{
		ID:        id,
		UserID:    "user-1",
		Data:      msgs,
		Metadata:  conversation.ChatHistoryMetadata(),
		CreatedAt: base.Add(time.Duration(minutes) * time.Minute),
	}
}

func ids(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID())
	}
	return out
}

func TestRefreshFiltersAndSorts(t *testing.T) {
	note := conversation.Record{ID: "note", Metadata: map[string]any{"type": "note"}, CreatedAt: base.Add(time.Hour)}
	src := &fakeSource{records: []conversation.Record{
		chat("a", 1, "first", "reply"),
		note,
		chat("c", 3, "third"),
		{ID: "bare", CreatedAt: base.Add(2 * time.Hour)},
		chat("b", 2, "second", "reply", "more"),
	}}
	b := NewBrowser(nil, "user-1", src, storage.NewMemory(), nil)
	assert.False(t, b.Loaded())

	require.NoError(t, b.Refresh(context.Background()))
	entries := b.Entries()
	assert.Equal(t, []string{"c", "b", "a"}, ids(entries))
	assert.True(t, b.Loaded())
	assert.False(t, b.Loading())
	assert.Equal(t, 3, entries[1].MessageCount)
	assert.Equal(t, "user: second | assistant: reply", entries[1].Preview)
	assert.True(t, entries[0].CreatedAt().Equal(base.Add(3*time.Minute)))
}

func TestRefreshFailureKeepsList(t *testing.T) {
	src := &fakeSource{records: []conversation.Record{chat("a", 1, "hi")}}
	b := NewBrowser(nil, "user-1", src, nil, nil)
	require.NoError(t, b.Refresh(context.Background()))

	src.listErr = errors.New("boom")
	err := b.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"a"}, ids(b.Entries()))
	assert.False(t, b.Loading())
}

func TestRefreshFailureOnFirstLoad(t *testing.T) {
	b := NewBrowser(nil, "user-1", &fakeSource{listErr: errors.New("down")}, nil, nil)
	require.Error(t, b.Refresh(context.Background()))
	assert.Empty(t, b.Entries())
	assert.False(t, b.Loaded())
}

func TestDeleteRemovesExactlyThatID(t *testing.T) {
	src := &fakeSource{records: []conversation.Record{chat("a", 1, "x"), chat("b", 2, "y"), chat("c", 3, "z")}}
	b := NewBrowser(nil, "user-1", src, nil, nil)
	require.NoError(t, b.Refresh(context.Background()))

	require.NoError(t, b.Delete(context.Background(), "b"))
	assert.Equal(t, []string{"c", "a"}, ids(b.Entries()))
	assert.Equal(t, []string{"b"}, src.deleted)
}

func TestDeleteFailureLeavesListUnchanged(t *testing.T) {
	src := &fakeSource{records: []conversation.Record{chat("a", 1, "x"), chat("b", 2, "y")}}
	b := NewBrowser(nil, "user-1", src, nil, nil)
	require.NoError(t, b.Refresh(context.Background()))

	src.deleteErr = errors.New("nope")
	require.Error(t, b.Delete(context.Background(), "a"))
	assert.Equal(t, []string{"b", "a"}, ids(b.Entries()))

	assert.ErrorIs(t, b.Delete(context.Background(), " "), ErrUnknownRecord)
}

func TestViewHandsOffRecord(t *testing.T) {
	ctx := context.Background()
	handoff := storage.NewMemory()
	src := &fakeSource{records: []conversation.Record{chat("a", 1, "Hello", "Hi there")}}
	b := NewBrowser(nil, "user-1", src, handoff, nil)
	require.NoError(t, b.Refresh(ctx))

	record, err := b.View(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", record.ID)

	opened, err := viewer.Open(ctx, handoff)
	require.NoError(t, err)
	assert.Equal(t, record.Data, opened.Data)

	_, err = b.View(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnknownRecord)
}

func TestSearchAndClear(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{records: []conversation.Record{chat("a", 1, "apples"), chat("b", 2, "bananas"), chat("c", 3, "apple pie")}}
	b := NewBrowser(nil, "user-1", src, nil, nil)

	require.NoError(t, b.Search(ctx, "apple"))
	assert.Equal(t, []string{"c", "a"}, ids(b.Entries()))

	require.NoError(t, b.Search(ctx, "  "))
	assert.Len(t, b.Entries(), 3, "blank query falls back to the full list")
	assert.Equal(t, []string{"apple"}, src.queries)

	require.NoError(t, b.Clear(ctx))
	assert.Empty(t, b.Entries())
	assert.Equal(t, []string{"user-1"}, src.cleared)
}

func TestClearFailureKeepsList(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{records: []conversation.Record{chat("a", 1, "x")}}
	b := NewBrowser(nil, "user-1", src, nil, nil)
	require.NoError(t, b.Refresh(ctx))
	src.deleteErr = errors.New("nope")
	require.Error(t, b.Clear(ctx))
	assert.Len(t, b.Entries(), 1)
}

func TestBrowserPublishesHistoryChanged(t *testing.T) {
	hub := event.NewHub()
	ch, cancel := hub.Subscribe("user-1")
	defer cancel()

	b := NewBrowser(nil, "user-1", &fakeSource{}, nil, hub)
	require.NoError(t, b.Refresh(context.Background()))

	select {
	case ev := <-ch:
		assert.Equal(t, event.TypeHistoryChanged, ev.Type)
	default:
		t.Fatal("expected history event")
	}
}
