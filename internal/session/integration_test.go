package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/memochat/internal/answer"
	"github.com/memohai/memochat/internal/api"
	"github.com/memohai/memochat/internal/apitest"
	"github.com/memohai/memochat/internal/conversation"
	"github.com/memohai/memochat/internal/event"
	"github.com/memohai/memochat/internal/memory"
	"github.com/memohai/memochat/internal/session"
)

func newSession(t *testing.T, backend *apitest.Backend, userID string) *session.Controller {
	t.Helper()
	server := backend.Start(t)
	apiClient, err := api.NewClient(nil, server.URL, time.Second)
	require.NoError(t, err)
	return session.NewController(nil, userID,
		memory.NewClient(nil, apiClient),
		answer.NewClient(nil, apiClient, answer.Options{}),
		event.NewHub(),
	)
}

func TestSessionAgainstBackend(t *testing.T) {
	backend := apitest.New()
	backend.Answer = func(q string) (string, error) { return "echo: " + q, nil }
	ctx := context.Background()

	first := newSession(t, backend, "user-1")
	require.NoError(t, first.Load(ctx))
	_, err := first.Send(ctx, "one")
	require.NoError(t, err)
	_, err = first.Send(ctx, "two")
	require.NoError(t, err)

	// each turn wrote a new snapshot
	assert.Len(t, backend.IDs(), 2)

	resumed := newSession(t, backend, "user-1")
	require.NoError(t, resumed.Load(ctx))
	assert.Equal(t, []conversation.Message{
		conversation.UserMessage("one"),
		conversation.AssistantMessage("echo: one"),
		conversation.UserMessage("two"),
		conversation.AssistantMessage("echo: two"),
	}, resumed.Messages())
}

func TestSessionBackendFailures(t *testing.T) {
	backend := apitest.New()
	backend.FailList(true)
	backend.FailAnswer(true)
	backend.FailSave(true)
	ctx := context.Background()

	c := newSession(t, backend, "user-1")
	assert.Error(t, c.Load(ctx))

	got, err := c.Send(ctx, "Hello")
	require.NoError(t, err)
	assert.Equal(t, session.ErrorReply, got.Content)
	assert.Len(t, backend.Saves(), 1, "persist is attempted even after the answer failed")
	assert.Equal(t, session.StateReady, c.State())
}
