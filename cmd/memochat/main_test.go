package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/memochat/internal/apitest"
	"github.com/memohai/memochat/internal/history"
	"github.com/memohai/memochat/internal/session"
)

type harness struct {
	backend *apitest.Backend
	args    []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := apitest.New()
	server := backend.Start(t)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	cfg := fmt.Sprintf("[log]\nlevel = \"error\"\n\n[storage]\npath = %q\n", filepath.Join(dir, "state.db"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	return &harness{
		backend: backend,
		args:    []string{"--config", cfgPath, "--api-url", server.URL},
	}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(append([]string{}, args...), h.args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestWhoamiPersistsIdentity(t *testing.T) {
	h := newHarness(t)

	first, err := h.run(t, "", "whoami")
	require.NoError(t, err)
	first = strings.TrimSpace(first)
	assert.True(t, strings.HasPrefix(first, "user-"), first)

	second, err := h.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Equal(t, first, strings.TrimSpace(second))

	_, err = h.run(t, "", "whoami", "--reset")
	require.NoError(t, err)
	third, err := h.run(t, "", "whoami")
	require.NoError(t, err)
	assert.NotEqual(t, first, strings.TrimSpace(third))

	pinned, err := h.run(t, "", "whoami", "--user", "user-pinned")
	require.NoError(t, err)
	assert.Equal(t, "user-pinned", strings.TrimSpace(pinned))
}

func TestAskPersistsOneSnapshot(t *testing.T) {
	h := newHarness(t)
	h.backend.Answer = func(string) (string, error) { return "Hi there", nil }

	out, err := h.run(t, "", "ask", "--user", "user-1", "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there\n", out)

	saves := h.backend.Saves()
	require.Len(t, saves, 1)
	assert.Equal(t, "user-1", saves[0].UserID)
	assert.Equal(t, "chat_history", saves[0].Metadata["type"])
	require.Len(t, saves[0].Data, 2)
	assert.Equal(t, "Hello", saves[0].Data[0]["content"])
	assert.Equal(t, "Hi there", saves[0].Data[1]["content"])

	asks := h.backend.Asks()
	require.Len(t, asks, 1)
	assert.Equal(t, "open_ai", asks[0].EmbeddingModel)
	assert.Equal(t, "app", asks[0].AppType)
}

func TestAskAnswerFailure(t *testing.T) {
	h := newHarness(t)
	h.backend.FailAnswer(true)

	out, err := h.run(t, "", "ask", "--user", "user-1", "Hello")
	require.Error(t, err)
	assert.Contains(t, out, session.ErrorReply)
	assert.Len(t, h.backend.Saves(), 1, "the failed turn is still saved")
}

func TestLineChatResumesConversation(t *testing.T) {
	h := newHarness(t)
	h.backend.Answer = func(q string) (string, error) { return "echo " + q, nil }

	out, err := h.run(t, "one\n\ntwo\nexit\n", "chat", "--user", "user-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Assistant: echo one")
	assert.Contains(t, out, "Assistant: echo two")
	assert.Len(t, h.backend.Saves(), 2)

	out, err = h.run(t, "quit\n", "--user", "user-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "You: one\nAssistant: echo one\nYou: two\nAssistant: echo two\n"), out)
	assert.Len(t, h.backend.Saves(), 2)
}

func TestLineChatLoadFailureIsNotShown(t *testing.T) {
	h := newHarness(t)
	h.backend.FailList(true)
	h.backend.Answer = func(string) (string, error) { return "Hi there", nil }

	out, err := h.run(t, "Hello\nexit\n", "chat", "--user", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "You: Assistant: Hi there\nYou: ", out)
	assert.Len(t, h.backend.Saves(), 1)
}

func TestHistoryCommands(t *testing.T) {
	h := newHarness(t)
	older := h.backend.SeedChat("user-1", "Hello", "Hi there")
	note := h.backend.Seed(map[string]any{"user_id": "user-1", "data": []any{}, "metadata": map[string]any{"type": "note"}})
	newer := h.backend.SeedChat("user-1", "Second question", "Second answer")

	out, err := h.run(t, "", "history", "list", "--user", "user-1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], newer)
	assert.Contains(t, lines[1], "user: Second question | assistant: Second answer")
	assert.Contains(t, lines[2], older)

	out, err = h.run(t, "", "history", "view", older, "--user", "user-1")
	require.NoError(t, err)
	assert.Contains(t, out, "You\nHello")
	assert.Contains(t, out, "Assistant\nHi there")

	out, err = h.run(t, "", "history", "view", note, "--user", "user-1")
	require.NoError(t, err, "records outside the list are fetched by id")
	assert.Contains(t, out, "No messages found in this conversation.")

	_, err = h.run(t, "", "history", "view", "missing", "--user", "user-1")
	assert.ErrorIs(t, err, history.ErrUnknownRecord)

	out, err = h.run(t, "", "history", "search", "second", "--user", "user-1")
	require.NoError(t, err)
	assert.Contains(t, out, newer)
	assert.NotContains(t, out, older)

	_, err = h.run(t, "", "history", "delete", older, "--user", "user-1")
	require.NoError(t, err)
	assert.NotContains(t, h.backend.IDs(), older)

	_, err = h.run(t, "", "history", "clear", "--user", "user-1")
	require.NoError(t, err)
	out, err = h.run(t, "", "history", "list", "--user", "user-1")
	require.NoError(t, err)
	assert.Contains(t, out, "No conversations found")
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Memochat "))
}
