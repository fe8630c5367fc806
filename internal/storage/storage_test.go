package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "chatUserId", "user-1"))
	value, ok, err := kv.Get(ctx, "chatUserId")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "user-1", value)

	require.NoError(t, kv.Set(ctx, "chatUserId", "user-2"))
	value, _, _ = kv.Get(ctx, "chatUserId")
	assert.Equal(t, "user-2", value)

	require.NoError(t, kv.Remove(ctx, "chatUserId"))
	_, ok, err = kv.Get(ctx, "chatUserId")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Remove(ctx, "never-set"))
}

func TestMemoryStore(t *testing.T) {
	exerciseKV(t, NewMemory())
}

func TestBoltStore(t *testing.T) {
	store, err := OpenBolt(filepath.Join(t.TempDir(), "nested", "state.db"))
	require.NoError(t, err)
	defer store.Close()
	exerciseKV(t, store)
}

func TestBoltStorePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	first, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "chatUserId", "user-durable"))
	require.NoError(t, first.Close())

	second, err := OpenBolt(path)
	require.NoError(t, err)
	defer second.Close()
	value, ok, err := second.Get(ctx, "chatUserId")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "user-durable", value)
}

func TestBoltStoreClosed(t *testing.T) {
	store, err := OpenBolt(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, _, err = store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, store.Set(context.Background(), "k", "v"), ErrClosed)
}

func TestScopeIsolatesPrefixes(t *testing.T) {
	ctx := context.Background()
	backing := NewMemory()
	a := Scope(backing, "tab-a")
	b := Scope(backing, "tab-b")

	require.NoError(t, a.Set(ctx, "viewMemory", "A"))
	require.NoError(t, b.Set(ctx, "viewMemory", "B"))

	got, _, _ := a.Get(ctx, "viewMemory")
	assert.Equal(t, "A", got)
	got, _, _ = b.Get(ctx, "viewMemory")
	assert.Equal(t, "B", got)

	raw, ok, _ := backing.Get(ctx, "tab-a:viewMemory")
	assert.True(t, ok)
	assert.Equal(t, "A", raw)

	assert.Same(t, backing, Scope(backing, "  ").(*Memory))
}
