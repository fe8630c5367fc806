// Package storage defines the key-value capability used for client-side state:
// a durable store for values that outlive a run and a transient one for
// values handed between pages.
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("storage: store closed")

// KV is a string key-value store.
type KV interface {
	// Get returns the value at key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value at key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

type scoped struct {
	kv     KV
	prefix string
}

// Scope namespaces every key of kv under prefix, so that values of different
// logical sessions sharing one backing store never collide.
func Scope(kv KV, prefix string) KV {
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		return kv
	}
	return &scoped{kv: kv, prefix: prefix + ":"}
}

func (s *scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.kv.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	return s.kv.Set(ctx, s.prefix+key, value)
}

func (s *scoped) Remove(ctx context.Context, key string) error {
	return s.kv.Remove(ctx, s.prefix+key)
}
