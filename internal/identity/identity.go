// Package identity resolves the per-install user id that ties chat sessions
// and the conversation browser to the same memories.
package identity

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/memohai/memochat/internal/storage"
)

// StorageKey is the durable storage key holding the user id.
const StorageKey = "chatUserId"

const idPrefix = "user-"

// Identity is the resolved user identity.
type Identity struct {
	UserID string
	// Ephemeral is set when the id could not be persisted and lives only for this run.
	Ephemeral bool
}

// Resolver reads and creates identities in a durable store.
type Resolver struct {
	store    storage.KV
	override string
	logger   *slog.Logger
}

// NewResolver creates a resolver over store. A non-empty override always wins.
func NewResolver(log *slog.Logger, store storage.KV, override string) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		store:    store,
		override: strings.TrimSpace(override),
		logger:   log.With(slog.String("service", "identity")),
	}
}

// Resolve returns the stored identity, generating and storing one on first use.
// Storage failures degrade to an ephemeral id instead of failing.
func (r *Resolver) Resolve(ctx context.Context) Identity {
	if r.override != "" {
		return Identity{UserID: r.override}
	}
	if r.store == nil {
		return Identity{UserID: NewUserID(), Ephemeral: true}
	}
	stored, ok, err := r.store.Get(ctx, StorageKey)
	if err != nil {
		r.logger.Warn("identity storage unavailable, using ephemeral id", slog.Any("error", err))
		return Identity{UserID: NewUserID(), Ephemeral: true}
	}
	if ok && strings.TrimSpace(stored) != "" {
		return Identity{UserID: strings.TrimSpace(stored)}
	}
	id := NewUserID()
	if err := r.store.Set(ctx, StorageKey, id); err != nil {
		r.logger.Warn("persist identity failed, using ephemeral id", slog.Any("error", err))
		return Identity{UserID: id, Ephemeral: true}
	}
	r.logger.Info("created identity", slog.String("user_id", id))
	return Identity{UserID: id}
}

// Reset forgets the stored identity; the next Resolve generates a new one.
func (r *Resolver) Reset(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	return r.store.Remove(ctx, StorageKey)
}

// NewUserID generates a random user id.
func NewUserID() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return idPrefix + token[:12]
}
