package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/memohai/memochat/internal/answer"
	"github.com/memohai/memochat/internal/api"
	"github.com/memohai/memochat/internal/config"
	"github.com/memohai/memochat/internal/event"
	"github.com/memohai/memochat/internal/history"
	"github.com/memohai/memochat/internal/identity"
	"github.com/memohai/memochat/internal/logger"
	"github.com/memohai/memochat/internal/memory"
	"github.com/memohai/memochat/internal/session"
	"github.com/memohai/memochat/internal/storage"
)

const stopTimeout = 5 * time.Second

// app is the assembled client for one command invocation.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	resolver *identity.Resolver
	identity identity.Identity
	memory   *memory.Client
	session  *session.Controller
	history  *history.Browser
	handoff  storage.KV

	fx *fx.App
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	a := &app{}
	a.fx = fx.New(
		fx.Supply(opts),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideAPIClient,
			memory.NewClient,
			provideAnswerClient,
			provideDurableStore,
			provideResolver,
			provideIdentity,
			event.NewHub,
			provideHandoff,
			provideSession,
			provideHistory,
		),
		fx.Populate(
			&a.cfg,
			&a.logger,
			&a.resolver,
			&a.identity,
			&a.memory,
			&a.session,
			&a.history,
			&a.handoff,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			l := &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
			l.UseLogLevel(slog.LevelDebug)
			return l
		}),
	)
	if err := a.fx.Err(); err != nil {
		return nil, err
	}
	if err := a.fx.Start(ctx); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	return a, nil
}

// Close runs the stop hooks (bolt store, log file).
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := a.fx.Stop(ctx); err != nil {
		a.logger.Warn("shutdown failed", slog.Any("error", err))
	}
}

func provideConfig(opts *rootOptions) (config.Config, error) {
	cfg, err := config.Load(config.ConfigPath(opts.configPath))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(opts.apiURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(opts.userID); v != "" {
		cfg.Identity.UserID = v
	}
	if opts.timeout > 0 {
		cfg.API.TimeoutSeconds = int(max(opts.timeout/time.Second, 1))
	}
	return cfg, nil
}

func provideLogger(lc fx.Lifecycle, cfg config.Config, opts *rootOptions) (*slog.Logger, error) {
	if !opts.logToFile || strings.TrimSpace(cfg.Log.File) == "" {
		logger.Init(os.Stderr, cfg.Log.Level, cfg.Log.Format)
		return logger.L, nil
	}
	f, err := logger.OpenFile(cfg.Log.File)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logger.Init(f, cfg.Log.Level, cfg.Log.Format)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return f.Close()
		},
	})
	return logger.L, nil
}

func provideAPIClient(log *slog.Logger, cfg config.Config) (*api.Client, error) {
	return api.NewClient(log, cfg.API.BaseURL, cfg.API.Timeout())
}

func provideAnswerClient(log *slog.Logger, apiClient *api.Client, cfg config.Config) *answer.Client {
	return answer.NewClient(log, apiClient, answer.Options{
		EmbeddingModel: cfg.Answer.EmbeddingModel,
		AppType:        cfg.Answer.AppType,
	})
}

// provideDurableStore opens the bolt file. A store that cannot be opened (for
// example locked by another instance) yields nil and identity becomes ephemeral.
func provideDurableStore(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) *storage.Bolt {
	store, err := storage.OpenBolt(cfg.Storage.Path)
	if err != nil {
		log.Warn("durable storage unavailable", slog.String("path", cfg.Storage.Path), slog.Any("error", err))
		return nil
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return store
}

func provideResolver(log *slog.Logger, store *storage.Bolt, cfg config.Config) *identity.Resolver {
	var kv storage.KV
	if store != nil {
		kv = store
	}
	return identity.NewResolver(log, kv, cfg.Identity.UserID)
}

func provideIdentity(resolver *identity.Resolver) identity.Identity {
	return resolver.Resolve(context.Background())
}

// provideHandoff returns the transient store shared by the history list and the viewer.
func provideHandoff(id identity.Identity) storage.KV {
	return storage.Scope(storage.NewMemory(), id.UserID)
}

func provideSession(log *slog.Logger, id identity.Identity, mem *memory.Client, ans *answer.Client, hub *event.Hub) *session.Controller {
	return session.NewController(log, id.UserID, mem, ans, hub)
}

func provideHistory(log *slog.Logger, id identity.Identity, mem *memory.Client, handoff storage.KV, hub *event.Hub) *history.Browser {
	return history.NewBrowser(log, id.UserID, mem, handoff, hub)
}
