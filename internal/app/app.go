package app

import (
	"context"
	"errors"
	"time"

	"github.com/ecomdash/backoffice/internal/cache"
	"github.com/ecomdash/backoffice/internal/config"
	"github.com/ecomdash/backoffice/internal/gateway"
	"github.com/ecomdash/backoffice/internal/logger"
	"github.com/ecomdash/backoffice/internal/session"
)

// App is the application container (immutable dependencies + lifecycle context).
// It is not a request context; handlers should still use gin's request context.
type App struct {
	Config   *config.Config
	Gateway  *gateway.Client
	Sessions *session.Manager

	tokenFile *gateway.FileToken

	BaseCtx context.Context
	Cancel  context.CancelFunc
}

// New wires the gateway and the session manager from configuration.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	var tokens gateway.TokenSource
	var tokenFile *gateway.FileToken
	switch {
	case cfg.Remote.TokenFile != "":
		ft, err := gateway.NewFileToken(cfg.Remote.TokenFile)
		if err != nil {
			return nil, err
		}
		tokens, tokenFile = ft, ft
	case cfg.Remote.BearerToken != "":
		tokens = gateway.StaticToken(cfg.Remote.BearerToken)
	}

	client, err := gateway.NewClient(cfg.Remote, tokens)
	if err != nil {
		return nil, err
	}

	sessions, err := session.NewManager(client, cache.Config{
		Capacity:           cfg.View.CacheCapacity,
		NumShards:          cfg.View.CacheShards,
		TTL:                cfg.View.CacheTTL,
		EvictionPercentage: cfg.View.CacheEvictionPct,
	}, cfg.View.PageSize, cfg.View.SearchDebounce)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config:    cfg,
		Gateway:   client,
		Sessions:  sessions,
		tokenFile: tokenFile,
		BaseCtx:   ctx,
		Cancel:    cancel,
	}, nil
}

// StartWatchers starts the token-file watcher when a token file is configured.
func (a *App) StartWatchers() {
	if a.tokenFile == nil {
		return
	}
	if err := a.tokenFile.StartWatcher(a.BaseCtx); err != nil {
		logger.WithComponent("app").Fatalf("cannot start token file watcher: %v", err)
	}
}

// Shutdown cancels the lifecycle context. Session debounce timers are stopped
// so no search lands after teardown.
func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.Cancel()
}

// SearchDebounce exposes the configured debounce interval, mostly for tests.
func (a *App) SearchDebounce() time.Duration {
	return a.Config.View.SearchDebounce
}
