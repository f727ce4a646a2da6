package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/vango-dev/folio"
	"github.com/vango-dev/folio/internal/config"
	"github.com/vango-dev/folio/pkg/middleware"
	"github.com/vango-dev/folio/pkg/storage"
)

// globalFlags override folio.json for a single invocation.
type globalFlags struct {
	driver   string
	dsn      string
	logLevel string
}

// loadConfig reads the nearest folio.json and applies flag overrides.
func (f *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return nil, err
	}
	if f.driver != "" {
		cfg.Storage.Driver = f.driver
	}
	if f.dsn != "" {
		cfg.Storage.DSN = f.dsn
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	return storage.Open(ctx, storage.Options{
		Driver: cfg.Storage.Driver,
		DSN:    cfg.Storage.DSN,
		Table:  cfg.Storage.Table,
		Bucket: cfg.Storage.Bucket,
		Prefix: cfg.Storage.Prefix,
		Region: cfg.Storage.Region,
	})
}

// localApp is a headless App over the configured storage, standing in for
// a single browser client.
type localApp struct {
	*folio.App
	store storage.Storage
}

func openLocal(ctx context.Context, f *globalFlags) (*localApp, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := folio.New(folio.Config{
		Storage:  store,
		API:      middleware.Chain(folio.NewMockAPI(cfg), middleware.Recover(logger)),
		Settings: cfg,
		Logger:   logger,
	})
	app.Initialize(ctx)
	return &localApp{App: app, store: store}, nil
}

func (l *localApp) Close() {
	l.App.Close()
	if err := l.store.Close(); err != nil {
		slog.Warn("closing storage failed", "error", err)
	}
}
