// Package app assembles the storage backend and services from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"taskflow/internal/config"
	"taskflow/internal/progress"
	"taskflow/internal/seed"
	"taskflow/internal/storage"
	"taskflow/internal/storage/memory"
	"taskflow/internal/storage/sqlstore"
)

// OpenStore opens the configured backend. When the database stays
// unreachable after all retries and fallback is set, an in-memory store is
// returned instead; its data is lost on restart.
func OpenStore(ctx context.Context, cfg config.DBConfig, logger *slog.Logger, fallback bool) (storage.Store, error) {
	if cfg.Driver == "memory" {
		logger.Warn("using in-memory store, data will not survive a restart")
		return memory.New(), nil
	}

	store, err := sqlstore.OpenWithRetry(ctx, cfg.Driver, cfg.DSN, cfg.ConnectRetries, cfg.RetryDelay, logger)
	if err == nil {
		return store, nil
	}
	if !fallback {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}
	logger.Warn("database unavailable, falling back to in-memory store",
		slog.String("driver", cfg.Driver),
		slog.String("error", err.Error()))
	return memory.New(), nil
}

// Seed applies the configured seed file, or the built-in defaults.
func Seed(ctx context.Context, cfg config.Config, store storage.Store, logger *slog.Logger) error {
	data, err := seed.Load(cfg.SeedFile)
	if err != nil {
		return err
	}
	return seed.Apply(ctx, store, data, logger)
}

// NewService builds the progress service with the configured cache lifetimes.
func NewService(cfg config.Config, store storage.Store, logger *slog.Logger) *progress.Service {
	ttl := cfg.Cache.TTLs()
	return progress.NewService(store, progress.Options{
		TTLs:   &ttl,
		Logger: logger,
		Rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	})
}
