package root

import (
	"context"
	"io"
	"log/slog"
	"os"

	"taskflow/internal/app"
	"taskflow/internal/config"
	"taskflow/internal/models"
	"taskflow/internal/progress"
	"taskflow/internal/storage"
)

// operator is the identity admin changes are recorded under.
var operator = models.User{Username: "taskflowctl", Role: models.RoleAdmin}

type env struct {
	cfg   config.Config
	store storage.Store
	svc   *progress.Service
	log   *slog.Logger
}

func openEnv(ctx context.Context, verbose bool) (*env, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	var out io.Writer = io.Discard
	if verbose {
		out = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	store, err := app.OpenStore(ctx, cfg.DB, logger, false)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = store.Close()
	}
	return &env{cfg: cfg, store: store, svc: app.NewService(cfg, store, logger), log: logger}, cleanup, nil
}
