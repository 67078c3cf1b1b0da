package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"taskflow/internal/app"
	"taskflow/internal/auth"
	"taskflow/internal/config"
	"taskflow/internal/server"
)

func main() {
	_ = godotenv.Load()

	configFlag := flag.String("config", "", "Path to YAML config file (default taskflow.yaml if present)")
	addrFlag := flag.String("addr", "", "HTTP listen address, overrides config")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		slog.Error("unable to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	logger.Info("taskflow starting", slog.String("driver", cfg.DB.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenStore(ctx, cfg.DB, logger, true)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	if err := app.Seed(ctx, cfg, store, logger); err != nil {
		logger.Error("unable to seed database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	svc := app.NewService(cfg, store, logger)
	srv := server.New(svc, server.Options{
		Logger:       logger,
		StaticDir:    cfg.StaticDir,
		CookieName:   cfg.Session.CookieName,
		SessionTTL:   cfg.Session.TTL,
		RememberFor:  cfg.Session.RememberFor,
		SecureCookie: cfg.Session.Secure,
		Sessions:     auth.NewSessions(nil),
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
