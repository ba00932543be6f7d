package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devtycoon/internal/api"
	"devtycoon/internal/auth"
	"devtycoon/internal/config"
	"devtycoon/internal/engine"
	"devtycoon/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("open store failed", "backend", cfg.StoreBackend, "err", err)
		os.Exit(1)
	}
	defer st.Close()

	var authSvc auth.Service
	switch cfg.AuthMode {
	case "local":
		authSvc = auth.NewLocalAuthority(cfg.LocalAuthSecret)
	default:
		authSvc = auth.NewProviderClient(cfg.AuthProviderURL, cfg.AuthProviderKey)
	}

	runnerCfg := engine.DefaultConfig()
	runner := engine.NewRunner(st, logger, runnerCfg)

	server := api.New(cfg, logger, authSvc, st, runner)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("devtycoon api listening", "addr", cfg.Addr, "store", cfg.StoreBackend, "auth", cfg.AuthMode)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg config.APIConfig, logger *slog.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case "postgres":
		return store.OpenPostgres(ctx, cfg.DatabaseURL, logger)
	case "sqlite":
		return store.OpenSQLite(ctx, cfg.SQLitePath)
	case "memory":
		return store.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
