package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/syncapps/chanbridge/internal/concurrency"
	"github.com/syncapps/chanbridge/internal/config"
	"github.com/syncapps/chanbridge/internal/database"
	"github.com/syncapps/chanbridge/internal/database/migrations"
	"github.com/syncapps/chanbridge/internal/database/postgres"
	"github.com/syncapps/chanbridge/internal/handler"
	"github.com/syncapps/chanbridge/internal/secrets"
	"github.com/syncapps/chanbridge/internal/server"
	"github.com/syncapps/chanbridge/internal/slack"
	syncpkg "github.com/syncapps/chanbridge/internal/sync"
	"github.com/syncapps/chanbridge/internal/worker"
)

const (
	dbMaxConns       = 10
	dbMaxIdle        = 30 * time.Minute
	dbMaxLife        = time.Hour
	shutdownTimeout  = 30 * time.Second
	migrationTimeout = time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration failed", "error", err)
		os.Exit(1)
	}

	initLogger(cfg)

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), migrationTimeout)
	defer cancelMigrate()
	if err := migrations.Up(migrateCtx, cfg.GetDBConnString()); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	dbPool, err := database.NewPool(cfg.GetDBConnString(), dbMaxConns, dbMaxIdle, dbMaxLife)
	if err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	sealer, err := secrets.NewSealer(cfg.TokenSealKey)
	if err != nil {
		slog.Error("Token sealer setup failed", "error", err)
		os.Exit(1)
	}
	if len(cfg.TokenSealKey) == 0 {
		slog.Warn("TOKEN_SEAL_KEY not set, tokens are stored unencrypted")
	}

	teams := postgres.NewSlackTeamRepository(dbPool)
	orgs := postgres.NewSpaceOrgRepository(dbPool)
	links := postgres.NewChannelLinkRepository(dbPool)
	refs := postgres.NewMessageRefRepository(dbPool)
	directory := syncpkg.NewDirectoryCache(postgres.NewChannelDirectoryRepository(dbPool))

	locks := concurrency.NewLockManager()
	engine := syncpkg.NewEngine(
		teams, orgs, links, refs, directory, sealer,
		syncpkg.DefaultSlackClientFactory(teams, sealer, locks, cfg.SlackClientID, cfg.SlackClientSecret),
		syncpkg.DefaultSpaceClientFactory(sealer),
	)

	pool := worker.NewPool(worker.PoolSize(cfg.WorkerCeiling), cfg.WorkerQueue)
	pool.Start()

	srv := server.NewServer(cfg.Port, cfg.APIKey, cfg.TrustedProxies, dbPool, server.Deps{
		SlackWebhook: handler.NewSlackWebhook(cfg.SlackSigningSecret, slack.NewClassifier(cfg.SlackAppID), engine, pool),
		SpaceWebhook: handler.NewSpaceWebhook(cfg.SpaceSigningKey, engine, pool),
		Admin:        handler.NewAdminHandlers(links, teams, directory, syncpkg.DefaultSlackClientFactory(teams, sealer, locks, cfg.SlackClientID, cfg.SlackClientSecret)),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		slog.Info("Shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		slog.Error("Server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Stop accepting requests first, then drain queued sync jobs.
	if err := srv.Stop(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	pool.Stop()

	slog.Info("Shutdown complete")
}
