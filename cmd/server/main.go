// Package main is the entry point of the task manager API server. It loads
// configuration, sets up logging and tracing, connects the storage backend
// and serves the HTTP API until it receives SIGINT or SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dcmc-apps/taskmanager/internal/config"
	"github.com/dcmc-apps/taskmanager/internal/platform/logger"
	"github.com/dcmc-apps/taskmanager/internal/platform/postgres"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status, reset, version) and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *migrateCmd != "" {
		if err := runMigrations(ctx, cfg, *migrateCmd, l); err != nil {
			l.Error("migration failed", "error", err)
			os.Exit(1)
		}
		return
	}

	l.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("storage", cfg.Storage.Driver),
		slog.Bool("cache", cfg.Cache.RedisURL != ""),
		slog.Bool("tracing", cfg.Tracing.Enabled))

	app, err := newApplication(ctx, cfg, l)
	if err != nil {
		l.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	if err := app.Run(ctx); err != nil {
		l.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

// runMigrations applies a goose command against the configured database.
func runMigrations(ctx context.Context, cfg *config.Config, command string, l *slog.Logger) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url is required to run migrations")
	}
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			l.Error("failed to close database", "error", err)
		}
	}()
	return postgres.Migrate(ctx, db, command, l)
}
