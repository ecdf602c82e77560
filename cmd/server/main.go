// Package main implements the entry point for the qforge server, which
// generates exam questions with one language model, reviews them with
// another, and serves the results to human reviewers.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/phrazzld/qforge/internal/config"
	"github.com/phrazzld/qforge/internal/platform/logger"
	"github.com/phrazzld/qforge/internal/platform/postgres"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	migrate := flag.String("migrate", "",
		"run a migration command and exit ("+strings.Join(postgres.MigrationCommands, ", ")+")")
	flag.Parse()

	if err := run(*migrate); err != nil {
		slog.Error("qforge exited with error", "error", err)
		os.Exit(1)
	}
}

// run loads configuration and either executes a migration command or serves
// the API until SIGINT or SIGTERM.
func run(migrateCommand string) error {
	if migrateCommand != "" && !slices.Contains(postgres.MigrationCommands, migrateCommand) {
		return fmt.Errorf("unknown migration command %q", migrateCommand)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"version", version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := setupAppDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}

	if migrateCommand != "" {
		defer db.Close()
		return postgres.Migrate(ctx, db, migrateCommand, log)
	}

	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
