package main

import (
	"log/slog"
	"os"

	itemMigrations "github.com/ghuser/supplytrack/migrations/item"
	"github.com/ghuser/supplytrack/pkg/config"
	"github.com/ghuser/supplytrack/pkg/migrator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := migrator.RunMigrations(cfg.DatabaseURL, itemMigrations.FS); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied")
}
