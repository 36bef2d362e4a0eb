// migrate applies the embedded schema migrations: go run ./cmd/migrate -direction up.
package main

import (
	"flag"
	"fmt"
	"os"

	"bookstore/backend/internal/config"
	"bookstore/backend/internal/db/migrate"
	"bookstore/backend/internal/logging"

	"go.uber.org/zap"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	steps := flag.Int("steps", 0, "Number of migrations to apply; 0 applies all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	dir, err := migrate.ParseDirection(*direction)
	if err != nil {
		logger.Fatal("invalid direction", zap.Error(err))
	}
	m, err := migrate.New(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("open migrator", zap.Error(err))
	}
	defer func() { _ = m.Close() }()

	if err := m.Apply(dir, *steps); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	version, dirty, ok, err := m.Version()
	if err != nil {
		logger.Fatal("read version", zap.Error(err))
	}
	if !ok {
		logger.Info("no migrations applied")
		return
	}
	logger.Info("schema at version", zap.Uint("version", version), zap.Bool("dirty", dirty))
}
