// Worker periodically deletes expired OTP codes.
// Set DATABASE_URL; OTP_SWEEP_INTERVAL controls the period (default 10m).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"bookstore/backend/internal/config"
	"bookstore/backend/internal/db"
	"bookstore/backend/internal/logging"
	"bookstore/backend/internal/otp"
	otprepo "bookstore/backend/internal/otp/repository"
)

func main() {
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

	if cfg.DatabaseURL == "" {
		logger.Fatal("worker: DATABASE_URL is required")
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("worker: connect database", zap.Error(err))
	}
	defer conn.Close()

	svc := otp.NewService(otprepo.NewPostgresRepository(conn), nil, otp.Config{
		TTL:          cfg.OTPCodeTTL(),
		RateWindow:   cfg.OTPWindow(),
		RateLimitMax: cfg.OTPRateLimitMax,
	}, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("worker: sweeping expired otp codes", zap.Duration("interval", cfg.SweepInterval()))
	otp.RunSweeper(ctx, svc, cfg.SweepInterval(), logger)
	logger.Info("worker: stopped")
}
