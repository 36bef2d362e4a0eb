package otp

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunSweeper deletes expired codes once immediately and then every interval until ctx is done.
// A failed sweep is logged and retried on the next tick.
func RunSweeper(ctx context.Context, s *Service, interval time.Duration, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	sweep := func() {
		n, err := s.SweepExpired(ctx, s.Now())
		if err != nil {
			if ctx.Err() == nil {
				logger.Error("otp sweep failed", zap.Error(err))
			}
			return
		}
		logger.Debug("otp sweep done", zap.Int64("deleted", n))
	}

	sweep()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
