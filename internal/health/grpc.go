package health

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the service reported by the gRPC health server in addition to "".
const ServiceName = "bookstore.auth"

// NewGRPCServer returns a standard gRPC health server that starts NOT_SERVING.
func NewGRPCServer() *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return hs
}

// Sync runs c.Check every interval and mirrors the result into hs until ctx is done.
// On return every service is marked NOT_SERVING.
func (c *Checker) Sync(ctx context.Context, hs *health.Server, interval time.Duration, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	last := healthpb.HealthCheckResponse_UNKNOWN
	update := func() {
		status := healthpb.HealthCheckResponse_SERVING
		if err := c.Check(ctx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			if last != status {
				logger.Warn("health: not serving", zap.Error(err))
			}
		}
		if status != last {
			hs.SetServingStatus("", status)
			hs.SetServingStatus(ServiceName, status)
			last = status
		}
	}

	update()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
			update()
		}
	}
}
