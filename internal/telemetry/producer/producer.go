// Package producer publishes auth events to a message broker.
package producer

import (
	"context"

	"bookstore/backend/internal/telemetry"
)

// Producer emits auth events. Callers use it best-effort: log and ignore errors.
type Producer interface {
	// Emit sends a single event. Implementations may block briefly.
	Emit(ctx context.Context, event *telemetry.Event) error
	// Close releases resources. Safe to call if already closed.
	Close() error
}
