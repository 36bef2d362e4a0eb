package repository

import (
	"context"
	"time"

	"bookstore/backend/internal/otp/domain"
)

// Repository defines persistence for one-time codes. Lookups return nil, nil when no row matches.
type Repository interface {
	// CreateWithinLimit persists c only if fewer than limit codes for c.Phone were created strictly
	// after since. Count and insert are atomic per phone. It reports whether c was stored.
	CreateWithinLimit(ctx context.Context, c *domain.OneTimeCode, since time.Time, limit int) (bool, error)
	// FindLatestValid returns the most recent unverified code for (phone, codeHash) whose expiry is not before now.
	FindLatestValid(ctx context.Context, phone, codeHash string, now time.Time) (*domain.OneTimeCode, error)
	// MarkVerified flips verified on id if it is still unverified and unexpired at now.
	// It reports whether this call won the redemption.
	MarkVerified(ctx context.Context, id string, now time.Time) (bool, error)
	// DeleteExpiredBefore removes every code with expiry before now and returns the count.
	DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error)
}
