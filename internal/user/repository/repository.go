package repository

import (
	"context"
	"errors"

	"bookstore/backend/internal/user/domain"
)

// ErrEmailTaken is returned by Create when the email unique index rejects the row.
var ErrEmailTaken = errors.New("user: email already exists")

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// SetPhone records the phone on a user that has none yet. No-op if a phone is already set.
	SetPhone(ctx context.Context, userID, phone string) error
	// Delete removes a user. Used to discard an account that lost a credential-binding race.
	Delete(ctx context.Context, id string) error
}
