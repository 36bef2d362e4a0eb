package repository

import (
	"context"
	"errors"

	"bookstore/backend/internal/identity/domain"
)

// ErrCredentialExists is returned by Create when either unique key is already taken.
var ErrCredentialExists = errors.New("credential: already exists")

// Repository defines persistence for credentials. Lookups return nil, nil when no row matches.
type Repository interface {
	GetByProvider(ctx context.Context, provider domain.Provider, providerUserID string) (*domain.Credential, error)
	GetByUserAndProvider(ctx context.Context, userID string, provider domain.Provider) (*domain.Credential, error)
	ExistsByProvider(ctx context.Context, provider domain.Provider, providerUserID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Credential, error)
	Create(ctx context.Context, c *domain.Credential) error
	UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error
	// DeleteByUserAndProvider removes the credential and reports whether a row was deleted.
	DeleteByUserAndProvider(ctx context.Context, userID string, provider domain.Provider) (bool, error)
}
