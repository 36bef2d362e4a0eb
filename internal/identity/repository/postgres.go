package repository

import (
	"context"
	"database/sql"
	"errors"

	"bookstore/backend/internal/db"
	"bookstore/backend/internal/identity/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a credential repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

const credentialColumns = `id, user_id, provider, provider_user_id, password_hash, created_at`

// GetByProvider returns the credential for the external identity, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByProvider(ctx context.Context, provider domain.Provider, providerUserID string) (*domain.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE provider = $1 AND provider_user_id = $2`,
		string(provider), providerUserID)
	return scanCredential(row)
}

// GetByUserAndProvider returns the user's credential for provider, or nil if not found.
func (r *PostgresRepository) GetByUserAndProvider(ctx context.Context, userID string, provider domain.Provider) (*domain.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE user_id = $1 AND provider = $2`,
		userID, string(provider))
	return scanCredential(row)
}

// ExistsByProvider reports whether the external identity is bound to any user.
func (r *PostgresRepository) ExistsByProvider(ctx context.Context, provider domain.Provider, providerUserID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM credentials WHERE provider = $1 AND provider_user_id = $2)`,
		string(provider), providerUserID).Scan(&exists)
	return exists, err
}

// ListByUser returns the user's credentials ordered by creation time.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Credential, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE user_id = $1 ORDER BY created_at, provider`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create persists the credential. The credential must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Credential) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credentials (`+credentialColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.UserID, string(c.Provider), c.ProviderUserID, db.NullString(c.PasswordHash), c.CreatedAt,
	)
	if db.IsUniqueViolation(err) {
		return ErrCredentialExists
	}
	return err
}

// UpdatePasswordHash updates the password hash for the credential with the given id.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE credentials SET password_hash = $2 WHERE id = $1`, id, db.NullString(passwordHash))
	return err
}

// DeleteByUserAndProvider removes the user's credential for provider.
func (r *PostgresRepository) DeleteByUserAndProvider(ctx context.Context, userID string, provider domain.Provider) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE user_id = $1 AND provider = $2`, userID, string(provider))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(s scanner) (*domain.Credential, error) {
	var (
		c        domain.Credential
		provider string
		hash     sql.NullString
	)
	err := s.Scan(&c.ID, &c.UserID, &provider, &c.ProviderUserID, &hash, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.Provider = domain.Provider(provider)
	c.PasswordHash = hash.String
	return &c, nil
}
