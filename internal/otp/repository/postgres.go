package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bookstore/backend/internal/otp/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an OTP repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

const insertCodeSQL = `INSERT INTO otp_codes (id, phone, code_hash, expired_at, verified, created_at) VALUES ($1, $2, $3, $4, $5, $6)`

// Create persists the code hash without a rate check. The code must have ID set; plaintext is never written.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.OneTimeCode) error {
	_, err := r.db.ExecContext(ctx, insertCodeSQL,
		c.ID, c.Phone, c.CodeHash, c.ExpiredAt, c.Verified, c.CreatedAt,
	)
	return err
}

// CreateWithinLimit counts and inserts under a transaction-scoped advisory lock on the phone,
// so concurrent requests for one phone are admitted one at a time.
func (r *PostgresRepository) CreateWithinLimit(ctx context.Context, c *domain.OneTimeCode, since time.Time, limit int) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, c.Phone); err != nil {
		return false, err
	}
	var n int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM otp_codes WHERE phone = $1 AND created_at > $2`, c.Phone, since,
	).Scan(&n); err != nil {
		return false, err
	}
	if n >= limit {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, insertCodeSQL,
		c.ID, c.Phone, c.CodeHash, c.ExpiredAt, c.Verified, c.CreatedAt,
	); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// FindLatestValid returns the newest matching unverified, unexpired code, or nil if none.
func (r *PostgresRepository) FindLatestValid(ctx context.Context, phone, codeHash string, now time.Time) (*domain.OneTimeCode, error) {
	var c domain.OneTimeCode
	err := r.db.QueryRowContext(ctx,
		`SELECT id, phone, code_hash, expired_at, verified, created_at FROM otp_codes
		 WHERE phone = $1 AND code_hash = $2 AND verified = FALSE AND expired_at >= $3
		 ORDER BY created_at DESC LIMIT 1`,
		phone, codeHash, now,
	).Scan(&c.ID, &c.Phone, &c.CodeHash, &c.ExpiredAt, &c.Verified, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// MarkVerified is a single conditional update; concurrent callers for the same id see exactly one true.
func (r *PostgresRepository) MarkVerified(ctx context.Context, id string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE otp_codes SET verified = TRUE WHERE id = $1 AND verified = FALSE AND expired_at >= $2`, id, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteExpiredBefore deletes codes with expired_at < now regardless of verified.
func (r *PostgresRepository) DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE expired_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
