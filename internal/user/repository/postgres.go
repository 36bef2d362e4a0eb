package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bookstore/backend/internal/db"
	"bookstore/backend/internal/user/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

const userColumns = `id, email, phone, full_name, role, status, email_verified, created_at, updated_at`

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail returns the user with the given email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// Create persists the user. The user must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, db.NullString(u.Email), db.NullString(u.Phone), db.NullString(u.FullName),
		string(u.Role), string(u.Status), u.EmailVerified, u.CreatedAt, u.UpdatedAt,
	)
	if db.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

// SetPhone sets phone only when the user has none. Returns nil if no row was updated.
func (r *PostgresRepository) SetPhone(ctx context.Context, userID, phone string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET phone = $2, updated_at = $3 WHERE id = $1 AND phone IS NULL`,
		userID, phone, time.Now().UTC(),
	)
	return err
}

// Delete removes the user and, through the foreign key, its credentials. Missing rows are not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u                  domain.User
		email, phone, name sql.NullString
		role, status       string
	)
	err := row.Scan(&u.ID, &email, &phone, &name, &role, &status, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Email = email.String
	u.Phone = phone.String
	u.FullName = name.String
	u.Role = domain.Role(role)
	u.Status = domain.UserStatus(status)
	return &u, nil
}
