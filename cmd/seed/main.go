// seed creates the admin account from ADMIN_EMAIL and ADMIN_PASSWORD.
// Idempotent: skips when a user with that email already exists.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookstore/backend/internal/config"
	"bookstore/backend/internal/db"
	identitydomain "bookstore/backend/internal/identity/domain"
	credrepo "bookstore/backend/internal/identity/repository"
	"bookstore/backend/internal/logging"
	"bookstore/backend/internal/security"
	userdomain "bookstore/backend/internal/user/domain"
	userrepo "bookstore/backend/internal/user/repository"
)

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

type credentialStore interface {
	Create(ctx context.Context, c *identitydomain.Credential) error
}

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
		logger.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, err := seedAdmin(ctx,
		userrepo.NewPostgresRepository(conn),
		credrepo.NewPostgresRepository(conn),
		security.NewHasher(cfg.BcryptCost),
		cfg.AdminEmail, cfg.AdminPassword,
	)
	if err != nil {
		logger.Fatal("seed admin", zap.Error(err))
	}
	if !created {
		logger.Info("seed already applied, admin exists; skipping", zap.String("email", cfg.AdminEmail))
		return
	}
	logger.Info("admin account created", zap.String("email", cfg.AdminEmail))
}

// seedAdmin creates an active admin user with a local credential. It reports false when the email is taken.
func seedAdmin(ctx context.Context, users userStore, creds credentialStore, hasher *security.Hasher, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}
	existing, err := users.GetByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	if existing != nil {
		return false, nil
	}

	hash, err := hasher.Hash([]byte(password))
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:        uuid.New().String(),
		Email:     email,
		FullName:  "Administrator",
		Role:      userdomain.RoleAdmin,
		Status:    userdomain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrEmailTaken) {
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}
	cred := &identitydomain.Credential{
		ID:             uuid.New().String(),
		UserID:         user.ID,
		Provider:       identitydomain.ProviderLocal,
		ProviderUserID: email,
		PasswordHash:   hash,
		CreatedAt:      now,
	}
	if err := creds.Create(ctx, cred); err != nil {
		return false, fmt.Errorf("create admin credential: %w", err)
	}
	return true, nil
}
