package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"bookstore/backend/internal/db"
	"bookstore/backend/internal/db/migrate"
	"bookstore/backend/internal/otp/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	if err := migrate.Run(dsn, "up"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func uniquePhone() string {
	return fmt.Sprintf("+8490%07d", rand.IntN(10_000_000))
}

func TestPostgresRepository_RedeemOnceUnderContention(t *testing.T) {
	conn := openTestDB(t)
	repo := NewPostgresRepository(conn)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	phone := uniquePhone()

	c := &domain.OneTimeCode{
		ID: uuid.New().String(), Phone: phone, CodeHash: "h-" + uuid.New().String(),
		ExpiredAt: now.Add(5 * time.Minute), CreatedAt: now,
	}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _, _ = conn.Exec(`DELETE FROM otp_codes WHERE phone = $1`, phone) })

	found, err := repo.FindLatestValid(ctx, phone, c.CodeHash, now)
	if err != nil || found == nil || found.ID != c.ID {
		t.Fatalf("FindLatestValid = %+v, %v", found, err)
	}
	extra := &domain.OneTimeCode{ID: uuid.New().String(), Phone: phone, CodeHash: "x", ExpiredAt: now.Add(time.Minute), CreatedAt: now}
	if stored, err := repo.CreateWithinLimit(ctx, extra, now.Add(-time.Minute), 1); err != nil || stored {
		t.Fatalf("CreateWithinLimit over limit = %v, %v; want false", stored, err)
	}

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.MarkVerified(ctx, c.ID, now)
			if err != nil {
				t.Errorf("MarkVerified: %v", err)
			}
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("wins = %d, want 1", wins.Load())
	}
	if found, _ := repo.FindLatestValid(ctx, phone, c.CodeHash, now); found != nil {
		t.Error("verified code should no longer be found")
	}
}

func TestPostgresRepository_CreateWithinLimitUnderContention(t *testing.T) {
	conn := openTestDB(t)
	repo := NewPostgresRepository(conn)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	phone := uniquePhone()
	t.Cleanup(func() { _, _ = conn.Exec(`DELETE FROM otp_codes WHERE phone = $1`, phone) })

	var stored atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := &domain.OneTimeCode{
				ID: uuid.New().String(), Phone: phone, CodeHash: "h-" + uuid.New().String(),
				ExpiredAt: now.Add(5 * time.Minute), CreatedAt: now,
			}
			ok, err := repo.CreateWithinLimit(ctx, c, now.Add(-time.Minute), 2)
			if err != nil {
				t.Errorf("CreateWithinLimit: %v", err)
			}
			if ok {
				stored.Add(1)
			}
		}()
	}
	wg.Wait()
	if stored.Load() != 2 {
		t.Fatalf("stored = %d, want 2", stored.Load())
	}
	var rows int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM otp_codes WHERE phone = $1`, phone).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 2 {
		t.Errorf("rows = %d, want 2", rows)
	}
}

func TestPostgresRepository_DeleteExpiredBefore(t *testing.T) {
	conn := openTestDB(t)
	repo := NewPostgresRepository(conn)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	phone := uniquePhone()
	t.Cleanup(func() { _, _ = conn.Exec(`DELETE FROM otp_codes WHERE phone = $1`, phone) })

	expired := &domain.OneTimeCode{ID: uuid.New().String(), Phone: phone, CodeHash: "a", ExpiredAt: now.Add(-time.Second), CreatedAt: now.Add(-time.Hour)}
	live := &domain.OneTimeCode{ID: uuid.New().String(), Phone: phone, CodeHash: "b", ExpiredAt: now, CreatedAt: now.Add(-time.Hour)}
	for _, c := range []*domain.OneTimeCode{expired, live} {
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if _, err := repo.DeleteExpiredBefore(ctx, now); err != nil {
		t.Fatalf("DeleteExpiredBefore: %v", err)
	}
	var remaining int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM otp_codes WHERE phone = $1`, phone).Scan(&remaining); err != nil {
		t.Fatal(err)
	}
	if remaining != 1 {
		t.Errorf("remaining = %d, want 1 (expiry instant is kept)", remaining)
	}
}
