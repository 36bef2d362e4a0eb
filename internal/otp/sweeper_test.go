package otp

import (
	"context"
	"testing"
	"time"

	"bookstore/backend/internal/otp/domain"
)

func TestRunSweeper_SweepsOnStartAndStops(t *testing.T) {
	svc, repo, clock := newTestService(t, Config{})
	now := clock.Now()
	_ = repo.Create(context.Background(), &domain.OneTimeCode{ID: "old", Phone: testPhone, ExpiredAt: now.Add(-time.Minute)})
	_ = repo.Create(context.Background(), &domain.OneTimeCode{ID: "live", Phone: testPhone, ExpiredAt: now.Add(time.Minute)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunSweeper(ctx, svc, time.Hour, nil)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		if ids := repo.ids(); len(ids) == 1 && ids[0] == "live" {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("initial sweep did not run; remaining = %v", repo.ids())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunSweeper did not return after cancel")
	}
}
