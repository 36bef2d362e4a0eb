package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type mockPinger struct {
	pingErr atomic.Value
}

func (m *mockPinger) PingContext(context.Context) error {
	if err, ok := m.pingErr.Load().(error); ok {
		return err
	}
	return nil
}

type mockPolicyChecker struct {
	healthErr error
}

func (m *mockPolicyChecker) HealthCheck(context.Context) error {
	return m.healthErr
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	if err := NewChecker(nil, nil).Check(ctx); err != nil {
		t.Fatalf("nil deps: %v", err)
	}
	if err := NewChecker(&mockPinger{}, &mockPolicyChecker{}).Check(ctx); err != nil {
		t.Fatalf("healthy deps: %v", err)
	}
	p := &mockPinger{}
	p.pingErr.Store(errors.New("connection refused"))
	if err := NewChecker(p, nil).Check(ctx); err == nil {
		t.Fatal("ping failure should fail the check")
	}
	if err := NewChecker(nil, &mockPolicyChecker{healthErr: errors.New("compile")}).Check(ctx); err == nil {
		t.Fatal("policy failure should fail the check")
	}
}

func TestHTTPHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := &mockPinger{}
	r := gin.New()
	r.GET("/healthz", Liveness)
	r.GET("/readyz", NewChecker(p, nil).Readiness())

	get := func(path string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Code
	}
	if got := get("/readyz"); got != http.StatusOK {
		t.Errorf("readyz = %d, want 200", got)
	}
	p.pingErr.Store(errors.New("down"))
	if got := get("/readyz"); got != http.StatusServiceUnavailable {
		t.Errorf("readyz = %d, want 503", got)
	}
	if got := get("/healthz"); got != http.StatusOK {
		t.Errorf("healthz = %d, want 200 regardless of dependencies", got)
	}
}

func TestSync(t *testing.T) {
	p := &mockPinger{}
	hs := NewGRPCServer()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewChecker(p, nil).Sync(ctx, hs, 10*time.Millisecond, nil)
		close(done)
	}()

	waitFor := func(want healthpb.HealthCheckResponse_ServingStatus) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			resp, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
			if err == nil && resp.GetStatus() == want {
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
		t.Fatalf("status never became %v", want)
	}

	waitFor(healthpb.HealthCheckResponse_SERVING)
	p.pingErr.Store(errors.New("down"))
	waitFor(healthpb.HealthCheckResponse_NOT_SERVING)

	cancel()
	<-done
}
