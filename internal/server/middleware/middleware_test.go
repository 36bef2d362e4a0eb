package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"bookstore/backend/internal/audit"
	"bookstore/backend/internal/autherr"
	"bookstore/backend/internal/policy/engine"
	"bookstore/backend/internal/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestRequireAuth(t *testing.T) {
	tokens, err := security.NewTestTokenProvider()
	require.NoError(t, err)
	expired := tokens.WithClock(func() time.Time { return time.Now().Add(-time.Hour) })

	r := gin.New()
	r.GET("/me", RequireAuth(tokens), func(c *gin.Context) {
		uid, _ := GetUserID(c.Request.Context())
		role, _ := GetRole(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": uid, "role": role})
	})

	good, _, err := tokens.Issue("user-1", "customer")
	require.NoError(t, err)
	stale, _, err := expired.Issue("user-1", "customer")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
		code   autherr.Code
	}{
		{"missing", "", http.StatusUnauthorized, autherr.CodeNoTokenPresent},
		{"basic scheme", "Basic abc", http.StatusUnauthorized, autherr.CodeNoTokenPresent},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized, autherr.CodeInvalidToken},
		{"expired", "Bearer " + stale, http.StatusUnauthorized, autherr.CodeExpiredToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, string(tc.code), decodeError(t, w).Code)
		})
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer "+good)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"user-1","role":"customer"}`, w.Body.String())
}

type stubEvaluator struct {
	allow bool
	err   error
	got   engine.Input
}

func (s *stubEvaluator) Allow(ctx context.Context, in engine.Input) (bool, error) {
	s.got = in
	return s.allow, s.err
}

func withIdentity(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), userID, role))
		c.Next()
	}
}

func TestRequireAction(t *testing.T) {
	cases := []struct {
		name   string
		eval   *stubEvaluator
		status int
	}{
		{"allowed", &stubEvaluator{allow: true}, http.StatusNoContent},
		{"denied", &stubEvaluator{allow: false}, http.StatusForbidden},
		{"error denies", &stubEvaluator{allow: true, err: errors.New("boom")}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/admin/otp/sweep", withIdentity("u1", "admin"), RequireAction(tc.eval, "otp.sweep"), func(c *gin.Context) {
				c.Status(http.StatusNoContent)
			})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/otp/sweep", nil))
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, engine.Input{UserID: "u1", Role: "admin", Action: "otp.sweep"}, tc.eval.got)
		})
	}

	r := gin.New()
	r.POST("/x", RequireAction(&stubEvaluator{allow: true}, "otp.sweep"), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code, "no identity on context")
}

func TestRequireAction_WithOPA(t *testing.T) {
	opa, err := engine.NewOPAEvaluator(context.Background(), "")
	require.NoError(t, err)
	for role, want := range map[string]int{"admin": http.StatusNoContent, "customer": http.StatusForbidden} {
		r := gin.New()
		r.POST("/admin/otp/sweep", withIdentity("u1", role), RequireAction(opa, "otp.sweep"), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/otp/sweep", nil))
		assert.Equal(t, want, w.Code, role)
	}
}

type recordedEvent struct {
	userID, action, resource, metadata, ip string
}

type memAudit struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (m *memAudit) LogEvent(ctx context.Context, userID, action, resource, metadata string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, recordedEvent{userID, action, resource, metadata, audit.ClientIP(ctx)})
}

func TestAudit(t *testing.T) {
	rec := &memAudit{}
	r := gin.New()
	g := r.Group("/auth", ClientIP(), withIdentity("u1", "customer"), Audit(rec))
	g.DELETE("/credentials/:provider", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	g.GET("/credentials", func(c *gin.Context) { c.Status(http.StatusOK) })
	g.PUT("/password", func(c *gin.Context) { AbortWithError(c, autherr.ErrInvalidCredentials) })

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodDelete, "/auth/credentials/google", nil),
		httptest.NewRequest(http.MethodGet, "/auth/credentials", nil),
		httptest.NewRequest(http.MethodPut, "/auth/password", nil),
	} {
		req.RemoteAddr = "203.0.113.7:5555"
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	require.Len(t, rec.events, 1, "only the successful mutation is audited")
	assert.Equal(t, recordedEvent{
		userID:   "u1",
		action:   "unlink",
		resource: "credential",
		metadata: `{"provider":"google"}`,
		ip:       "203.0.113.7",
	}, rec.events[0])
}

func TestRateLimiter(t *testing.T) {
	assert.Nil(t, NewRateLimiter(0))

	rl := NewRateLimiter(10) // burst 1
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(ip string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, do("198.51.100.1").Code)
	w := do("198.51.100.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, string(autherr.CodeRateLimitExceeded), decodeError(t, w).Code)
	assert.Equal(t, http.StatusOK, do("198.51.100.2").Code, "limits are per IP")

	now = now.Add(6 * time.Second)
	assert.Equal(t, http.StatusOK, do("198.51.100.1").Code, "bucket refills")

	var nilLimiter *RateLimiter
	r2 := gin.New()
	r2.Use(nilLimiter.Handler())
	r2.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	w = httptest.NewRecorder()
	r2.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_CleanupIdleClients(t *testing.T) {
	rl := NewRateLimiter(60)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.allow("a")
	now = now.Add(10 * time.Minute)
	rl.allow("b")
	rl.mu.Lock()
	defer rl.mu.Unlock()
	_, stillThere := rl.clients["a"]
	assert.False(t, stillThere)
	assert.Len(t, rl.clients, 1)
}

func TestRequestLoggerAndRecovery(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	r := gin.New()
	r.Use(RequestLogger(logger), Recovery(logger))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-ID", "req-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, string(autherr.CodeInfrastructure), decodeError(t, w).Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
}

func TestAbortWithError_HidesInfraDetail(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		AbortWithError(c, autherr.Infra("get user", errors.New("pq: connection refused to 10.0.0.5")))
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "INFRASTRUCTURE_ERROR", body.Code)
	assert.Equal(t, "internal error", body.Message)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}
