package audit

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"bookstore/backend/internal/audit/domain"
)

// mockAuditRepo implements the audit repository for tests.
type mockAuditRepo struct {
	entries   []*domain.AuditLog
	createErr error
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.AuditLog, error) {
	return m.entries, nil
}

func TestLogger_LogEvent_Success(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo, nil)
	ctx := WithClientIP(context.Background(), "192.168.1.1")

	logger.LogEvent(ctx, "user-1", "login", "session", `{"provider":"local"}`)

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.UserID != "user-1" || entry.Action != "login" || entry.Resource != "session" {
		t.Errorf("entry = %+v", entry)
	}
	if entry.IP != "192.168.1.1" {
		t.Errorf("ip = %q, want %q", entry.IP, "192.168.1.1")
	}
	if entry.Metadata != `{"provider":"local"}` {
		t.Errorf("metadata = %q", entry.Metadata)
	}
	if entry.ID == "" || entry.CreatedAt.IsZero() {
		t.Error("ID and CreatedAt should be set")
	}
}

func TestLogger_LogEvent_UnknownIP(t *testing.T) {
	repo := &mockAuditRepo{}
	NewLogger(repo, nil).LogEvent(context.Background(), "", "login_failure", "session", "")
	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	if repo.entries[0].IP != "unknown" {
		t.Errorf("ip = %q, want unknown", repo.entries[0].IP)
	}
	if repo.entries[0].UserID != "" {
		t.Errorf("user_id = %q, want empty", repo.entries[0].UserID)
	}
}

func TestLogger_LogEvent_RepositoryErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	repo := &mockAuditRepo{createErr: errors.New("database error")}
	NewLogger(repo, zap.New(core)).LogEvent(context.Background(), "user-1", "login", "session", "")
	if logs.Len() != 1 {
		t.Fatalf("warn logs = %d, want 1", logs.Len())
	}
	if logs.All()[0].ContextMap()["action"] != "login" {
		t.Errorf("log context = %v", logs.All()[0].ContextMap())
	}
}

func TestLogger_LogEvent_NilRepo(t *testing.T) {
	NewLogger(nil, nil).LogEvent(context.Background(), "user-1", "action", "resource", "")
	var l *Logger
	l.LogEvent(context.Background(), "user-1", "action", "resource", "")
}

func TestClientIP(t *testing.T) {
	if got := ClientIP(context.Background()); got != "unknown" {
		t.Errorf("ClientIP = %q", got)
	}
	if got := ClientIP(WithClientIP(context.Background(), "")); got != "unknown" {
		t.Errorf("empty ClientIP = %q", got)
	}
	if got := ClientIP(WithClientIP(context.Background(), "10.0.0.1")); got != "10.0.0.1" {
		t.Errorf("ClientIP = %q", got)
	}
}
