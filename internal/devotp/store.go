// Package devotp keeps the latest plaintext OTP per phone for dev-only retrieval (GET /dev/otp).
// It is wired only when OTP_RETURN_TO_CLIENT is enabled outside production.
package devotp

import (
	"context"
	"sync"
	"time"
)

// Store holds the most recent plain OTP per phone. Not used in production.
type Store interface {
	// Put stores code for phone until expiresAt, replacing any earlier code.
	Put(ctx context.Context, phone, code string, expiresAt time.Time) error
	// Get returns the code for phone if present and not expired.
	Get(ctx context.Context, phone string) (code string, ok bool, err error)
}

type entry struct {
	code      string
	expiresAt time.Time
}

// MemoryStore is an in-process Store. Codes are not shared across replicas.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[string]entry
	nowF func() time.Time
}

// NewMemoryStore returns a new in-memory dev OTP store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[string]entry),
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// Put stores code for phone until expiresAt.
func (s *MemoryStore) Put(ctx context.Context, phone, code string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[phone] = entry{code: code, expiresAt: expiresAt}
	return nil
}

// Get returns the code for phone if present and not expired. Expired entries are dropped.
func (s *MemoryStore) Get(ctx context.Context, phone string) (string, bool, error) {
	s.mu.RLock()
	e, ok := s.m[phone]
	s.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if s.nowF().After(e.expiresAt) {
		s.mu.Lock()
		if cur, ok := s.m[phone]; ok && cur == e {
			delete(s.m, phone)
		}
		s.mu.Unlock()
		return "", false, nil
	}
	return e.code, true, nil
}
