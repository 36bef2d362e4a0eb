package devotp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "devotp:"

// RedisStore shares dev codes across replicas. Entries expire with the code.
type RedisStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore returns a Redis-backed dev OTP store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// Put stores code under the phone key with a TTL matching expiresAt. Already expired codes are skipped.
func (s *RedisStore) Put(ctx context.Context, phone, code string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, redisKeyPrefix+phone, code, ttl).Err(); err != nil {
		return fmt.Errorf("devotp: persist code: %w", err)
	}
	return nil
}

// Get returns the code for phone if the key has not expired.
func (s *RedisStore) Get(ctx context.Context, phone string) (string, bool, error) {
	code, err := s.client.Get(ctx, redisKeyPrefix+phone).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("devotp: load code: %w", err)
	}
	return code, true, nil
}
