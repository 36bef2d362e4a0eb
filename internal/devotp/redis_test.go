package devotp

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) redis.UniversalClient {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStore_PutGet(t *testing.T) {
	client := newTestRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()
	phone := "+84911222333"
	t.Cleanup(func() { client.Del(context.Background(), redisKeyPrefix+phone) })

	if err := store.Put(ctx, phone, "654321", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	code, ok, err := store.Get(ctx, phone)
	if err != nil || !ok || code != "654321" {
		t.Fatalf("Get = %q, %v, %v", code, ok, err)
	}
	ttl := client.TTL(ctx, redisKeyPrefix+phone).Val()
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("ttl = %v", ttl)
	}
}

func TestRedisStore_ExpiredPutIsSkipped(t *testing.T) {
	client := newTestRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()
	if err := store.Put(ctx, "+84900000001", "111111", time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok, err := store.Get(ctx, "+84900000001"); ok || err != nil {
		t.Errorf("Get ok=%v err=%v; want miss", ok, err)
	}
}

func TestRedisStore_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	store := NewRedisStore(client)
	ctx := context.Background()
	if err := store.Put(ctx, "+84911222333", "123456", time.Now().Add(time.Minute)); err == nil {
		t.Error("Put should fail when redis is unreachable")
	}
	if _, _, err := store.Get(ctx, "+84911222333"); err == nil {
		t.Error("Get should fail when redis is unreachable")
	}
}
