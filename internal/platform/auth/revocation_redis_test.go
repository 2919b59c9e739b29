package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*RedisRevocationStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisRevocationStore(client), mr
}

func TestRedisRevocation_RevokeAndCheck(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	if err := store.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if !mr.Exists("revoked:jti-1") {
		t.Fatal("expected revoked:jti-1 key in redis")
	}
	if ttl := mr.TTL("revoked:jti-1"); ttl <= 0 || ttl > time.Hour {
		t.Errorf("expected ttl within one hour, got %s", ttl)
	}

	revoked, err := store.IsRevoked(ctx, "jti-1")
	if err != nil || !revoked {
		t.Errorf("expected revoked, got %v (err %v)", revoked, err)
	}
}

func TestRedisRevocation_ExpiresWithToken(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	store.Revoke(ctx, "jti-2", time.Now().Add(time.Minute))
	mr.FastForward(2 * time.Minute)

	revoked, err := store.IsRevoked(ctx, "jti-2")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if revoked {
		t.Error("expected entry to expire with the token")
	}
}

func TestRedisRevocation_AlreadyExpiredIsNoop(t *testing.T) {
	store, mr := newTestRedisStore(t)

	if err := store.Revoke(context.Background(), "old", time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if mr.Exists("revoked:old") {
		t.Error("expected no key for an already expired token")
	}
}

func TestRedisRevocation_ServerDown(t *testing.T) {
	store, mr := newTestRedisStore(t)
	mr.Close()

	if _, err := store.IsRevoked(context.Background(), "jti"); err == nil {
		t.Error("expected error when redis is unreachable")
	}
	if err := store.Ping(context.Background()); err == nil {
		t.Error("expected ping error when redis is unreachable")
	}
}

func TestNewRedisClient_BadURL(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), "not-a-url"); err == nil {
		t.Error("expected error for invalid redis url")
	}
}
