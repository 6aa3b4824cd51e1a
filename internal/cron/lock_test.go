package cron

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

func newLockStore(t *testing.T) (*miniredis.Miniredis, *pkgredis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return srv, pkgredis.NewWithClient(raw)
}

func TestRedisLockIsExclusive(t *testing.T) {
	srv, store := newLockStore(t)
	ctx := context.Background()

	first, err := NewRedisLock(store, "sf:cron-worker:lock:test", time.Minute)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	second, _ := NewRedisLock(store, "sf:cron-worker:lock:test", time.Minute)

	if ok, err := first.Acquire(ctx); err != nil || !ok {
		t.Fatalf("expected first acquire, ok=%v err=%v", ok, err)
	}
	if ok, err := second.Acquire(ctx); err != nil || ok {
		t.Fatalf("expected second acquire to fail, ok=%v err=%v", ok, err)
	}
	if srv.TTL("sf:cron-worker:lock:test") != time.Minute {
		t.Fatalf("unexpected ttl %v", srv.TTL("sf:cron-worker:lock:test"))
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("release by non-owner: %v", err)
	}
	if !srv.Exists("sf:cron-worker:lock:test") {
		t.Fatal("non-owner release must not delete the lock")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if srv.Exists("sf:cron-worker:lock:test") {
		t.Fatal("expected lock to be deleted")
	}
}

func TestRedisLockLeavesTakenOverKey(t *testing.T) {
	srv, store := newLockStore(t)
	ctx := context.Background()

	lock, _ := NewRedisLock(store, "sf:cron-worker:lock:test", time.Minute)
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire")
	}
	srv.FastForward(2 * time.Minute)
	other, _ := NewRedisLock(store, "sf:cron-worker:lock:test", time.Minute)
	if ok, _ := other.Acquire(ctx); !ok {
		t.Fatal("expected expired lock to be re-acquired")
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if !srv.Exists("sf:cron-worker:lock:test") {
		t.Fatal("stale owner must not delete the new holder's lock")
	}
}

func TestNewRedisLockValidates(t *testing.T) {
	if _, err := NewRedisLock(nil, "k", 0); err == nil {
		t.Fatal("expected error without store")
	}
	_, store := newLockStore(t)
	if _, err := NewRedisLock(store, "", 0); err == nil {
		t.Fatal("expected error without key")
	}
}
