package redis

import (
	"context"
	"testing"
	"time"
)

func TestCacheSetAndGet(t *testing.T) {
	client, mr := newTestRedisClient(t)

	cache := NewCache(client, "")
	ctx := context.Background()

	if err := cache.Set(ctx, "quotes:stocks", []byte(`[{"symbol":"AAPL"}]`), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	val, err := cache.Get(ctx, "quotes:stocks")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if string(val) != `[{"symbol":"AAPL"}]` {
		t.Fatalf("unexpected cached value %s", val)
	}
	if !mr.Exists("cache:quotes:stocks") {
		t.Fatalf("expected key to be stored under the cache prefix")
	}
}

func TestCacheMissIsNotAnError(t *testing.T) {
	client, _ := newTestRedisClient(t)

	val, err := NewCache(client, "").Get(context.Background(), "absent")
	if err != nil || val != nil {
		t.Fatalf("expected nil, nil on miss, got val=%q err=%v", val, err)
	}
}

func TestCacheExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)

	cache := NewCache(client, "")
	ctx := context.Background()

	if err := cache.Set(ctx, "quotes:crypto", []byte("x"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	val, err := cache.Get(ctx, "quotes:crypto")
	if err != nil || val != nil {
		t.Fatalf("expected expired key to miss, got val=%q err=%v", val, err)
	}
}

func TestCacheDelete(t *testing.T) {
	client, _ := newTestRedisClient(t)

	cache := NewCache(client, "")
	ctx := context.Background()

	if err := cache.Set(ctx, "foo", []byte("bar"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if err := cache.Delete(ctx, "foo"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if val, _ := cache.Get(ctx, "foo"); val != nil {
		t.Fatalf("expected deleted key to miss, got %q", val)
	}
}

func TestCacheNamespacesKeys(t *testing.T) {
	client, mr := newTestRedisClient(t)

	market := NewCache(client, "market")
	other := NewCache(client, "fx")
	ctx := context.Background()

	if err := market.Set(ctx, "quotes:stocks", []byte("m"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if !mr.Exists("cache:market:quotes:stocks") {
		t.Fatalf("expected key under the market namespace, have %v", mr.Keys())
	}
	if val, _ := other.Get(ctx, "quotes:stocks"); val != nil {
		t.Fatalf("namespaces must not share keys, got %q", val)
	}
	if mr.TTL("cache:market:quotes:stocks") != 0 {
		t.Fatalf("zero ttl should keep the key without expiry")
	}
}
