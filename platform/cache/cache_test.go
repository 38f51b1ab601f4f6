package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemory_SetGetExpiry(t *testing.T) {
	m := NewMemory()
	now := time.Now()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	if err := m.Set(ctx, Key("price", "SP-001", "Shop"), []byte("90000"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	value, ok, err := m.Get(ctx, "price:SP-001:Shop")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(value) != "90000" {
		t.Fatalf("expected 90000, got %s", value)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := m.Get(ctx, "price:SP-001:Shop"); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestMemory_InvalidatePattern(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_ = m.Set(ctx, "price:SP-001:Shop", []byte("a"), time.Minute)
	_ = m.Set(ctx, "price:SP-001:Đại lý", []byte("b"), time.Minute)
	_ = m.Set(ctx, "price:SP-002:Shop", []byte("c"), time.Minute)

	if err := m.InvalidatePattern(ctx, "price:SP-001:*"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	if _, ok, _ := m.Get(ctx, "price:SP-001:Shop"); ok {
		t.Fatal("expected SP-001 entries invalidated")
	}
	if _, ok, _ := m.Get(ctx, "price:SP-002:Shop"); !ok {
		t.Fatal("expected SP-002 entry untouched")
	}
}

func TestRedis_RoundTrip(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	c := NewRedisWithClient(client)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, "promos:ORD-1", []byte(`["KM01"]`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := c.Get(ctx, "promos:ORD-1")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(value) != `["KM01"]` {
		t.Fatalf("unexpected value %s", value)
	}

	srv.FastForward(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, "promos:ORD-1"); ok {
		t.Fatal("expected TTL expiry")
	}
}

func TestRedis_InvalidatePattern(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	c := NewRedisWithClient(client)
	ctx := context.Background()

	_ = c.Set(ctx, "price:SP-001:Shop", []byte("a"), time.Minute)
	_ = c.Set(ctx, "price:SP-002:Shop", []byte("b"), time.Minute)

	if err := c.InvalidatePattern(ctx, "price:SP-001:*"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "price:SP-001:Shop"); ok {
		t.Fatal("expected key deleted")
	}
	if _, ok, _ := c.Get(ctx, "price:SP-002:Shop"); !ok {
		t.Fatal("expected other key kept")
	}
}
