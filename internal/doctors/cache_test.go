package doctors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingDirectory struct {
	*StaticDirectory
	listCalls int
	getCalls  int
	err       error
}

func (c *countingDirectory) ListAvailable(ctx context.Context) ([]SafeDoctor, error) {
	c.listCalls++
	if c.err != nil {
		return nil, c.err
	}
	return c.StaticDirectory.ListAvailable(ctx)
}

func (c *countingDirectory) GetSafe(ctx context.Context, id string) (*SafeDoctor, error) {
	c.getCalls++
	return c.StaticDirectory.GetSafe(ctx, id)
}

func TestCachedDirectoryServesFromRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inner := &countingDirectory{StaticDirectory: NewStaticDirectory(Fallback())}
	cache := NewCachedDirectory(inner, client, time.Minute)
	ctx := context.Background()

	first, err := cache.ListAvailable(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	second, err := cache.ListAvailable(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if inner.listCalls != 1 {
		t.Fatalf("expected one backend call, got %d", inner.listCalls)
	}
	if len(first) != 3 || len(second) != 3 || second[0].LastName != "Rodriguez" {
		t.Fatalf("unexpected cached list %#v", second)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := cache.ListAvailable(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if inner.listCalls != 2 {
		t.Fatalf("expected reload after ttl, got %d calls", inner.listCalls)
	}
}

func TestCachedDirectoryInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inner := &countingDirectory{StaticDirectory: NewStaticDirectory(Fallback())}
	cache := NewCachedDirectory(inner, client, time.Minute)
	ctx := context.Background()

	id := Fallback()[2].ID
	if _, err := cache.GetSafe(ctx, id); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := cache.GetSafe(ctx, id); err != nil {
		t.Fatalf("get: %v", err)
	}
	if inner.getCalls != 1 {
		t.Fatalf("expected cached get, got %d calls", inner.getCalls)
	}
	if err := cache.Invalidate(ctx, id); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists(doctorKeyPrefix + id) {
		t.Fatalf("expected key removed")
	}
}

func TestCachedDirectoryWithoutRedis(t *testing.T) {
	inner := &countingDirectory{StaticDirectory: NewStaticDirectory(nil), err: errors.New("db down")}
	cache := NewCachedDirectory(inner, nil, 0)
	if _, err := cache.ListAvailable(context.Background()); err == nil {
		t.Fatalf("expected backend error to surface")
	}
	if err := cache.Invalidate(context.Background()); err != nil {
		t.Fatalf("invalidate without redis: %v", err)
	}
}
