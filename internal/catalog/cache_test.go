package catalog

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryCacheSetGet(t *testing.T) {
	cache := NewInMemoryCache()
	ctx := context.Background()

	if err := cache.Set(ctx, "key", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	got, err := cache.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(got) != "value" {
		t.Errorf("Expected 'value', got %q", got)
	}
}

func TestInMemoryCacheMiss(t *testing.T) {
	cache := NewInMemoryCache()

	if _, err := cache.Get(context.Background(), "missing"); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestInMemoryCacheExpiry(t *testing.T) {
	cache := NewInMemoryCache()
	ctx := context.Background()

	if err := cache.Set(ctx, "key", []byte("value"), -time.Second); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if _, err := cache.Get(ctx, "key"); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss for expired entry, got %v", err)
	}
}

func TestInMemoryCacheDelete(t *testing.T) {
	cache := NewInMemoryCache()
	ctx := context.Background()

	if err := cache.Set(ctx, "a", []byte("1"), time.Minute); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := cache.Set(ctx, "b", []byte("2"), time.Minute); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	if err := cache.Delete(ctx, "a", "b"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := cache.Get(ctx, "a"); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after delete, got %v", err)
	}
	if _, err := cache.Get(ctx, "b"); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after delete, got %v", err)
	}
}
