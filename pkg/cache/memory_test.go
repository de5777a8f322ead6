package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	type ranks struct{ RS, AD float64 }
	want := &ranks{RS: 97, AD: 96}
	key := GenerateKeyWithParams("ranks", "AAPL", "2024-03-15")

	if err := mc.Set(ctx, key, want, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var cached interface{}
	if err := mc.Get(ctx, key, &cached); err != nil {
		t.Fatalf("get: %v", err)
	}
	got, ok := cached.(*ranks)
	if !ok || got.RS != 97 || got.AD != 96 {
		t.Fatalf("cached value mangled: %#v", cached)
	}
}

func TestMemoryCacheMissAndExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	var dest interface{}
	if err := mc.Get(ctx, "absent", &dest); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}

	if err := mc.Set(ctx, "short", "v", time.Nanosecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(time.Millisecond)
	if err := mc.Get(ctx, "short", &dest); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expired entry must miss, got %v", err)
	}
}

func TestGenerateKeyWithParams(t *testing.T) {
	if got := GenerateKeyWithParams("ranks", "MSFT", "latest"); got != "ranks:MSFT:latest" {
		t.Fatalf("key = %q", got)
	}
}
