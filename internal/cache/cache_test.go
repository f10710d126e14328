package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := New[string, int](time.Minute)

	c.Set(ctx, "sushiswap", 1, 0)

	got, ok := c.Get(ctx, "sushiswap")
	if !ok || got != 1 {
		t.Fatalf("Get() = %d, %v, want 1, true", got, ok)
	}

	if _, ok := c.Get(ctx, "quickswap"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := New[string, string](time.Minute)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(ctx, "pair", "0xabc", 10*time.Second)
	c.Set(ctx, "forever", "0xdef", -1)

	now = now.Add(11 * time.Second)

	if _, ok := c.Get(ctx, "pair"); ok {
		t.Error("expected entry to expire")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after expired entry is evicted", c.Len())
	}
	if v, ok := c.Get(ctx, "forever"); !ok || v != "0xdef" {
		t.Errorf("non-expiring entry = %q, %v", v, ok)
	}
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c, err := NewWithSize[int, int](2, time.Minute)
	if err != nil {
		t.Fatalf("NewWithSize() error = %v", err)
	}

	c.Set(ctx, 1, 1, 0)
	c.Set(ctx, 2, 2, 0)
	c.Get(ctx, 1)
	c.Set(ctx, 3, 3, 0)

	if _, ok := c.Get(ctx, 2); ok {
		t.Error("key 2 should have been evicted")
	}
	if _, ok := c.Get(ctx, 1); !ok {
		t.Error("key 1 should survive")
	}
}

func TestCache_DeleteAndClose(t *testing.T) {
	ctx := context.Background()
	c := New[string, int](time.Minute)
	c.Set(ctx, "a", 1, 0)
	c.Set(ctx, "b", 2, 0)

	c.Delete(ctx, "a")
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("deleted key still present")
	}

	c.Close()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Close", c.Len())
	}
}

func TestNewWithSize_RejectsNonPositive(t *testing.T) {
	if _, err := NewWithSize[string, int](0, time.Minute); err == nil {
		t.Error("expected error for zero size")
	}
}
