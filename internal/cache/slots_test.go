package cache

import (
	"context"
	"testing"
	"time"
)

// The core must run without Redis: every method on a nil cache is a no-op.
func TestNilSlotCacheNoOps(t *testing.T) {
	ctx := context.Background()
	c := New("")
	if c != nil {
		t.Fatalf("New(\"\") = %v, want nil", c)
	}

	if got, ok := c.Get(ctx, 1, 2, "2025-03-10", 30); ok || got != nil {
		t.Fatalf("Get on nil cache = %v, %v", got, ok)
	}

	c.Set(ctx, 1, 2, "2025-03-10", 30, []time.Time{time.Now()})
	c.Invalidate(ctx, 1, "2025-03-10")
	c.InvalidateAll(ctx, 1)
}

func TestNewRejectsBadURL(t *testing.T) {
	if c := New("not-a-redis-url"); c != nil {
		t.Fatalf("New with bad URL = %v, want nil", c)
	}
}
