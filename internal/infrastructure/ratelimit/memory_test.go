package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

const window = 15 * time.Minute

func TestMemoryStore_TouchCreatesFreshRecord(t *testing.T) {
	s := NewMemoryStore(10)
	now := time.Now()

	count, err := s.Touch(context.Background(), "10.0.0.1", now, window)
	if err != nil {
		t.Fatalf("touch: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 for fresh identity, got %d", count)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", s.Len())
	}
}

func TestMemoryStore_IncrementAndReset(t *testing.T) {
	s := NewMemoryStore(10)
	ctx := context.Background()
	now := time.Now()

	for i := 1; i <= 3; i++ {
		got, _ := s.Increment(ctx, "ip", now, window)
		if got != i {
			t.Fatalf("increment %d returned %d", i, got)
		}
	}
	if got, _ := s.Touch(ctx, "ip", now, window); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}

	_ = s.Reset(ctx, "ip")
	if got, _ := s.Touch(ctx, "ip", now, window); got != 0 {
		t.Fatalf("expected 0 after reset, got %d", got)
	}
}

func TestMemoryStore_ExpiresAfterWindow(t *testing.T) {
	s := NewMemoryStore(10)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 5; i++ {
		_, _ = s.Increment(ctx, "ip", now, window)
	}
	if got, _ := s.Touch(ctx, "ip", now.Add(window-time.Second), window); got != 5 {
		t.Fatalf("expected 5 inside window, got %d", got)
	}
	// The touch above moved the last attempt forward.
	later := now.Add(window - time.Second).Add(window)
	if got, _ := s.Touch(ctx, "ip", later, window); got != 0 {
		t.Fatalf("expected reset after window, got %d", got)
	}
}

func TestMemoryStore_EvictsStaleThenOldest(t *testing.T) {
	s := NewMemoryStore(3)
	ctx := context.Background()
	base := time.Now()

	_, _ = s.Touch(ctx, "stale", base, window)
	_, _ = s.Touch(ctx, "b", base.Add(window), window)
	_, _ = s.Touch(ctx, "c", base.Add(window+time.Second), window)

	// Full: "stale" is idle for a whole window and goes first.
	_, _ = s.Touch(ctx, "d", base.Add(window+2*time.Second), window)
	if s.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", s.Len())
	}
	if s.records.Contains("stale") {
		t.Fatal("stale identity should have been swept")
	}

	// Nothing is stale now, so the least recently seen ("b") is evicted.
	_, _ = s.Touch(ctx, "e", base.Add(window+3*time.Second), window)
	if s.records.Contains("b") {
		t.Fatal("oldest identity should have been evicted")
	}
	if s.Len() != 3 {
		t.Fatalf("expected bound of 3, got %d", s.Len())
	}
}

func TestMemoryStore_ConcurrentFailuresAllCounted(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Increment(ctx, "shared", now, window)
		}()
	}
	wg.Wait()

	if got, _ := s.Touch(ctx, "shared", now, window); got != 50 {
		t.Fatalf("expected 50 counted failures, got %d", got)
	}
}

func TestMemoryStore_IdentitiesAreIndependent(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 4; i++ {
		_, _ = s.Increment(ctx, fmt.Sprintf("ip-%d", i%2), now, window)
	}
	for _, id := range []string{"ip-0", "ip-1"} {
		if got, _ := s.Touch(ctx, id, now, window); got != 2 {
			t.Fatalf("%s: expected 2, got %d", id, got)
		}
	}
}

func TestMemoryStore_ChurnKeepsActiveIdentity(t *testing.T) {
	s := NewMemoryStore(100)
	ctx := context.Background()
	now := time.Now()

	_, _ = s.Increment(ctx, "active", now, window)
	for i := 0; i < 10_000; i++ {
		now = now.Add(time.Millisecond)
		_, _ = s.Touch(ctx, fmt.Sprintf("flood-%d", i), now, window)
		if i%50 == 0 {
			_, _ = s.Touch(ctx, "active", now, window)
		}
	}

	if s.Len() != 100 {
		t.Fatalf("expected bound of 100, got %d", s.Len())
	}
	if got, _ := s.Touch(ctx, "active", now, window); got != 1 {
		t.Fatalf("recently seen identity lost its counter, got %d", got)
	}
}
