package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vaultguard/credential-vault/internal/core/domain"
)

func newTestGate(clk *clock) *RateGate {
	return NewRateGate(newStubAttemptStore(), RateGateConfig{}, zerolog.Nop()).WithClock(clk.Now)
}

func TestRateGate_BlocksAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	gate := newTestGate(clk)

	for i := 0; i < DefaultMaxAttempts; i++ {
		if err := gate.Allow(ctx, "10.0.0.1"); err != nil {
			t.Fatalf("attempt %d: unexpected block: %v", i+1, err)
		}
		if err := gate.Fail(ctx, "10.0.0.1"); err != nil {
			t.Fatalf("Fail: %v", err)
		}
		clk.Advance(time.Second)
	}

	err := gate.Allow(ctx, "10.0.0.1")
	var rl *domain.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rl.RetryAfter != DefaultBlockWindow {
		t.Fatalf("expected retry after %v, got %v", DefaultBlockWindow, rl.RetryAfter)
	}
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected error to unwrap to ErrRateLimited")
	}
}

func TestRateGate_ReopensAfterWindow(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	gate := newTestGate(clk)

	for i := 0; i < DefaultMaxAttempts; i++ {
		_ = gate.Allow(ctx, "ip")
		_ = gate.Fail(ctx, "ip")
	}
	if err := gate.Allow(ctx, "ip"); err == nil {
		t.Fatalf("expected block")
	}

	clk.Advance(DefaultBlockWindow)
	if err := gate.Allow(ctx, "ip"); err != nil {
		t.Fatalf("expected gate to reopen after window, got %v", err)
	}
}

func TestRateGate_BlockedAttemptsExtendTheBlock(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	gate := newTestGate(clk)

	for i := 0; i < DefaultMaxAttempts; i++ {
		_ = gate.Allow(ctx, "ip")
		_ = gate.Fail(ctx, "ip")
	}

	clk.Advance(DefaultBlockWindow - time.Minute)
	if err := gate.Allow(ctx, "ip"); err == nil {
		t.Fatalf("expected block inside window")
	}

	// The blocked attempt refreshed the last-attempt time.
	clk.Advance(2 * time.Minute)
	if err := gate.Allow(ctx, "ip"); err == nil {
		t.Fatalf("expected block to be extended by the previous attempt")
	}
}

func TestRateGate_SucceedResets(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	gate := newTestGate(clk)

	for i := 0; i < DefaultMaxAttempts-1; i++ {
		_ = gate.Allow(ctx, "ip")
		_ = gate.Fail(ctx, "ip")
	}
	if err := gate.Succeed(ctx, "ip"); err != nil {
		t.Fatalf("Succeed: %v", err)
	}
	for i := 0; i < DefaultMaxAttempts-1; i++ {
		if err := gate.Allow(ctx, "ip"); err != nil {
			t.Fatalf("attempt %d after reset: %v", i+1, err)
		}
		_ = gate.Fail(ctx, "ip")
	}
}

func TestRateGate_IdentitiesAreIndependent(t *testing.T) {
	ctx := context.Background()
	gate := newTestGate(newClock())

	for i := 0; i < DefaultMaxAttempts; i++ {
		_ = gate.Allow(ctx, "a")
		_ = gate.Fail(ctx, "a")
	}
	if err := gate.Allow(ctx, "a"); err == nil {
		t.Fatalf("expected a to be blocked")
	}
	if err := gate.Allow(ctx, "b"); err != nil {
		t.Fatalf("expected b to be allowed, got %v", err)
	}
}

func TestRateGate_EmptyIdentity(t *testing.T) {
	gate := newTestGate(newClock())
	if err := gate.Allow(context.Background(), ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRateGate_CustomLimits(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	gate := NewRateGate(newStubAttemptStore(), RateGateConfig{MaxAttempts: 2, BlockWindow: time.Minute}, zerolog.Nop()).WithClock(clk.Now)

	for i := 0; i < 2; i++ {
		_ = gate.Allow(ctx, "ip")
		_ = gate.Fail(ctx, "ip")
	}
	var rl *domain.RateLimitError
	if err := gate.Allow(ctx, "ip"); !errors.As(err, &rl) || rl.RetryAfter != time.Minute {
		t.Fatalf("expected RateLimitError with 1m retry, got %v", err)
	}
}
