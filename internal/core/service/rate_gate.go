package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vaultguard/credential-vault/internal/core/domain"
	"github.com/vaultguard/credential-vault/internal/core/ports"
)

const (
	DefaultMaxAttempts = 5
	DefaultBlockWindow = 15 * time.Minute
)

// RateGateConfig holds the rate gate limits. Zero values fall back to the defaults.
type RateGateConfig struct {
	MaxAttempts int
	BlockWindow time.Duration
}

// RateGate limits login attempts per client identity.
//
// An identity is blocked once it has MaxAttempts failures and its last attempt
// is less than BlockWindow old. Every attempt, blocked or not, refreshes the
// last-attempt time, so a client that keeps knocking stays blocked.
type RateGate struct {
	store ports.AttemptStore
	cfg   RateGateConfig
	now   func() time.Time
	log   zerolog.Logger
}

func NewRateGate(store ports.AttemptStore, cfg RateGateConfig, log zerolog.Logger) *RateGate {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BlockWindow <= 0 {
		cfg.BlockWindow = DefaultBlockWindow
	}
	return &RateGate{store: store, cfg: cfg, now: time.Now, log: log}
}

// WithClock replaces the time source. Intended for tests.
func (g *RateGate) WithClock(now func() time.Time) *RateGate {
	g.now = now
	return g
}

// Allow registers an attempt for identity and returns a *domain.RateLimitError
// when the identity is blocked.
func (g *RateGate) Allow(ctx context.Context, identity string) error {
	if identity == "" {
		return domain.NewValidationError("identity", "is required")
	}

	count, err := g.store.Touch(ctx, identity, g.now(), g.cfg.BlockWindow)
	if err != nil {
		return fmt.Errorf("rate gate touch: %w", err)
	}
	if count >= g.cfg.MaxAttempts {
		g.log.Warn().Str("identity", identity).Int("attempts", count).Msg("login attempt blocked")
		return &domain.RateLimitError{RetryAfter: g.cfg.BlockWindow}
	}
	return nil
}

// Fail counts one failed login for identity.
func (g *RateGate) Fail(ctx context.Context, identity string) error {
	count, err := g.store.Increment(ctx, identity, g.now(), g.cfg.BlockWindow)
	if err != nil {
		return fmt.Errorf("rate gate increment: %w", err)
	}
	if count == g.cfg.MaxAttempts {
		g.log.Warn().Str("identity", identity).Dur("window", g.cfg.BlockWindow).Msg("identity reached attempt limit")
	}
	return nil
}

// Succeed clears identity's failure counter.
func (g *RateGate) Succeed(ctx context.Context, identity string) error {
	if err := g.store.Reset(ctx, identity); err != nil {
		return fmt.Errorf("rate gate reset: %w", err)
	}
	return nil
}
