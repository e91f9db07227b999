package ports

import (
	"context"
	"time"
)

// AttemptStore keeps per-identity login attempt counters. Each method is a
// single atomic read-modify-write on one identity's record.
type AttemptStore interface {
	// Touch creates the record if missing, zeroes the counter when the last
	// attempt is at least window old, stamps the attempt time with now, and
	// returns the counter as it stands before this attempt is judged.
	Touch(ctx context.Context, identity string, now time.Time, window time.Duration) (int, error)
	// Increment records one failed attempt and returns the new counter.
	Increment(ctx context.Context, identity string, now time.Time, window time.Duration) (int, error)
	// Reset zeroes the counter after a successful login.
	Reset(ctx context.Context, identity string) error
}
