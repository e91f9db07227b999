package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultScanDedupTTL = 30 * time.Second

// ScanDedup suppresses repeated vault scan requests for the same user.
// Key format: scan:<user_id>
type ScanDedup struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScanDedup creates a ScanDedup wrapping the given Redis client.
func NewScanDedup(client *redis.Client, ttl time.Duration) *ScanDedup {
	if ttl <= 0 {
		ttl = defaultScanDedupTTL
	}
	return &ScanDedup{client: client, ttl: ttl}
}

// Acquire reports whether a scan for userID may be queued now. It returns false
// while a previous scan's key is still alive.
func (d *ScanDedup) Acquire(ctx context.Context, userID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(userID), "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("scan dedup: %w", err)
	}
	return ok, nil
}

// Release removes the claim so the next request for userID can queue a scan.
func (d *ScanDedup) Release(ctx context.Context, userID string) error {
	if err := d.client.Del(ctx, d.key(userID)).Err(); err != nil {
		return fmt.Errorf("scan dedup release: %w", err)
	}
	return nil
}

func (d *ScanDedup) key(userID string) string {
	return "scan:" + userID
}
