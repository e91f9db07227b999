package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const attemptKeyPrefix = "ratelimit:login:"

// Each script is one atomic read-modify-write on a hash {count, last}.
// last is in unix milliseconds. The key expires one window after the last
// attempt, which is exactly when its counter would be reset anyway.
var touchScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local count = tonumber(redis.call("HGET", KEYS[1], "count") or "0")
local last = tonumber(redis.call("HGET", KEYS[1], "last") or "0")
if last > 0 and now - last >= window then
  count = 0
end
redis.call("HSET", KEYS[1], "count", count, "last", now)
redis.call("PEXPIRE", KEYS[1], window)
return count
`)

var incrementScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local count = tonumber(redis.call("HGET", KEYS[1], "count") or "0")
local last = tonumber(redis.call("HGET", KEYS[1], "last") or "0")
if last > 0 and now - last >= window then
  count = 0
end
count = count + 1
redis.call("HSET", KEYS[1], "count", count, "last", now)
redis.call("PEXPIRE", KEYS[1], window)
return count
`)

// AttemptStore implements ports.AttemptStore on Redis so that every API
// instance sees the same counters.
type AttemptStore struct {
	client *redis.Client
}

// NewAttemptStore creates an AttemptStore wrapping the given Redis client.
func NewAttemptStore(client *redis.Client) *AttemptStore {
	return &AttemptStore{client: client}
}

func (s *AttemptStore) Touch(ctx context.Context, identity string, now time.Time, window time.Duration) (int, error) {
	n, err := touchScript.Run(ctx, s.client, []string{s.key(identity)}, now.UnixMilli(), window.Milliseconds()).Int()
	if err != nil {
		return 0, fmt.Errorf("attempt touch: %w", err)
	}
	return n, nil
}

func (s *AttemptStore) Increment(ctx context.Context, identity string, now time.Time, window time.Duration) (int, error) {
	n, err := incrementScript.Run(ctx, s.client, []string{s.key(identity)}, now.UnixMilli(), window.Milliseconds()).Int()
	if err != nil {
		return 0, fmt.Errorf("attempt increment: %w", err)
	}
	return n, nil
}

func (s *AttemptStore) Reset(ctx context.Context, identity string) error {
	if err := s.client.Del(ctx, s.key(identity)).Err(); err != nil {
		return fmt.Errorf("attempt reset: %w", err)
	}
	return nil
}

func (s *AttemptStore) key(identity string) string {
	return attemptKeyPrefix + identity
}
