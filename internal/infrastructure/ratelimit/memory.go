// Package ratelimit holds the process-local login attempt store used when no
// shared Redis store is configured.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

const DefaultMaxIdentities = 100_000

type record struct {
	count int
	last  time.Time
}

// MemoryStore implements ports.AttemptStore in process memory. It holds at
// most maxIdentities records in recency order; a new identity arriving at a
// full store evicts the least recently seen one in constant time. Idle
// identities drift to the back of the order, so they go first.
type MemoryStore struct {
	mu      sync.Mutex
	records *simplelru.LRU[string, *record]
}

// NewMemoryStore constructs a MemoryStore. A non-positive bound uses DefaultMaxIdentities.
func NewMemoryStore(maxIdentities int) *MemoryStore {
	if maxIdentities <= 0 {
		maxIdentities = DefaultMaxIdentities
	}
	// NewLRU only fails for a non-positive size.
	records, _ := simplelru.NewLRU[string, *record](maxIdentities, nil)
	return &MemoryStore{records: records}
}

func (s *MemoryStore) Touch(_ context.Context, identity string, now time.Time, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.load(identity, now, window)
	r.last = now
	return r.count, nil
}

func (s *MemoryStore) Increment(_ context.Context, identity string, now time.Time, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.load(identity, now, window)
	r.count++
	r.last = now
	return r.count, nil
}

func (s *MemoryStore) Reset(_ context.Context, identity string) error {
	s.mu.Lock()
	s.records.Remove(identity)
	s.mu.Unlock()
	return nil
}

// Len reports how many identities are tracked.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.Len()
}

// load returns identity's record, creating it or zeroing an expired one, and
// marks it most recently seen. Caller holds s.mu.
func (s *MemoryStore) load(identity string, now time.Time, window time.Duration) *record {
	r, ok := s.records.Get(identity)
	if !ok {
		r = &record{}
		s.records.Add(identity, r)
		return r
	}
	if now.Sub(r.last) >= window {
		r.count = 0
	}
	return r
}
