package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps one ordered timestamp sequence per identifier in
// process memory. It serves single-instance deployments where no external
// store is configured.
//
// A single mutex serializes the read-filter-append sequence so concurrent
// evaluations for the same identifier cannot both be admitted past the
// capacity. Stale timestamps are purged lazily whenever their identifier is
// evaluated; there is no background sweep and map entries are never evicted
// (see the package documentation for the memory growth trade-off).
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithClock overrides the time source. Tests use it to advance the window
// without sleeping.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an empty in-memory window store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Evaluate filters the identifier's window to live entries, then either
// denies without recording or records the attempt and admits it. Pure
// in-memory arithmetic; the returned error is always nil.
func (s *MemoryStore) Evaluate(_ context.Context, identifier string, limit int, window time.Duration) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	windowStart := now.Add(-window)

	// Lazy purge: keep only live entries. This is the only cleanup the
	// local backend performs.
	entries := s.windows[identifier]
	live := entries[:0]
	for _, ts := range entries {
		if ts.After(windowStart) {
			live = append(live, ts)
		}
	}

	if len(live) >= limit {
		s.windows[identifier] = live
		// Rejected attempts are not recorded, so repeated throttled calls
		// within the same window report the same reset instant.
		return Decision{
			Allowed:   false,
			Limit:     limit,
			Remaining: 0,
			ResetAt:   live[0].Add(window),
		}, nil
	}

	live = append(live, now)
	s.windows[identifier] = live

	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(live),
		ResetAt:   now.Add(window),
	}, nil
}

// Reset drops all recorded state for the identifier.
func (s *MemoryStore) Reset(identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, identifier)
}

// Len returns the number of tracked identifiers.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}
