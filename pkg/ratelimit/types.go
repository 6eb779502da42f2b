package ratelimit

import (
	"context"
	"time"
)

// Decision is the immutable outcome of a single quota evaluation.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Limit is the configured capacity of the window.
	Limit int

	// Remaining is the capacity left in the current window, floored at 0.
	Remaining int

	// ResetAt is when the oldest live entry ages out of the window, or
	// now+window when the window was empty before this evaluation.
	ResetAt time.Time
}

// RetryAfter returns how long the caller should wait before retrying.
// Returns 0 when the request was allowed.
func (d Decision) RetryAfter() time.Duration {
	if d.Allowed {
		return 0
	}
	return time.Until(d.ResetAt)
}

// Store is the single capability both backends implement: one atomic
// check-and-record step over the identifier's sliding window. Denied
// evaluations must not consume quota.
type Store interface {
	Evaluate(ctx context.Context, identifier string, limit int, window time.Duration) (Decision, error)
}
