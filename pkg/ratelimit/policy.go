package ratelimit

import (
	"strconv"
	"strings"
	"time"
)

// Policy is an immutable (capacity, window) pair bound to a limiter at
// construction. It is never mutated at runtime. Name identifies the policy
// to configuration window overrides; ad-hoc policies may leave it empty.
type Policy struct {
	Name     string
	Requests int
	Window   time.Duration
}

// Default endpoint policies. Each named policy owns an independent store;
// quota state is never shared across policies.
var (
	// PolicyAuth throttles login and signup attempts.
	PolicyAuth = Policy{Name: "auth", Requests: 5, Window: 15 * time.Minute}

	// PolicyProfileUpdate throttles profile mutations.
	PolicyProfileUpdate = Policy{Name: "profile_update", Requests: 10, Window: time.Minute}

	// PolicyPasswordReset throttles password reset requests.
	PolicyPasswordReset = Policy{Name: "password_reset", Requests: 3, Window: time.Hour}
)

// Validate reports whether the policy is usable.
func (p Policy) Validate() error {
	if p.Requests <= 0 || p.Window <= 0 {
		return ErrInvalidPolicy
	}
	return nil
}

// ParseWindow parses a window duration expressed as an integer magnitude
// with a single-letter unit suffix: "30s", "15m", "1h", "2d". A value
// without a recognized suffix is interpreted as seconds, so "90" and "90x"
// both parse to 90 seconds. Returns 0 for values without a leading integer.
func ParseWindow(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	unit := time.Second
	switch s[len(s)-1] {
	case 's':
		s = s[:len(s)-1]
	case 'm':
		unit = time.Minute
		s = s[:len(s)-1]
	case 'h':
		unit = time.Hour
		s = s[:len(s)-1]
	case 'd':
		unit = 24 * time.Hour
		s = s[:len(s)-1]
	default:
		// No recognized suffix: strip trailing non-digits and fall back
		// to seconds, matching the local backend's computation.
		s = strings.TrimRightFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}

	return time.Duration(n) * unit
}
