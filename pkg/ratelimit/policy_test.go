package ratelimit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gatehouse-io/gatehouse/pkg/ratelimit"
)

func TestParseWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"15m", 15 * time.Minute},
		{"1h", time.Hour},
		{"2d", 48 * time.Hour},
		{"90", 90 * time.Second},   // unit-less defaults to seconds
		{"90x", 90 * time.Second},  // unrecognized suffix defaults to seconds
		{" 5m ", 5 * time.Minute},  // surrounding whitespace
		{"0s", 0},
		{"", 0},
		{"abc", 0},
		{"-5s", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ratelimit.ParseWindow(tt.in))
		})
	}
}

func TestPolicyValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ratelimit.Policy{Requests: 5, Window: time.Minute}.Validate())
	assert.ErrorIs(t, ratelimit.Policy{Requests: 0, Window: time.Minute}.Validate(), ratelimit.ErrInvalidPolicy)
	assert.ErrorIs(t, ratelimit.Policy{Requests: 5, Window: 0}.Validate(), ratelimit.ErrInvalidPolicy)
}

func TestDefaultPolicies(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ratelimit.Policy{Name: "auth", Requests: 5, Window: 15 * time.Minute}, ratelimit.PolicyAuth)
	assert.Equal(t, ratelimit.Policy{Name: "profile_update", Requests: 10, Window: time.Minute}, ratelimit.PolicyProfileUpdate)
	assert.Equal(t, ratelimit.Policy{Name: "password_reset", Requests: 3, Window: time.Hour}, ratelimit.PolicyPasswordReset)
}

func TestDecisionRetryAfter(t *testing.T) {
	t.Parallel()

	allowed := ratelimit.Decision{Allowed: true, ResetAt: time.Now().Add(time.Hour)}
	assert.Equal(t, time.Duration(0), allowed.RetryAfter())

	denied := ratelimit.Decision{Allowed: false, ResetAt: time.Now().Add(time.Minute)}
	assert.InDelta(t, time.Minute.Seconds(), denied.RetryAfter().Seconds(), 1)
}
