package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-io/gatehouse/pkg/ratelimit"
)

// recordingStore captures evaluation arguments so tests can verify which
// backend a limiter is bound to.
type recordingStore struct {
	calls    int
	lastID   string
	decision ratelimit.Decision
	err      error
}

func (s *recordingStore) Evaluate(_ context.Context, identifier string, limit int, window time.Duration) (ratelimit.Decision, error) {
	s.calls++
	s.lastID = identifier
	if s.err != nil {
		return ratelimit.Decision{}, s.err
	}
	dec := s.decision
	dec.Limit = limit
	return dec, nil
}

func TestLimiter_EmptyIdentifier(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(ratelimit.PolicyAuth)
	_, err := limiter.Limit(context.Background(), "")
	assert.ErrorIs(t, err, ratelimit.ErrIdentifierRequired)
}

func TestLimiter_InvalidPolicyPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		ratelimit.New(ratelimit.Policy{Requests: 0, Window: time.Minute})
	})
}

func TestLimiter_UsesBoundStore(t *testing.T) {
	t.Parallel()

	store := &recordingStore{decision: ratelimit.Decision{Allowed: true, Remaining: 4}}
	limiter := ratelimit.New(ratelimit.PolicyAuth, ratelimit.WithStore(store))

	dec, err := limiter.Limit(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.Equal(t, ratelimit.PolicyAuth.Requests, dec.Limit)
	assert.Equal(t, "user-1", store.lastID)

	// The binding is permanent: every subsequent call hits the same store.
	for range 5 {
		_, err := limiter.Limit(context.Background(), "user-1")
		require.NoError(t, err)
	}
	assert.Equal(t, 6, store.calls)
}

func TestLimiter_SurfacesBackendErrors(t *testing.T) {
	t.Parallel()

	backendErr := errors.New("connection refused")
	store := &recordingStore{err: backendErr}
	limiter := ratelimit.New(ratelimit.PolicyProfileUpdate, ratelimit.WithStore(store))

	_, err := limiter.Limit(context.Background(), "user-1")
	assert.ErrorIs(t, err, backendErr)
}

func TestNewFromConfig_BackendSelection(t *testing.T) {
	t.Parallel()

	t.Run("no remote config selects memory backend", func(t *testing.T) {
		t.Parallel()

		limiter, err := ratelimit.NewFromConfig(ratelimit.Config{}, ratelimit.PolicyAuth)
		require.NoError(t, err)

		// Memory backend works without any external service.
		dec, err := limiter.Limit(context.Background(), "user-1")
		require.NoError(t, err)
		assert.True(t, dec.Allowed)
	})

	t.Run("remote config binds redis backend at construction", func(t *testing.T) {
		t.Parallel()

		cfg := ratelimit.Config{RedisURL: "redis://127.0.0.1:1/0"}
		limiter, err := ratelimit.NewFromConfig(cfg, ratelimit.PolicyAuth)
		require.NoError(t, err)
		require.NotNil(t, limiter)

		// The redis client is unreachable in tests; the limiter must
		// surface the backend error rather than silently falling back to
		// the memory store.
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_, err = limiter.Limit(ctx, "user-1")
		assert.Error(t, err)
	})

	t.Run("malformed url fails construction", func(t *testing.T) {
		t.Parallel()

		_, err := ratelimit.NewFromConfig(ratelimit.Config{RedisURL: "://nope"}, ratelimit.PolicyAuth)
		assert.Error(t, err)
	})
}

func TestNewFromConfig_WindowOverride(t *testing.T) {
	t.Parallel()

	t.Run("named policy window comes from config", func(t *testing.T) {
		t.Parallel()

		cfg := ratelimit.Config{Windows: map[string]string{"auth": "30m"}}
		limiter, err := ratelimit.NewFromConfig(cfg, ratelimit.PolicyAuth)
		require.NoError(t, err)
		assert.Equal(t, 30*time.Minute, limiter.Policy().Window)
		assert.Equal(t, ratelimit.PolicyAuth.Requests, limiter.Policy().Requests)
	})

	t.Run("unit-less override is seconds", func(t *testing.T) {
		t.Parallel()

		cfg := ratelimit.Config{Windows: map[string]string{"password_reset": "90"}}
		limiter, err := ratelimit.NewFromConfig(cfg, ratelimit.PolicyPasswordReset)
		require.NoError(t, err)
		assert.Equal(t, 90*time.Second, limiter.Policy().Window)
	})

	t.Run("overrides for other policies are ignored", func(t *testing.T) {
		t.Parallel()

		cfg := ratelimit.Config{Windows: map[string]string{"auth": "30m"}}
		limiter, err := ratelimit.NewFromConfig(cfg, ratelimit.PolicyProfileUpdate)
		require.NoError(t, err)
		assert.Equal(t, ratelimit.PolicyProfileUpdate.Window, limiter.Policy().Window)
	})

	t.Run("unparseable override fails construction", func(t *testing.T) {
		t.Parallel()

		cfg := ratelimit.Config{Windows: map[string]string{"auth": "soon"}}
		_, err := ratelimit.NewFromConfig(cfg, ratelimit.PolicyAuth)
		assert.ErrorIs(t, err, ratelimit.ErrInvalidPolicy)
	})
}

func TestNewRedisStore_NilClient(t *testing.T) {
	t.Parallel()

	_, err := ratelimit.NewRedisStore(nil)
	assert.ErrorIs(t, err, ratelimit.ErrClientRequired)
}

func TestConfig_RemoteConfigured(t *testing.T) {
	t.Parallel()

	assert.False(t, ratelimit.Config{}.RemoteConfigured())
	assert.True(t, ratelimit.Config{RedisURL: "redis://localhost:6379"}.RemoteConfigured())
}
