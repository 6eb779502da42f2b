package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Limiter presents one Limit operation per named policy and hides which
// backend implements it. The backend is chosen once at construction and
// kept for the limiter's lifetime; there is no runtime fallback when a
// remote store becomes unreachable after startup.
type Limiter struct {
	store  Store
	policy Policy
	logger *slog.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithStore binds an explicit backend instead of the default memory store.
func WithStore(store Store) Option {
	return func(l *Limiter) {
		if store != nil {
			l.store = store
		}
	}
}

// WithLogger enables per-decision debug logging and backend failure
// warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a limiter for the given policy backed by an in-process
// memory store unless WithStore overrides it. Panics on an invalid policy:
// policies are process-start constants and a bad one is a programming
// error, not a runtime condition.
func New(policy Policy, opts ...Option) *Limiter {
	if err := policy.Validate(); err != nil {
		panic("ratelimit.New: " + err.Error())
	}

	l := &Limiter{
		policy: policy,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.store == nil {
		l.store = NewMemoryStore()
	}

	return l
}

// NewFromConfig builds a limiter whose backend is decided by configuration
// presence: a set RedisURL selects the shared Redis backend, anything else
// the in-process store. The URL must be parseable or construction fails.
// A cfg.Windows entry matching the policy name replaces the policy's
// window; an unparseable override fails construction rather than silently
// running with the compiled-in window.
func NewFromConfig(cfg Config, policy Policy, opts ...Option) (*Limiter, error) {
	if raw, ok := cfg.Windows[policy.Name]; ok && policy.Name != "" {
		window := ParseWindow(raw)
		if window <= 0 {
			return nil, fmt.Errorf("%w: window override %q for %s", ErrInvalidPolicy, raw, policy.Name)
		}
		policy.Window = window
	}

	if !cfg.RemoteConfigured() {
		return New(policy, opts...), nil
	}

	redisOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, errors.Join(errors.New("invalid rate limit redis url"), err)
	}
	if redisOpt.Password == "" && cfg.RedisToken != "" {
		redisOpt.Password = cfg.RedisToken
	}

	store, err := NewRedisStore(redis.NewClient(redisOpt), WithKeyPrefix(cfg.KeyPrefix))
	if err != nil {
		return nil, err
	}

	return New(policy, append(opts, WithStore(store))...), nil
}

// Policy returns the policy the limiter enforces.
func (l *Limiter) Policy() Policy {
	return l.policy
}

// Limit evaluates one request for the identifier against the bound backend.
// An empty identifier is rejected so a broken resolver cannot collapse all
// callers into one shared bucket.
func (l *Limiter) Limit(ctx context.Context, identifier string) (Decision, error) {
	if identifier == "" {
		return Decision{}, ErrIdentifierRequired
	}

	dec, err := l.store.Evaluate(ctx, identifier, l.policy.Requests, l.policy.Window)
	if err != nil {
		l.logger.WarnContext(ctx, "rate limit backend failure",
			slog.String("identifier", identifier),
			slog.Any("error", err),
		)
		return Decision{}, err
	}

	l.logger.DebugContext(ctx, "rate limit decision",
		slog.String("identifier", identifier),
		slog.Bool("allowed", dec.Allowed),
		slog.Int("remaining", dec.Remaining),
	)

	return dec, nil
}
