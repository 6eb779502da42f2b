package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript performs the purge, count and conditional record in
// one atomic step per key. Scores and arguments are epoch milliseconds.
//
// KEYS[1] window key
// ARGV[1] window length (ms)
// ARGV[2] capacity
// ARGV[3] current time (ms)
// ARGV[4] unique member for this attempt
//
// Reply: {allowed(0|1), live count after the call, reset time (ms)}
var slidingWindowScript = redis.NewScript(`
local window = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local cutoff = now - window

redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', cutoff)
local count = redis.call('ZCARD', KEYS[1])

local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')

if count >= limit then
	local reset = now + window
	if #oldest > 0 then
		reset = tonumber(oldest[2]) + window
	end
	return {0, count, reset}
end

redis.call('ZADD', KEYS[1], now, ARGV[4])
redis.call('PEXPIRE', KEYS[1], window)

return {1, count + 1, now + window}
`)

// RedisStore delegates sliding window bookkeeping to a shared Redis
// instance so the quota holds across multiple application processes.
// Each evaluation is one network round trip; the store does not retry.
type RedisStore struct {
	client redis.Scripter
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix overrides the default "ratelimit:" key prefix.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore creates a Redis-backed window store.
func NewRedisStore(client redis.Scripter, opts ...RedisStoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, ErrClientRequired
	}

	s := &RedisStore{
		client: client,
		prefix: "ratelimit:",
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Evaluate runs the sliding window script against the identifier's key.
// Redis guarantees the purge and the conditional record execute atomically,
// so concurrent processes cannot over-admit a shared identifier.
func (s *RedisStore) Evaluate(ctx context.Context, identifier string, limit int, window time.Duration) (Decision, error) {
	now := time.Now()

	// Unique member per attempt so simultaneous requests landing on the
	// same millisecond still count individually.
	member := uuid.NewString()

	reply, err := slidingWindowScript.Run(ctx, s.client,
		[]string{s.prefix + identifier},
		window.Milliseconds(),
		limit,
		now.UnixMilli(),
		member,
	).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit evaluation: %w", err)
	}

	values, ok := reply.([]any)
	if !ok || len(values) != 3 {
		return Decision{}, ErrUnexpectedReply
	}

	allowed, ok1 := values[0].(int64)
	count, ok2 := values[1].(int64)
	reset, ok3 := values[2].(int64)
	if !ok1 || !ok2 || !ok3 {
		return Decision{}, ErrUnexpectedReply
	}

	return Decision{
		Allowed:   allowed == 1,
		Limit:     limit,
		Remaining: max(0, limit-int(count)),
		ResetAt:   time.UnixMilli(reset),
	}, nil
}
