// Package ratelimit provides sliding window rate limiting with
// interchangeable local and distributed backends.
//
// A Limiter binds one Policy (request count per window) to one Store at
// construction time and never switches backends afterwards. The in-memory
// store serves single-instance deployments and tests; the Redis store keeps
// one shared counter per identifier across all replicas.
//
// Basic usage:
//
//	limiter := ratelimit.New(ratelimit.PolicyAuth)
//	dec, err := limiter.Limit(ctx, clientip.Resolve(r))
//	if err != nil {
//		// backend failure, decide fail-open vs fail-closed
//	}
//	if !dec.Allowed {
//		// respond with 429, dec carries quota metadata
//	}
//
// For multi-instance deployments construct the limiter from configuration:
//
//	var cfg ratelimit.Config
//	config.MustLoad(&cfg)
//	limiter, err := ratelimit.NewFromConfig(cfg, ratelimit.PolicyProfileUpdate)
//
// When cfg.RedisURL is set the limiter evaluates against Redis using a Lua
// script, which makes the check-and-record step atomic per identifier. The
// in-memory store serializes evaluations with a mutex instead; it trades
// strict cross-process accuracy for zero dependencies.
//
// The memory store never evicts identifiers that stop sending requests.
// Stale timestamps are purged lazily on the next evaluation of the same
// identifier, but the map entry itself stays for the process lifetime. That
// is acceptable for short-lived development processes; production
// deployments with high-cardinality identifier spaces should use the Redis
// backend, which expires keys natively.
package ratelimit
