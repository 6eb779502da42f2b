package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// IdentifierFunc derives the rate limit identifier from an inbound request.
type IdentifierFunc func(*http.Request) string

// throttledResponse is the JSON body returned on a denied request.
type throttledResponse struct {
	Error     string `json:"error"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	Reset     int64  `json:"reset"`
}

// Middleware gates every request through the limiter. Quota headers are set
// on all gated responses, allowed or not; denied requests receive 429 with
// a JSON body carrying the same metadata.
//
// Backend failures admit the request by default: rate limiting is a
// defense-in-depth control, not the authorization boundary, so losing the
// shared store should not take the endpoint down. Pass failClosed=true to
// invert that for abuse-sensitive endpoints.
func Middleware(limiter *Limiter, identify IdentifierFunc, failClosed bool) func(http.Handler) http.Handler {
	if identify == nil {
		panic("ratelimit.Middleware: identify is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			dec, err := limiter.Limit(r.Context(), identify(r))
			if err != nil {
				if failClosed {
					http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			SetHeaders(w, dec)

			if !dec.Allowed {
				retryAfter := int(dec.RetryAfter().Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(throttledResponse{
					Error:     "rate limit exceeded",
					Limit:     dec.Limit,
					Remaining: dec.Remaining,
					Reset:     dec.ResetAt.UnixMilli(),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SetHeaders writes the standard quota headers for a decision. Reset is
// epoch milliseconds to match the JSON body of throttled responses.
func SetHeaders(w http.ResponseWriter, dec Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(dec.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(dec.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(dec.ResetAt.UnixMilli(), 10))
}
