// Package clientip derives a stable per-caller identifier from an inbound
// HTTP request for rate limiting purposes.
package clientip

import (
	"net/http"
	"strings"
)

// Unknown is returned when no address header is present. Callers sharing
// this identifier also share quota; that is an accepted limitation of
// address-based identification, same as NAT-sharing clients.
const Unknown = "unknown"

// Resolve returns the caller's network identifier in order of precedence:
// the first entry of X-Forwarded-For, then X-Real-IP verbatim, then the
// Unknown sentinel. Address syntax is not validated and Resolve never
// fails.
func Resolve(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	return Unknown
}

// ResolveAuthenticated prefers an authenticated principal's id over the
// network address so signed-in users carry their quota across networks.
func ResolveAuthenticated(r *http.Request, userID string) string {
	if userID != "" {
		return userID
	}
	return Resolve(r)
}
