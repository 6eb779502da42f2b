package session

import (
	"net/http"
	"strings"
)

// RouteConfig drives the route-protection middleware.
type RouteConfig struct {
	// ProtectedPrefixes are path prefixes that require an authenticated
	// session, e.g. "/dashboard", "/settings".
	ProtectedPrefixes []string
	// AuthPaths are pages an authenticated user has no business visiting
	// again, e.g. the entry page and sign-in form.
	AuthPaths []string
	// EntryPath is where unauthenticated visitors get sent.
	EntryPath string
	// DashboardPath is where authenticated visitors get sent from auth pages.
	DashboardPath string
}

// Middleware loads the request's session, if any, into the context.
// It never blocks the request; use Protect for enforcement.
func Middleware(manager *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s, err := manager.Get(r.Context(), r); err == nil {
				r = r.WithContext(WithSession(r.Context(), s))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Protect enforces the route rules: unauthenticated requests to protected
// prefixes are redirected to the entry page, and authenticated requests to
// auth pages are redirected to the dashboard. Run it after Middleware.
func Protect(cfg RouteConfig) func(http.Handler) http.Handler {
	if cfg.EntryPath == "" {
		cfg.EntryPath = "/"
	}
	if cfg.DashboardPath == "" {
		cfg.DashboardPath = "/dashboard"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := FromContext(r.Context())
			authenticated := ok && s.IsAuthenticated()

			if !authenticated && matchesPrefix(r.URL.Path, cfg.ProtectedPrefixes) {
				http.Redirect(w, r, cfg.EntryPath, http.StatusSeeOther)
				return
			}
			if authenticated && matchesPath(r.URL.Path, cfg.AuthPaths) {
				http.Redirect(w, r, cfg.DashboardPath, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth responds 401 for API routes lacking an authenticated session.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := FromContext(r.Context())
		if !ok || !s.IsAuthenticated() {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func matchesPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func matchesPath(path string, paths []string) bool {
	for _, p := range paths {
		if path == p {
			return true
		}
	}
	return false
}
