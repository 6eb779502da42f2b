package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-io/gatehouse/pkg/session"
)

var testRoutes = session.RouteConfig{
	ProtectedPrefixes: []string{"/dashboard", "/settings"},
	AuthPaths:         []string{"/", "/auth/signin"},
	EntryPath:         "/",
	DashboardPath:     "/dashboard",
}

func protectedHandler(manager *session.Manager) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return session.Middleware(manager)(session.Protect(testRoutes)(ok))
}

func signIn(t *testing.T, manager *session.Manager) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	_, err := manager.Authenticate(context.Background(), rec, httptest.NewRequest(http.MethodPost, "/auth/signin", nil), uuid.New())
	require.NoError(t, err)
	return rec
}

func TestProtect_UnauthenticatedRedirectsToEntry(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t)
	handler := protectedHandler(manager)

	for _, path := range []string{"/dashboard", "/dashboard/billing", "/settings"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/", rec.Header().Get("Location"), path)
	}
}

func TestProtect_UnauthenticatedPublicPathPasses(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t)
	handler := protectedHandler(manager)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/about", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtect_AuthenticatedAuthPageRedirectsToDashboard(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t)
	handler := protectedHandler(manager)
	signin := signIn(t, manager)

	for _, path := range []string{"/", "/auth/signin"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, carryCookies(t, signin, http.MethodGet, path))

		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"), path)
	}
}

func TestProtect_AuthenticatedProtectedPathPasses(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t)
	handler := protectedHandler(manager)
	signin := signIn(t, manager)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, carryCookies(t, signin, http.MethodGet, "/dashboard"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtect_PrefixDoesNotMatchSiblings(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t)
	handler := protectedHandler(manager)

	// "/dashboarding" shares the prefix string but is a different route.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboarding", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t)
	handler := session.Middleware(manager)(session.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	signin := signIn(t, manager)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, carryCookies(t, signin, http.MethodGet, "/api/profile"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_NoSessionNotInjected(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t)

	handler := session.Middleware(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := session.FromContext(r.Context())
		assert.False(t, ok)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
