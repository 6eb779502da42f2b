package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-io/gatehouse/pkg/cookie"
)

func TestManager_RoundTrip(t *testing.T) {
	t.Parallel()

	mgr, err := cookie.NewManager("signing-secret")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	mgr.Set(rec, "gh_session", "token-value", cookie.WithMaxAge(3600))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.NotContains(t, cookies[0].Value, "token-value", "raw value must not appear in the cookie")

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookies[0])

	got, err := mgr.Get(r, "gh_session")
	require.NoError(t, err)
	assert.Equal(t, "token-value", got)
}

func TestManager_RejectsTampering(t *testing.T) {
	t.Parallel()

	mgr, err := cookie.NewManager("signing-secret")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	mgr.Set(rec, "gh_session", "token-value")
	signed := rec.Result().Cookies()[0]

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "gh_session", Value: "x" + signed.Value})

	_, err = mgr.Get(r, "gh_session")
	assert.ErrorIs(t, err, cookie.ErrSignatureInvalid)
}

func TestManager_RejectsForeignSecret(t *testing.T) {
	t.Parallel()

	mgrA, err := cookie.NewManager("secret-a")
	require.NoError(t, err)
	mgrB, err := cookie.NewManager("secret-b")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	mgrA.Set(rec, "gh_session", "token-value")

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(rec.Result().Cookies()[0])

	_, err = mgrB.Get(r, "gh_session")
	assert.ErrorIs(t, err, cookie.ErrSignatureInvalid)
}

func TestManager_MissingCookie(t *testing.T) {
	t.Parallel()

	mgr, err := cookie.NewManager("signing-secret")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err = mgr.Get(r, "gh_session")
	assert.ErrorIs(t, err, cookie.ErrCookieNotFound)
}

func TestNewManager_EmptySecret(t *testing.T) {
	t.Parallel()

	_, err := cookie.NewManager("")
	assert.ErrorIs(t, err, cookie.ErrSecretRequired)
}
