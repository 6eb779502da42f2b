package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gatehouse-io/gatehouse/pkg/cookie"
)

// Config is the environment-driven session configuration.
type Config struct {
	CookieName    string        `env:"SESSION_COOKIE_NAME" envDefault:"gh_session"`
	TTL           time.Duration `env:"SESSION_TTL" envDefault:"168h"` // one week
	SecureCookies bool          `env:"SESSION_SECURE_COOKIES" envDefault:"true"`
}

// Manager performs session lifecycle operations over a Store and a signed
// cookie transport.
type Manager struct {
	store   Store
	cookies *cookie.Manager
	config  Config
}

// NewManager creates a session manager. Both the store and the cookie
// manager are required.
func NewManager(store Store, cookies *cookie.Manager, cfg Config) (*Manager, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if cookies == nil {
		return nil, ErrCookiesRequired
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "gh_session"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 168 * time.Hour
	}

	return &Manager{store: store, cookies: cookies, config: cfg}, nil
}

// Get retrieves the request's session, if any.
func (m *Manager) Get(ctx context.Context, r *http.Request) (*Session, error) {
	token, err := m.cookies.Get(r, m.config.CookieName)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	return m.store.Get(ctx, token)
}

// Authenticate issues a fresh session for the user and sets the cookie.
// Any previous session is deleted and the token rotated, preventing
// session fixation.
func (m *Manager) Authenticate(ctx context.Context, w http.ResponseWriter, r *http.Request, userID uuid.UUID) (*Session, error) {
	if old, err := m.Get(ctx, r); err == nil {
		_ = m.store.Delete(ctx, old.Token)
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	session := New(token, &userID, m.config.TTL)
	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}

	m.setCookie(w, token)
	return session, nil
}

// Destroy deletes the session and clears the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if token, err := m.cookies.Get(r, m.config.CookieName); err == nil && token != "" {
		_ = m.store.Delete(ctx, token)
	}

	m.cookies.Delete(w, m.config.CookieName)
	return nil
}

// Refresh extends the session lifetime and re-issues the cookie.
func (m *Manager) Refresh(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	session, err := m.Get(ctx, r)
	if err != nil {
		return nil, err
	}

	session.ExpiresAt = time.Now().Add(m.config.TTL)
	session.Touch()

	// Create overwrites the existing token entry in both stores.
	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}

	m.setCookie(w, session.Token)
	return session, nil
}

func (m *Manager) setCookie(w http.ResponseWriter, token string) {
	opts := []cookie.Option{
		cookie.WithMaxAge(int(m.config.TTL.Seconds())),
		cookie.WithSameSite(http.SameSiteLaxMode),
	}
	if m.config.SecureCookies {
		opts = append(opts, cookie.WithSecure(true))
	}

	m.cookies.Set(w, m.config.CookieName, token, opts...)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
