// Package httpapi assembles the HTTP surface: authentication, profile
// management, avatar upload, and the rate limiting in front of them.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gatehouse-io/gatehouse/pkg/auth"
	"github.com/gatehouse-io/gatehouse/pkg/clientip"
	"github.com/gatehouse-io/gatehouse/pkg/httpserver"
	"github.com/gatehouse-io/gatehouse/pkg/mailer"
	"github.com/gatehouse-io/gatehouse/pkg/profile"
	"github.com/gatehouse-io/gatehouse/pkg/ratelimit"
	"github.com/gatehouse-io/gatehouse/pkg/session"
	"github.com/gatehouse-io/gatehouse/pkg/storage"
)

// Limiters holds the per-endpoint rate limiters, constructed once at
// startup with their backend already bound.
type Limiters struct {
	Auth          *ratelimit.Limiter
	ProfileUpdate *ratelimit.Limiter
	PasswordReset *ratelimit.Limiter
}

// Deps carries everything the HTTP layer needs. No package-level state:
// handlers read all collaborators from here.
type Deps struct {
	Logger     *slog.Logger
	Sessions   *session.Manager
	Password   *auth.PasswordService
	MFA        *auth.MFAService
	Profiles   *profile.Service
	Avatars    *storage.AvatarStore
	Mailer     mailer.Sender
	Limiters   Limiters
	FailClosed bool
	// ResetBaseURL is the page the reset email links to; the token is
	// appended as a query parameter.
	ResetBaseURL string
	// ReadyChecks back the readiness probe.
	ReadyChecks []func(ctx context.Context) error
}

// byClientIP keys rate limits on the resolved client address.
func byClientIP(r *http.Request) string {
	return clientip.Resolve(r)
}

// byUserOrIP prefers the authenticated user ID so NAT'd users do not
// share a bucket, falling back to the client address.
func byUserOrIP(r *http.Request) string {
	if s, ok := session.FromContext(r.Context()); ok && s.IsAuthenticated() {
		return clientip.ResolveAuthenticated(r, s.UserID.String())
	}
	return clientip.Resolve(r)
}

// Router builds the full route tree.
func Router(deps Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(session.Middleware(deps.Sessions))

	r.Get("/health", httpserver.HealthCheckHandler(deps.Logger))
	r.Get("/ready", httpserver.HealthCheckHandler(deps.Logger, deps.ReadyChecks...))

	r.Route("/auth", func(ar chi.Router) {
		// Signin and signup share one auth quota per client: registration
		// abuse and credential stuffing drain the same bucket.
		ar.Group(func(gr chi.Router) {
			gr.Use(ratelimit.Middleware(deps.Limiters.Auth, byClientIP, deps.FailClosed))
			gr.Post("/signin", deps.signin)
			gr.Post("/signup", deps.signup)
		})
		ar.Post("/signout", deps.signout)
		ar.Get("/session", deps.sessionInfo)

		ar.Route("/password-reset", func(pr chi.Router) {
			pr.With(ratelimit.Middleware(deps.Limiters.PasswordReset, byClientIP, deps.FailClosed)).
				Post("/", deps.passwordResetRequest)
			pr.Post("/confirm", deps.passwordResetConfirm)
		})

		ar.Route("/mfa", func(mr chi.Router) {
			mr.Use(session.RequireAuth)
			mr.Get("/", deps.mfaList)
			mr.Post("/enroll", deps.mfaEnroll)
			mr.Post("/{factorID}/verify", deps.mfaVerify)
			mr.Delete("/{factorID}", deps.mfaUnenroll)
		})
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(session.RequireAuth)

		api.Get("/profile", deps.getProfile)
		api.With(ratelimit.Middleware(deps.Limiters.ProfileUpdate, byUserOrIP, deps.FailClosed)).
			Patch("/profile", deps.updateProfile)
		api.With(ratelimit.Middleware(deps.Limiters.ProfileUpdate, byUserOrIP, deps.FailClosed)).
			Post("/upload-avatar", deps.uploadAvatar)
	})

	return r
}
