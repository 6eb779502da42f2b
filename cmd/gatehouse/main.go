package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gatehouse-io/gatehouse/internal/httpapi"
	"github.com/gatehouse-io/gatehouse/pkg/auth"
	"github.com/gatehouse-io/gatehouse/pkg/config"
	"github.com/gatehouse-io/gatehouse/pkg/cookie"
	"github.com/gatehouse-io/gatehouse/pkg/httpserver"
	"github.com/gatehouse-io/gatehouse/pkg/logger"
	"github.com/gatehouse-io/gatehouse/pkg/mailer"
	"github.com/gatehouse-io/gatehouse/pkg/pg"
	"github.com/gatehouse-io/gatehouse/pkg/profile"
	"github.com/gatehouse-io/gatehouse/pkg/ratelimit"
	"github.com/gatehouse-io/gatehouse/pkg/redis"
	"github.com/gatehouse-io/gatehouse/pkg/session"
	"github.com/gatehouse-io/gatehouse/pkg/storage"
)

// appConfig holds the settings that do not belong to a specific package.
// Secrets are required: the process refuses to start without them rather
// than falling back to a guessable default.
type appConfig struct {
	Env          string `env:"APP_ENV" envDefault:"development"`
	CookieSecret string `env:"COOKIE_SECRET,required"`
	TokenSecret  string `env:"TOKEN_SECRET,required"`
	MFAIssuer    string `env:"MFA_ISSUER" envDefault:"Gatehouse"`
	ResetBaseURL string `env:"PASSWORD_RESET_URL" envDefault:"http://localhost:8080/reset"`

	// SessionRedis switches session storage from process memory to the
	// shared Redis connection.
	SessionRedis bool `env:"SESSION_REDIS" envDefault:"false"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("gatehouse exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	var (
		appCfg     appConfig
		logCfg     logger.Config
		httpCfg    httpserver.Config
		pgCfg      pg.Config
		sessionCfg session.Config
		limitCfg   ratelimit.Config
		mailCfg    mailer.Config
		s3Cfg      storage.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&logCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&sessionCfg)
	config.MustLoad(&limitCfg)
	config.MustLoad(&mailCfg)
	config.MustLoad(&s3Cfg)

	log := logger.NewFromConfig(logCfg, logger.WithAttrs(slog.String("app", "gatehouse")))

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	readyChecks := []func(context.Context) error{
		func(ctx context.Context) error { return pool.Ping(ctx) },
	}

	cookies, err := cookie.NewManager(appCfg.CookieSecret)
	if err != nil {
		return err
	}

	var sessionStore session.Store
	if appCfg.SessionRedis {
		var redisCfg redis.Config
		config.MustLoad(&redisCfg)

		redisClient, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer func() { _ = redisClient.Close() }()

		sessionStore, err = session.NewRedisStore(redisClient)
		if err != nil {
			return err
		}
		readyChecks = append(readyChecks, redis.Healthcheck(redisClient))
	} else {
		memStore := session.NewMemoryStore(sessionCfg.TTL)
		defer func() { _ = memStore.Close() }()
		sessionStore = memStore
	}

	sessions, err := session.NewManager(sessionStore, cookies, sessionCfg)
	if err != nil {
		return err
	}

	authStorage, err := auth.NewPostgresStorage(pool)
	if err != nil {
		return err
	}
	password := auth.NewPasswordService(authStorage, appCfg.TokenSecret)
	mfa := auth.NewMFAService(authStorage, appCfg.MFAIssuer)

	profileRepo, err := profile.NewPostgresRepository(pool)
	if err != nil {
		return err
	}
	profiles, err := profile.NewService(profileRepo)
	if err != nil {
		return err
	}

	avatars, err := storage.New(ctx, s3Cfg)
	if err != nil {
		return err
	}

	var sender mailer.Sender
	if appCfg.Env == "production" {
		if sender, err = mailer.NewPostmarkSender(mailCfg); err != nil {
			return err
		}
	} else {
		sender = mailer.NewLogSender(log)
	}

	// Limiters are built once here; the backend choice is fixed for the
	// process lifetime.
	limiterLogger := log.With(logger.Component("ratelimit"))
	newLimiter := func(policy ratelimit.Policy) (*ratelimit.Limiter, error) {
		return ratelimit.NewFromConfig(limitCfg, policy, ratelimit.WithLogger(limiterLogger))
	}

	authLimiter, err := newLimiter(ratelimit.PolicyAuth)
	if err != nil {
		return err
	}
	profileLimiter, err := newLimiter(ratelimit.PolicyProfileUpdate)
	if err != nil {
		return err
	}
	resetLimiter, err := newLimiter(ratelimit.PolicyPasswordReset)
	if err != nil {
		return err
	}

	router := httpapi.Router(httpapi.Deps{
		Logger:   log,
		Sessions: sessions,
		Password: password,
		MFA:      mfa,
		Profiles: profiles,
		Avatars:  avatars,
		Mailer:   sender,
		Limiters: httpapi.Limiters{
			Auth:          authLimiter,
			ProfileUpdate: profileLimiter,
			PasswordReset: resetLimiter,
		},
		FailClosed:   limitCfg.FailClosed,
		ResetBaseURL: appCfg.ResetBaseURL,
		ReadyChecks:  readyChecks,
	})

	srv := httpserver.New(httpCfg, httpserver.WithLogger(log))
	return srv.Run(ctx, router)
}
