package ratelimit

// Config controls backend selection for limiters built via NewFromConfig.
// When RedisURL is set the limiter binds to the shared Redis backend,
// otherwise it falls back to the in-process store. The binding happens once
// at construction and is never re-evaluated.
type Config struct {
	RedisURL   string `env:"RATELIMIT_REDIS_URL"`                          // Connection URL of the shared store; empty selects the in-memory backend.
	RedisToken string `env:"RATELIMIT_REDIS_TOKEN"`                        // Access token applied as the connection password when the URL carries none.
	KeyPrefix  string `env:"RATELIMIT_KEY_PREFIX" envDefault:"ratelimit:"` // Prefix for all window keys in the shared store.
	FailClosed bool   `env:"RATELIMIT_FAIL_CLOSED" envDefault:"false"`     // Deny requests when the shared store is unreachable instead of admitting them.

	// Windows overrides the window of named policies, keyed by Policy.Name,
	// e.g. "auth:30m,password_reset:2h". Values use ParseWindow syntax.
	Windows map[string]string `env:"RATELIMIT_WINDOWS" envSeparator:"," envKeyValSeparator:":"`
}

// RemoteConfigured reports whether the configuration selects the shared
// Redis backend.
func (c Config) RemoteConfigured() bool {
	return c.RedisURL != ""
}
