// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	ErrNilPointer    = errors.New("config target must be a non-nil pointer")
	ErrParsingConfig = errors.New("failed to parse config from environment")
)

// The .env file is optional; missing files are ignored so production
// containers configured purely through the environment work unchanged.
var dotenvOnce sync.Once

// Load parses environment variables into the provided struct based on its
// `env` field tags. Required variables that are absent produce an error.
func Load[T any](v *T) error {
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})

	if v == nil {
		return ErrNilPointer
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	return nil
}

// MustLoad works like Load but panics on failure. Use it for configuration
// the process cannot start without, such as identity provider credentials.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
