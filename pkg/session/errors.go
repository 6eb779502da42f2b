package session

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrTokenGeneration = errors.New("failed to generate session token")
	ErrStoreRequired   = errors.New("session store is required")
	ErrCookiesRequired = errors.New("cookie manager is required")
)
