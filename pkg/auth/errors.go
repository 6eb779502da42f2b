package auth

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

var (
	ErrFactorNotFound    = errors.New("mfa factor not found")
	ErrFactorNotVerified = errors.New("mfa factor not verified")
	ErrInvalidCode       = errors.New("invalid verification code")
	ErrInvalidSecret     = errors.New("invalid totp secret")
)
