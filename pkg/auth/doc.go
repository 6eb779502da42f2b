// Package auth implements password-based authentication with optional
// TOTP multi-factor enrollment.
//
// The password service owns registration, credential verification, and
// the password reset flow. Reset tokens are stateless HMAC-signed
// payloads, so no reset table is needed. All credential failures
// collapse into ErrInvalidCredentials to prevent account enumeration.
//
// MFA factors are per-user TOTP secrets. A factor starts unverified and
// must be confirmed with a live code before it counts towards sign-in.
package auth
