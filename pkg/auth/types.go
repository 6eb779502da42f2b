package auth

import (
	"time"

	"github.com/google/uuid"
)

// Token subjects embedded in signed token payloads.
const (
	SubjectPasswordReset = "password_reset"
)

// User is an account in the authentication system.
type User struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
	CreatedAt   time.Time
}

// Factor is a TOTP secret enrolled by a user. Unverified factors are
// pending confirmation and never satisfy an MFA challenge.
type Factor struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	FriendlyName string
	Secret       string
	Verified     bool
	CreatedAt    time.Time
}
