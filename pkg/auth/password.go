package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gatehouse-io/gatehouse/pkg/sanitizer"
	"github.com/gatehouse-io/gatehouse/pkg/token"
	"github.com/gatehouse-io/gatehouse/pkg/validator"
)

// PasswordResetPayload is the data carried by password reset tokens.
type PasswordResetPayload struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Subject  string `json:"sub"`
	ExpireAt int64  `json:"exp"`
}

// PasswordResetRequest is the output of ForgotPassword, ready to be
// delivered to the user by email.
type PasswordResetRequest struct {
	Email     string
	Token     string
	ExpiresAt time.Time
}

// PasswordStorage is the persistence surface the password service needs.
type PasswordStorage interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	StorePasswordHash(ctx context.Context, userID uuid.UUID, hash []byte) error
	GetPasswordHash(ctx context.Context, userID uuid.UUID) ([]byte, error)
}

// PasswordService handles registration, sign-in, and password reset.
type PasswordService struct {
	storage          PasswordStorage
	tokenSecret      string
	bcryptCost       int
	resetTokenTTL    time.Duration
	passwordStrength validator.PasswordStrengthConfig
}

type PasswordOption func(*PasswordService)

// WithBcryptCost sets the bcrypt cost for password hashing.
func WithBcryptCost(cost int) PasswordOption {
	return func(s *PasswordService) { s.bcryptCost = cost }
}

// WithResetTokenTTL sets the lifetime of password reset tokens.
func WithResetTokenTTL(ttl time.Duration) PasswordOption {
	return func(s *PasswordService) { s.resetTokenTTL = ttl }
}

// WithPasswordStrength overrides the password strength requirements.
func WithPasswordStrength(cfg validator.PasswordStrengthConfig) PasswordOption {
	return func(s *PasswordService) { s.passwordStrength = cfg }
}

// NewPasswordService creates the password authentication service. The
// token secret signs reset tokens; rotating it invalidates outstanding
// reset links.
func NewPasswordService(storage PasswordStorage, tokenSecret string, opts ...PasswordOption) *PasswordService {
	s := &PasswordService{
		storage:          storage,
		tokenSecret:      tokenSecret,
		bcryptCost:       bcrypt.DefaultCost,
		resetTokenTTL:    time.Hour,
		passwordStrength: validator.DefaultPasswordStrength,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// User returns the account by ID.
func (s *PasswordService) User(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.storage.GetUserByID(ctx, id)
}

// Register creates a new user with email, password, and display name.
func (s *PasswordService) Register(ctx context.Context, email, password, displayName string) (*User, error) {
	email = sanitizer.NormalizeEmail(email)
	displayName = sanitizer.TrimSpace(displayName)

	if err := validator.Apply(
		validator.ValidEmail("email", email),
		validator.StrongPassword("password", password, s.passwordStrength),
		validator.MaxLen("display_name", displayName, 100),
	); err != nil {
		return nil, err
	}

	_, err := s.storage.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailAlreadyExists
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   time.Now(),
	}

	if err := s.storage.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.storage.StorePasswordHash(ctx, user.ID, hash); err != nil {
		// Roll the user record back so a retry does not hit ErrEmailAlreadyExists.
		_ = s.storage.DeleteUser(ctx, user.ID)
		return nil, fmt.Errorf("failed to save password: %w", err)
	}

	return user, nil
}

// Authenticate verifies email and password. Every failure mode returns
// ErrInvalidCredentials so callers cannot distinguish an unknown email
// from a wrong password.
func (s *PasswordService) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = sanitizer.NormalizeEmail(email)

	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	hash, err := s.storage.GetPasswordHash(ctx, user.ID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// ForgotPassword builds a reset token for the address. Handlers should
// respond identically whether or not the email exists.
func (s *PasswordService) ForgotPassword(ctx context.Context, email string) (*PasswordResetRequest, error) {
	email = sanitizer.NormalizeEmail(email)

	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	expiresAt := time.Now().Add(s.resetTokenTTL)
	payload := PasswordResetPayload{
		ID:       user.ID.String(),
		Email:    email,
		Subject:  SubjectPasswordReset,
		ExpireAt: expiresAt.Unix(),
	}

	tokenStr, err := token.Generate(payload, s.tokenSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reset token: %w", err)
	}

	return &PasswordResetRequest{
		Email:     email,
		Token:     tokenStr,
		ExpiresAt: expiresAt,
	}, nil
}

// ResetPassword sets a new password after validating the reset token.
func (s *PasswordService) ResetPassword(ctx context.Context, resetToken, newPassword string) (*User, error) {
	if err := validator.Apply(
		validator.StrongPassword("password", newPassword, s.passwordStrength),
	); err != nil {
		return nil, err
	}

	payload, err := token.Parse[PasswordResetPayload](resetToken, s.tokenSecret)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if payload.Subject != SubjectPasswordReset {
		return nil, ErrTokenInvalid
	}
	if time.Now().Unix() > payload.ExpireAt {
		return nil, ErrTokenExpired
	}

	userID, err := uuid.Parse(payload.ID)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.storage.StorePasswordHash(ctx, userID, hash); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	return s.storage.GetUserByID(ctx, userID)
}
