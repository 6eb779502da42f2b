// Package profile manages the user-editable profile record attached to
// each account: display name, phone, and avatar URL.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gatehouse-io/gatehouse/pkg/sanitizer"
	"github.com/gatehouse-io/gatehouse/pkg/validator"
)

var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrRepositoryRequired = errors.New("profile repository is required")
)

// Profile is one user's editable profile. Phone and AvatarURL are
// pointers so absent values map to SQL NULL.
type Profile struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Phone       *string   `json:"phone,omitempty"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpdateParams is the allow-list of fields a user may change directly.
// Nil fields are left untouched; avatar changes go through SetAvatar.
type UpdateParams struct {
	DisplayName *string `json:"display_name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
}

// Repository persists profiles keyed by user ID.
type Repository interface {
	Get(ctx context.Context, userID uuid.UUID) (*Profile, error)
	Save(ctx context.Context, profile *Profile) error
}

// Service validates and applies profile changes.
type Service struct {
	repo Repository
}

// NewService creates the profile service.
func NewService(repo Repository) (*Service, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	return &Service{repo: repo}, nil
}

// Get returns the user's profile, or an empty one if none was saved yet.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return &Profile{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return p, nil
}

// Update applies the allow-listed changes. Validation failures abort the
// whole update; a profile is never partially written.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, params UpdateParams) (*Profile, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if params.DisplayName != nil {
		current.DisplayName = sanitizer.TrimSpace(*params.DisplayName)
	}
	if params.Phone != nil {
		current.Phone = sanitizer.TrimToNil(*params.Phone)
	}

	phone := ""
	if current.Phone != nil {
		phone = *current.Phone
	}

	if err := validator.Apply(
		validator.MaxLen("display_name", current.DisplayName, 100),
		validator.ValidPhone("phone", phone),
	); err != nil {
		return nil, err
	}

	current.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, current); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	return current, nil
}

// SetAvatar records the avatar URL produced by the object store.
func (s *Service) SetAvatar(ctx context.Context, userID uuid.UUID, url string) (*Profile, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := validator.Apply(validator.ValidURL("avatar_url", url)); err != nil {
		return nil, err
	}

	current.AvatarURL = sanitizer.TrimToNil(url)
	current.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, current); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	return current, nil
}
