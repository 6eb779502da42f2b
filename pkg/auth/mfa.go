package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// MFAStorage is the persistence surface for TOTP factors.
type MFAStorage interface {
	CreateFactor(ctx context.Context, factor *Factor) error
	GetFactor(ctx context.Context, id uuid.UUID) (*Factor, error)
	ListFactors(ctx context.Context, userID uuid.UUID) ([]*Factor, error)
	MarkFactorVerified(ctx context.Context, id uuid.UUID) error
	DeleteFactor(ctx context.Context, id uuid.UUID) error
}

// Enrollment is returned from Enroll with everything the client needs to
// finish setup: the secret for manual entry, the otpauth URI, and a QR
// code rendering of it.
type Enrollment struct {
	Factor *Factor
	URI    string
	QRCode []byte // PNG
}

// MFAService manages per-user TOTP factors.
type MFAService struct {
	storage MFAStorage
	issuer  string
	qrSize  int
}

type MFAOption func(*MFAService)

// WithQRSize sets the square pixel size of generated QR codes.
func WithQRSize(px int) MFAOption {
	return func(s *MFAService) { s.qrSize = px }
}

// NewMFAService creates the factor management service. The issuer is the
// service name shown in authenticator apps.
func NewMFAService(storage MFAStorage, issuer string, opts ...MFAOption) *MFAService {
	s := &MFAService{storage: storage, issuer: issuer, qrSize: 256}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Enroll creates an unverified factor for the user and returns the
// provisioning material. The factor must be confirmed with Verify before
// it is usable.
func (s *MFAService) Enroll(ctx context.Context, userID uuid.UUID, accountName, friendlyName string) (*Enrollment, error) {
	secret, err := generateSecretKey()
	if err != nil {
		return nil, err
	}

	factor := &Factor{
		ID:           uuid.New(),
		UserID:       userID,
		FriendlyName: friendlyName,
		Secret:       secret,
		Verified:     false,
		CreatedAt:    time.Now(),
	}

	if err := s.storage.CreateFactor(ctx, factor); err != nil {
		return nil, fmt.Errorf("failed to store factor: %w", err)
	}

	uri := provisioningURI(secret, accountName, s.issuer)

	png, err := qrcode.Encode(uri, qrcode.Medium, s.qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}

	return &Enrollment{Factor: factor, URI: uri, QRCode: png}, nil
}

// Verify confirms a pending factor with a live code. Verifying an
// already-verified factor is a no-op success.
func (s *MFAService) Verify(ctx context.Context, factorID uuid.UUID, code string) error {
	factor, err := s.storage.GetFactor(ctx, factorID)
	if err != nil {
		return err
	}

	ok, err := validateTOTP(factor.Secret, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCode
	}

	if factor.Verified {
		return nil
	}

	return s.storage.MarkFactorVerified(ctx, factorID)
}

// Challenge checks a code against a verified factor during sign-in.
func (s *MFAService) Challenge(ctx context.Context, factorID uuid.UUID, code string) error {
	factor, err := s.storage.GetFactor(ctx, factorID)
	if err != nil {
		return err
	}
	if !factor.Verified {
		return ErrFactorNotVerified
	}

	ok, err := validateTOTP(factor.Secret, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCode
	}

	return nil
}

// List returns the user's factors. Secrets are blanked: they are only
// revealed once, at enrollment.
func (s *MFAService) List(ctx context.Context, userID uuid.UUID) ([]*Factor, error) {
	factors, err := s.storage.ListFactors(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, f := range factors {
		f.Secret = ""
	}
	return factors, nil
}

// Unenroll removes a factor. Only the owner may remove it.
func (s *MFAService) Unenroll(ctx context.Context, userID, factorID uuid.UUID) error {
	factor, err := s.storage.GetFactor(ctx, factorID)
	if err != nil {
		return err
	}
	if factor.UserID != userID {
		return ErrFactorNotFound
	}

	return s.storage.DeleteFactor(ctx, factorID)
}
