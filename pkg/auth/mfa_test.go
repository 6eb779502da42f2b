package auth_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-io/gatehouse/pkg/auth"
)

func enroll(t *testing.T, svc *auth.MFAService, userID uuid.UUID) *auth.Enrollment {
	t.Helper()

	enrollment, err := svc.Enroll(context.Background(), userID, "user@example.com", "phone")
	require.NoError(t, err)
	return enrollment
}

func TestMFAService_Enroll(t *testing.T) {
	t.Parallel()

	storage := newMemoryStorage()
	svc := auth.NewMFAService(storage, "Gatehouse")
	userID := uuid.New()

	enrollment := enroll(t, svc, userID)

	assert.False(t, enrollment.Factor.Verified)
	assert.Equal(t, userID, enrollment.Factor.UserID)
	assert.NotEmpty(t, enrollment.Factor.Secret)
	assert.True(t, strings.HasPrefix(enrollment.URI, "otpauth://totp/Gatehouse:"))
	assert.Contains(t, enrollment.URI, "issuer=Gatehouse")
	assert.NotEmpty(t, enrollment.QRCode)
	// PNG magic bytes.
	assert.Equal(t, "\x89PNG", string(enrollment.QRCode[:4]))
}

func TestMFAService_VerifyAndChallenge(t *testing.T) {
	t.Parallel()

	storage := newMemoryStorage()
	svc := auth.NewMFAService(storage, "Gatehouse")
	userID := uuid.New()
	enrollment := enroll(t, svc, userID)

	// An unverified factor must not pass a challenge even with a valid code.
	code, err := auth.GenerateTOTP(enrollment.Factor.Secret)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Challenge(context.Background(), enrollment.Factor.ID, code), auth.ErrFactorNotVerified)

	// Wrong code fails verification.
	assert.ErrorIs(t, svc.Verify(context.Background(), enrollment.Factor.ID, "000000"), auth.ErrInvalidCode)

	require.NoError(t, svc.Verify(context.Background(), enrollment.Factor.ID, code))

	code, err = auth.GenerateTOTP(enrollment.Factor.Secret)
	require.NoError(t, err)
	assert.NoError(t, svc.Challenge(context.Background(), enrollment.Factor.ID, code))
	assert.ErrorIs(t, svc.Challenge(context.Background(), enrollment.Factor.ID, "999999"), auth.ErrInvalidCode)
}

func TestMFAService_ListBlanksSecrets(t *testing.T) {
	t.Parallel()

	storage := newMemoryStorage()
	svc := auth.NewMFAService(storage, "Gatehouse")
	userID := uuid.New()
	enroll(t, svc, userID)
	enroll(t, svc, userID)
	enroll(t, svc, uuid.New()) // someone else's factor

	factors, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, factors, 2)
	for _, f := range factors {
		assert.Empty(t, f.Secret)
	}
}

func TestMFAService_Unenroll(t *testing.T) {
	t.Parallel()

	storage := newMemoryStorage()
	svc := auth.NewMFAService(storage, "Gatehouse")
	userID := uuid.New()
	enrollment := enroll(t, svc, userID)

	t.Run("not the owner", func(t *testing.T) {
		err := svc.Unenroll(context.Background(), uuid.New(), enrollment.Factor.ID)
		assert.ErrorIs(t, err, auth.ErrFactorNotFound)
	})

	t.Run("owner removes factor", func(t *testing.T) {
		require.NoError(t, svc.Unenroll(context.Background(), userID, enrollment.Factor.ID))

		factors, err := svc.List(context.Background(), userID)
		require.NoError(t, err)
		assert.Empty(t, factors)
	})

	t.Run("unknown factor", func(t *testing.T) {
		err := svc.Unenroll(context.Background(), userID, uuid.New())
		assert.ErrorIs(t, err, auth.ErrFactorNotFound)
	})
}
