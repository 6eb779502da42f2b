package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gatehouse-io/gatehouse/pkg/auth"
	"github.com/gatehouse-io/gatehouse/pkg/validator"
)

const testSecret = "test-token-secret"

func newPasswordService(storage *memoryStorage, opts ...auth.PasswordOption) *auth.PasswordService {
	opts = append([]auth.PasswordOption{auth.WithBcryptCost(bcrypt.MinCost)}, opts...)
	return auth.NewPasswordService(storage, testSecret, opts...)
}

func TestPasswordService_Register(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		storage := newMemoryStorage()
		svc := newPasswordService(storage)

		user, err := svc.Register(context.Background(), "  User@Example.COM ", "Passw0rd!", " Ada Lovelace ")
		require.NoError(t, err)

		assert.Equal(t, "user@example.com", user.Email)
		assert.Equal(t, "Ada Lovelace", user.DisplayName)
		assert.NotEqual(t, uuid.Nil, user.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()

		storage := newMemoryStorage()
		svc := newPasswordService(storage)

		_, err := svc.Register(context.Background(), "dup@example.com", "Passw0rd!", "")
		require.NoError(t, err)

		_, err = svc.Register(context.Background(), "DUP@example.com", "Passw0rd!", "")
		assert.ErrorIs(t, err, auth.ErrEmailAlreadyExists)
	})

	t.Run("invalid input", func(t *testing.T) {
		t.Parallel()

		storage := newMemoryStorage()
		svc := newPasswordService(storage)

		_, err := svc.Register(context.Background(), "not-an-email", "Passw0rd!", "")
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.Fields(), "email")

		_, err = svc.Register(context.Background(), "ok@example.com", "short", "")
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.Fields(), "password")
	})

	t.Run("rolls back user when hash save fails", func(t *testing.T) {
		t.Parallel()

		storage := newMemoryStorage()
		storage.failStoreHash = true
		svc := newPasswordService(storage)

		_, err := svc.Register(context.Background(), "doomed@example.com", "Passw0rd!", "")
		require.Error(t, err)

		storage.failStoreHash = false
		_, err = svc.Register(context.Background(), "doomed@example.com", "Passw0rd!", "")
		assert.NoError(t, err)
	})
}

func TestPasswordService_Authenticate(t *testing.T) {
	t.Parallel()

	storage := newMemoryStorage()
	svc := newPasswordService(storage)

	registered, err := svc.Register(context.Background(), "auth@example.com", "Passw0rd!", "")
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()

		user, err := svc.Authenticate(context.Background(), "Auth@Example.com", "Passw0rd!")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
	})

	t.Run("wrong password and unknown email look identical", func(t *testing.T) {
		t.Parallel()

		_, wrongPass := svc.Authenticate(context.Background(), "auth@example.com", "wrong")
		_, unknown := svc.Authenticate(context.Background(), "ghost@example.com", "Passw0rd!")

		assert.ErrorIs(t, wrongPass, auth.ErrInvalidCredentials)
		assert.ErrorIs(t, unknown, auth.ErrInvalidCredentials)
		assert.Equal(t, wrongPass, unknown)
	})
}

func TestPasswordService_ResetFlow(t *testing.T) {
	t.Parallel()

	storage := newMemoryStorage()
	svc := newPasswordService(storage)

	user, err := svc.Register(context.Background(), "reset@example.com", "OldPassw0rd", "")
	require.NoError(t, err)

	request, err := svc.ForgotPassword(context.Background(), "Reset@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "reset@example.com", request.Email)
	assert.NotEmpty(t, request.Token)
	assert.True(t, request.ExpiresAt.After(time.Now()))

	t.Run("valid token resets the password", func(t *testing.T) {
		updated, err := svc.ResetPassword(context.Background(), request.Token, "NewPassw0rd")
		require.NoError(t, err)
		assert.Equal(t, user.ID, updated.ID)

		_, err = svc.Authenticate(context.Background(), "reset@example.com", "OldPassw0rd")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

		_, err = svc.Authenticate(context.Background(), "reset@example.com", "NewPassw0rd")
		assert.NoError(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ResetPassword(context.Background(), "not-a-token", "NewPassw0rd")
		assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	})

	t.Run("expired token", func(t *testing.T) {
		expiring := newPasswordService(storage, auth.WithResetTokenTTL(-time.Minute))
		request, err := expiring.ForgotPassword(context.Background(), "reset@example.com")
		require.NoError(t, err)

		_, err = expiring.ResetPassword(context.Background(), request.Token, "AnotherPassw0rd1")
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.ForgotPassword(context.Background(), "nobody@example.com")
		assert.Error(t, err)
	})
}
