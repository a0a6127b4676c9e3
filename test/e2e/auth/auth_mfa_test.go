package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aegis-id/aegis/pkg/authsdk"
	"github.com/aegis-id/aegis/pkg/totpx"
	"github.com/stretchr/testify/require"
)

// currentCode computes the TOTP code an authenticator app would show now.
func currentCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := totpx.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	return code
}

// TestMFAFullLifecycle walks the complete happy path: enroll, confirm,
// challenged login, second-factor verification, revoke, and back to
// password-only logins.
func TestMFAFullLifecycle(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewClient(baseURL)
	userID := bootstrapService(t, client)
	session := loginSession(t, client)

	// Enroll
	enroll, err := session.EnrollTOTP(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, enroll.Secret)
	require.True(t, strings.HasPrefix(enroll.URL, "otpauth://totp/"))
	require.Contains(t, enroll.URL, enroll.Secret)
	require.Equal(t, adminEmail, enroll.Account)

	// A pending enrollment does not gate login yet.
	login, err := client.Login(t.Context(), adminEmail, adminPassword)
	require.NoError(t, err)
	require.False(t, login.MFARequired)

	// Confirm with the authenticator code
	require.NoError(t, session.ConfirmTOTP(t.Context(), currentCode(t, enroll.Secret)))

	status, err := session.MFAStatus(t.Context())
	require.NoError(t, err)
	require.True(t, status.Enrolled)
	require.Equal(t, "ACTIVE", status.Status)

	// Login is now challenged
	challenged, err := client.Login(t.Context(), adminEmail, adminPassword)
	require.NoError(t, err)
	require.True(t, challenged.MFARequired)
	require.Equal(t, userID, challenged.UserID)
	require.Empty(t, challenged.AccessToken)

	// Wrong code is rejected, right code completes the login
	_, err = client.VerifyMFA(t.Context(), challenged.UserID, "000000")
	assertAPIError(t, err, authsdk.ErrorCodeInvalidCode)

	final, err := client.VerifyMFA(t.Context(), challenged.UserID, currentCode(t, enroll.Secret))
	require.NoError(t, err)
	require.NotEmpty(t, final.AccessToken)
	require.Equal(t, "Bearer", final.TokenType)

	// Revoke and verify password-only logins are back
	mfaSession := client.NewSession(final.AccessToken)
	require.NoError(t, mfaSession.RevokeTOTP(t.Context()))

	after, err := client.Login(t.Context(), adminEmail, adminPassword)
	require.NoError(t, err)
	require.False(t, after.MFARequired)
	require.NotEmpty(t, after.AccessToken)

	// Revoke is idempotent
	require.NoError(t, mfaSession.RevokeTOTP(t.Context()))
}

func TestMFAEnrollmentEdgeCases(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewClient(baseURL)
	bootstrapService(t, client)
	session := loginSession(t, client)

	t.Run("confirm before enroll", func(t *testing.T) {
		err := session.ConfirmTOTP(t.Context(), "123456")
		assertAPIError(t, err, authsdk.ErrorCodeMFANotEnrolled)
	})

	t.Run("re-enroll supersedes pending secret", func(t *testing.T) {
		first, err := session.EnrollTOTP(t.Context())
		require.NoError(t, err)

		second, err := session.EnrollTOTP(t.Context())
		require.NoError(t, err)
		require.NotEqual(t, first.Secret, second.Secret)

		// The superseded secret no longer confirms.
		err = session.ConfirmTOTP(t.Context(), currentCode(t, first.Secret))
		assertAPIError(t, err, authsdk.ErrorCodeInvalidCode)

		require.NoError(t, session.ConfirmTOTP(t.Context(), currentCode(t, second.Secret)))
	})

	t.Run("enroll rejected while active", func(t *testing.T) {
		_, err := session.EnrollTOTP(t.Context())
		assertAPIError(t, err, authsdk.ErrorCodeMFAAlreadyEnrolled)
	})

	t.Run("double confirm rejected", func(t *testing.T) {
		err := session.ConfirmTOTP(t.Context(), "123456")
		assertAPIError(t, err, authsdk.ErrorCodeMFAAlreadyConfirmed)
	})

	t.Run("mfa endpoints require a token", func(t *testing.T) {
		_, err := client.NewSession("not-a-token").EnrollTOTP(t.Context())
		assertAPIError(t, err, authsdk.ErrorCodeInvalidToken)
	})
}
