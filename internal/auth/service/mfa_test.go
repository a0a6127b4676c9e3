package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aegis-id/aegis/internal/auth/domain"
	"github.com/aegis-id/aegis/pkg/totpx"
	"github.com/stretchr/testify/require"
)

func newMFAService(t *testing.T) (*MFAService, domain.User) {
	t.Helper()

	st := newTestStore(t)
	user := createUser(t, st, "alice@example.com", "correct horse battery")

	svc := &MFAService{
		Store:  st,
		TOTP:   totpx.Generator{},
		Issuer: "Aegis",
		Clock:  fixedClock{stepTime},
	}
	return svc, user
}

func codeFor(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totpx.GenerateCode(secret, at)
	require.NoError(t, err)
	return code
}

func TestEnrollCreatesPendingSecret(t *testing.T) {
	ctx := context.Background()
	svc, user := newMFAService(t)

	resp, err := svc.Enroll(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, resp.SecretID)
	require.Len(t, resp.Secret, 32) // 20 bytes -> 32 base32 chars
	require.Equal(t, "Aegis", resp.Issuer)
	require.Equal(t, user.Email, resp.Account)
	require.True(t, strings.HasPrefix(resp.URL, "otpauth://totp/Aegis:"))
	require.Contains(t, resp.URL, "secret="+resp.Secret)

	stored, err := svc.Store.MFASecrets().FindLatestByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, domain.MFAStatusPending, stored.Status)
	require.Equal(t, resp.Secret, stored.Secret)

	// A pending secret does not count as enrolled.
	status, ok, err := svc.Status(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, domain.MFAStatusPending, status)
}

func TestEnrollSupersedesPendingSecret(t *testing.T) {
	ctx := context.Background()
	svc, user := newMFAService(t)

	first, err := svc.Enroll(ctx, user.ID)
	require.NoError(t, err)

	second, err := svc.Enroll(ctx, user.ID)
	require.NoError(t, err)
	require.NotEqual(t, first.Secret, second.Secret)

	// The first secret is dead: confirming with its code must fail even
	// though the code itself is arithmetically valid.
	err = svc.Confirm(ctx, user.ID, codeFor(t, first.Secret, stepTime))
	require.ErrorIs(t, err, ErrInvalidTOTPCode)

	require.NoError(t, svc.Confirm(ctx, user.ID, codeFor(t, second.Secret, stepTime)))
}

func TestEnrollRejectedWhileActive(t *testing.T) {
	ctx := context.Background()
	svc, user := newMFAService(t)

	resp, err := svc.Enroll(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Confirm(ctx, user.ID, codeFor(t, resp.Secret, stepTime)))

	_, err = svc.Enroll(ctx, user.ID)
	require.ErrorIs(t, err, ErrAlreadyEnrolled)

	// Revoking clears the way for a fresh enrollment.
	require.NoError(t, svc.Revoke(ctx, user.ID))
	_, err = svc.Enroll(ctx, user.ID)
	require.NoError(t, err)
}

func TestConfirmLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, user := newMFAService(t)

	t.Run("before enrollment", func(t *testing.T) {
		err := svc.Confirm(ctx, user.ID, "000000")
		require.ErrorIs(t, err, ErrNotEnrolled)
	})

	resp, err := svc.Enroll(ctx, user.ID)
	require.NoError(t, err)

	t.Run("wrong code leaves enrollment pending", func(t *testing.T) {
		err := svc.Confirm(ctx, user.ID, "000000")
		require.ErrorIs(t, err, ErrInvalidTOTPCode)

		stored, err := svc.Store.MFASecrets().FindLatestByUser(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, domain.MFAStatusPending, stored.Status)
	})

	t.Run("valid code activates", func(t *testing.T) {
		require.NoError(t, svc.Confirm(ctx, user.ID, codeFor(t, resp.Secret, stepTime)))

		status, ok, err := svc.Status(ctx, user.ID)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, domain.MFAStatusActive, status)
	})

	t.Run("second confirm reports already confirmed", func(t *testing.T) {
		err := svc.Confirm(ctx, user.ID, codeFor(t, resp.Secret, stepTime))
		require.ErrorIs(t, err, ErrAlreadyConfirmed)
	})

	t.Run("confirm after revoke reports not enrolled", func(t *testing.T) {
		require.NoError(t, svc.Revoke(ctx, user.ID))
		err := svc.Confirm(ctx, user.ID, codeFor(t, resp.Secret, stepTime))
		require.ErrorIs(t, err, ErrNotEnrolled)
	})
}

func TestConfirmAcceptsAdjacentSteps(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		offset time.Duration
		ok     bool
	}{
		{"previous step", -30 * time.Second, true},
		{"next step", 30 * time.Second, true},
		{"two steps behind", -60 * time.Second, false},
		{"two steps ahead", 60 * time.Second, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, user := newMFAService(t)

			resp, err := svc.Enroll(ctx, user.ID)
			require.NoError(t, err)

			err = svc.Confirm(ctx, user.ID, codeFor(t, resp.Secret, stepTime.Add(tc.offset)))
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalidTOTPCode)
			}
		})
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, user := newMFAService(t)

	// Nothing to revoke is not an error.
	require.NoError(t, svc.Revoke(ctx, user.ID))

	resp, err := svc.Enroll(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Confirm(ctx, user.ID, codeFor(t, resp.Secret, stepTime)))

	require.NoError(t, svc.Revoke(ctx, user.ID))
	require.NoError(t, svc.Revoke(ctx, user.ID))

	status, ok, err := svc.Status(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, domain.MFAStatusRevoked, status)
}

func TestStatusForUnenrolledUser(t *testing.T) {
	svc, user := newMFAService(t)

	_, ok, err := svc.Status(context.Background(), user.ID)
	require.NoError(t, err)
	require.False(t, ok)
}
