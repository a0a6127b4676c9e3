package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/aegis-id/aegis/internal/auth/domain"
	"github.com/aegis-id/aegis/internal/auth/store"
	"github.com/aegis-id/aegis/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedUser(t *testing.T, st *Store) domain.User {
	t.Helper()

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        "alice@example.com",
		PasswordHash: "argon2-hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func seedSecret(t *testing.T, st *Store, userID string, status domain.MFAStatus) domain.MFASecret {
	t.Helper()

	now := time.Now().UTC()
	s := domain.MFASecret{
		ID:        idx.New().String(),
		UserID:    userID,
		Secret:    "JBSWY3DPEHPK3PXP",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, st.MFASecrets().Create(context.Background(), s))
	return s
}

func TestUsersRepo(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	empty, err := st.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	u := seedUser(t, st)

	empty, err = st.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)

	byID, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, byID.Email)

	byEmail, err := st.Users().GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	_, err = st.Users().GetUserByEmail(ctx, "ghost@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Email is unique
	dup := u
	dup.ID = idx.New().String()
	err = st.Users().CreateUser(ctx, dup)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestMFASecretsRoundtrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	u := seedUser(t, st)
	s := seedSecret(t, st, u.ID, domain.MFAStatusPending)

	got, err := st.MFASecrets().FindByUserAndStatus(ctx, u.ID, domain.MFAStatusPending)
	require.NoError(t, err)
	require.Equal(t, s.ID, got.ID)
	require.Equal(t, s.Secret, got.Secret)
	require.Equal(t, domain.MFAStatusPending, got.Status)

	_, err = st.MFASecrets().FindByUserAndStatus(ctx, u.ID, domain.MFAStatusActive)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestMFASecretsEncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	u := seedUser(t, st)
	s := seedSecret(t, st, u.ID, domain.MFAStatusPending)

	// Read the raw column: it must not contain the plaintext secret.
	var raw string
	err := st.db.QueryRowContext(ctx,
		`SELECT secret FROM mfa_secrets WHERE id = ?`, s.ID).Scan(&raw)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.NotEqual(t, s.Secret, raw)
	require.NotContains(t, raw, s.Secret)
}

func TestMFASecretsLatestByUser(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	u := seedUser(t, st)

	_, err := st.MFASecrets().FindLatestByUser(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	seedSecret(t, st, u.ID, domain.MFAStatusRevoked)
	second := seedSecret(t, st, u.ID, domain.MFAStatusPending)

	latest, err := st.MFASecrets().FindLatestByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, second.ID, latest.ID)
}

func TestUpdateStatusCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	u := seedUser(t, st)
	s := seedSecret(t, st, u.ID, domain.MFAStatusPending)

	// Transition conditioned on a stale status fails and changes nothing.
	err := st.MFASecrets().UpdateStatus(ctx, s.ID, domain.MFAStatusActive, domain.MFAStatusRevoked)
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err := st.MFASecrets().FindLatestByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.MFAStatusPending, got.Status)

	// The correct precondition succeeds exactly once.
	require.NoError(t,
		st.MFASecrets().UpdateStatus(ctx, s.ID, domain.MFAStatusPending, domain.MFAStatusActive))
	err = st.MFASecrets().UpdateStatus(ctx, s.ID, domain.MFAStatusPending, domain.MFAStatusActive)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestOneActiveSecretPerUser(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	u := seedUser(t, st)

	first := seedSecret(t, st, u.ID, domain.MFAStatusPending)
	require.NoError(t,
		st.MFASecrets().UpdateStatus(ctx, first.ID, domain.MFAStatusPending, domain.MFAStatusActive))

	// The partial unique index rejects a second ACTIVE row outright.
	second := seedSecret(t, st, u.ID, domain.MFAStatusPending)
	err := st.MFASecrets().UpdateStatus(ctx, second.ID, domain.MFAStatusPending, domain.MFAStatusActive)
	require.Error(t, err)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	u := seedUser(t, st)

	sentinel := store.ErrAlreadyExists
	err := st.WithTx(ctx, func(tx store.Tx) error {
		now := time.Now().UTC()
		if err := tx.MFASecrets().Create(ctx, domain.MFASecret{
			ID:        idx.New().String(),
			UserID:    u.ID,
			Secret:    "JBSWY3DPEHPK3PXP",
			Status:    domain.MFAStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = st.MFASecrets().FindLatestByUser(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}
