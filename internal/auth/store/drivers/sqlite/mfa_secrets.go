package sqlite

import (
	"context"
	"time"

	"github.com/aegis-id/aegis/internal/auth/domain"
	"github.com/aegis-id/aegis/internal/auth/store"
	"github.com/aegis-id/aegis/pkg/cryptox"
)

type mfaSecretsRepo struct {
	q querier
}

const mfaSecretColumns = `id, user_id, secret, status, created_at, updated_at`

func (r *mfaSecretsRepo) Create(ctx context.Context, s domain.MFASecret) error {
	encrypted, err := cryptox.EncryptSecret(s.Secret)
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO mfa_secrets (id, user_id, secret, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, encrypted, string(s.Status), s.CreatedAt, s.UpdatedAt)
	return mapConstraint(err)
}

func (r *mfaSecretsRepo) FindByUserAndStatus(
	ctx context.Context,
	userID string,
	status domain.MFAStatus,
) (domain.MFASecret, error) {
	// IDs are ULIDs, so ordering by id is creation order.
	row := r.q.QueryRowContext(ctx,
		`SELECT `+mfaSecretColumns+` FROM mfa_secrets
		 WHERE user_id = ? AND status = ?
		 ORDER BY id DESC LIMIT 1`,
		userID, string(status))
	return scanMFASecret(row)
}

func (r *mfaSecretsRepo) FindLatestByUser(ctx context.Context, userID string) (domain.MFASecret, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+mfaSecretColumns+` FROM mfa_secrets
		 WHERE user_id = ?
		 ORDER BY id DESC LIMIT 1`,
		userID)
	return scanMFASecret(row)
}

// UpdateStatus is the compare-and-swap behind every lifecycle transition.
// The WHERE clause re-checks the status read by the caller, so two racing
// confirmations cannot both move the same row.
func (r *mfaSecretsRepo) UpdateStatus(ctx context.Context, id string, from, to domain.MFAStatus) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE mfa_secrets SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(to), time.Now().UTC(), id, string(from))
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanMFASecret(row rowScanner) (domain.MFASecret, error) {
	var (
		s      domain.MFASecret
		status string
	)
	err := row.Scan(&s.ID, &s.UserID, &s.Secret, &status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return domain.MFASecret{}, mapNotFound(err)
	}
	s.Status = domain.MFAStatus(status)

	plaintext, err := cryptox.DecryptSecret(s.Secret)
	if err != nil {
		return domain.MFASecret{}, err
	}
	s.Secret = plaintext

	return s, nil
}
