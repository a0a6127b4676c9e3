package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aegis-id/aegis/internal/auth/domain"
	"github.com/aegis-id/aegis/internal/auth/store"
	"github.com/aegis-id/aegis/pkg/idx"
	"github.com/aegis-id/aegis/pkg/totpx"
)

var (
	ErrAlreadyEnrolled  = errors.New("MFA already enabled for this user")
	ErrNotEnrolled      = errors.New("MFA not enrolled for this user")
	ErrAlreadyConfirmed = errors.New("MFA enrollment already confirmed")
	ErrInvalidTOTPCode  = errors.New("invalid TOTP code")
)

// MFAService manages the TOTP enrollment lifecycle: a secret is created
// PENDING, promoted to ACTIVE by a successful code confirmation, and
// retired to REVOKED. At most one ACTIVE secret exists per user.
type MFAService struct {
	Store  store.Store
	TOTP   totpx.Generator
	Issuer string // Issuer label embedded in provisioning URIs (e.g., "Aegis")
	Clock  Clock
}

// Enroll provisions a fresh PENDING secret for the user and returns it
// with its otpauth:// URI. A previous unconfirmed secret is superseded;
// an ACTIVE secret must be revoked before re-enrolling.
func (s *MFAService) Enroll(ctx context.Context, userID string) (domain.MFAEnrollResponse, error) {
	var resp domain.MFAEnrollResponse

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}

		_, err = tx.MFASecrets().FindByUserAndStatus(ctx, userID, domain.MFAStatusActive)
		switch {
		case err == nil:
			return ErrAlreadyEnrolled
		case !errors.Is(err, store.ErrNotFound):
			return storeErr(err)
		}

		// A re-enroll replaces any unconfirmed secret rather than
		// leaving stale PENDING rows behind.
		pending, err := tx.MFASecrets().FindByUserAndStatus(ctx, userID, domain.MFAStatusPending)
		switch {
		case err == nil:
			if err := tx.MFASecrets().UpdateStatus(ctx, pending.ID, domain.MFAStatusPending, domain.MFAStatusRevoked); err != nil {
				return fmt.Errorf("failed to supersede pending secret: %w", err)
			}
		case !errors.Is(err, store.ErrNotFound):
			return storeErr(err)
		}

		secret, err := s.TOTP.GenerateSecret()
		if err != nil {
			return fmt.Errorf("failed to generate TOTP secret: %w", err)
		}

		now := s.Clock.Now().UTC()
		record := domain.MFASecret{
			ID:        idx.New().String(),
			UserID:    userID,
			Secret:    secret,
			Status:    domain.MFAStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.MFASecrets().Create(ctx, record); err != nil {
			return fmt.Errorf("failed to store MFA secret: %w", err)
		}

		resp = domain.MFAEnrollResponse{
			SecretID: record.ID,
			Secret:   secret,
			URL:      totpx.ProvisioningURI(s.Issuer, user.Email, secret),
			Issuer:   s.Issuer,
			Account:  user.Email,
		}
		return nil
	})
	if err != nil {
		return domain.MFAEnrollResponse{}, err
	}
	return resp, nil
}

// Confirm promotes the user's PENDING secret to ACTIVE once the
// submitted code verifies against it. Invalid codes leave the
// enrollment untouched so the user can retry.
func (s *MFAService) Confirm(ctx context.Context, userID string, code string) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		pending, err := tx.MFASecrets().FindByUserAndStatus(ctx, userID, domain.MFAStatusPending)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return s.confirmStateError(ctx, tx, userID)
			}
			return storeErr(err)
		}

		if !totpx.VerifyCode(pending.Secret, code, s.Clock.Now()) {
			return ErrInvalidTOTPCode
		}

		if err := tx.MFASecrets().UpdateStatus(ctx, pending.ID, domain.MFAStatusPending, domain.MFAStatusActive); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrAlreadyConfirmed
			}
			return fmt.Errorf("failed to activate MFA secret: %w", err)
		}
		return nil
	})
}

// confirmStateError distinguishes "never enrolled" from "already
// confirmed" when no PENDING secret exists.
func (s *MFAService) confirmStateError(ctx context.Context, tx store.Tx, userID string) error {
	latest, err := tx.MFASecrets().FindLatestByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotEnrolled
		}
		return storeErr(err)
	}
	if latest.Status == domain.MFAStatusActive {
		return ErrAlreadyConfirmed
	}
	return ErrNotEnrolled
}

// Revoke retires the user's ACTIVE secret. Revoking a user with no
// active secret is a no-op, so the operation is safe to repeat.
func (s *MFAService) Revoke(ctx context.Context, userID string) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		active, err := tx.MFASecrets().FindByUserAndStatus(ctx, userID, domain.MFAStatusActive)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return storeErr(err)
		}

		err = tx.MFASecrets().UpdateStatus(ctx, active.ID, domain.MFAStatusActive, domain.MFAStatusRevoked)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("failed to revoke MFA secret: %w", err)
		}
		return nil
	})
}

// Status reports the user's current MFA posture from their most recent
// secret. Users who never enrolled report REVOKED-equivalent absence
// via the returned ok flag.
func (s *MFAService) Status(ctx context.Context, userID string) (domain.MFAStatus, bool, error) {
	latest, err := s.Store.MFASecrets().FindLatestByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", false, nil
		}
		return "", false, storeErr(err)
	}
	return latest.Status, true, nil
}
