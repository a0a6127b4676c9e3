package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aegis-id/aegis/internal/auth/domain"
	"github.com/aegis-id/aegis/internal/auth/store"
	"github.com/aegis-id/aegis/pkg/cryptox"
	"github.com/aegis-id/aegis/pkg/jwtx"
	"github.com/aegis-id/aegis/pkg/totpx"
)

// ErrInvalidCredentials covers both unknown users and wrong passwords so
// login responses cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CredentialVerifier checks a first-factor credential and returns the
// matching user.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (domain.User, error)
}

// StoreCredentials verifies email/password pairs against stored argon2id
// hashes.
type StoreCredentials struct {
	Store store.Store
}

func (v StoreCredentials) Verify(ctx context.Context, email, password string) (domain.User, error) {
	user, err := v.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, storeErr(err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// LoginService gates token issuance on the user's MFA posture. A user
// with an ACTIVE secret gets a second-factor challenge instead of a
// token; everyone else who passes the password check gets a token
// immediately.
type LoginService struct {
	Store       store.Store
	Credentials CredentialVerifier
	Tokens      TokenIssuer
	Clock       Clock
}

// Login performs first-factor authentication. The result either carries
// an access token or flags that a TOTP code is still required.
func (s *LoginService) Login(ctx context.Context, email, password string) (domain.LoginResult, error) {
	user, err := s.Credentials.Verify(ctx, email, password)
	if err != nil {
		return domain.LoginResult{}, err
	}

	_, err = s.Store.MFASecrets().FindByUserAndStatus(ctx, user.ID, domain.MFAStatusActive)
	switch {
	case err == nil:
		return domain.MFAChallenge(user.ID), nil
	case errors.Is(err, store.ErrNotFound):
		// PENDING and REVOKED secrets do not gate login.
	default:
		return domain.LoginResult{}, storeErr(err)
	}

	token, err := s.Tokens.Issue(user.ID, user.Email, []string{jwtx.AMRPassword})
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("failed to issue access token: %w", err)
	}
	return domain.Authenticated(token), nil
}

// VerifySecondFactor completes a challenged login by checking the TOTP
// code against the user's ACTIVE secret.
func (s *LoginService) VerifySecondFactor(ctx context.Context, userID, code string) (domain.LoginResult, error) {
	active, err := s.Store.MFASecrets().FindByUserAndStatus(ctx, userID, domain.MFAStatusActive)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.LoginResult{}, ErrNotEnrolled
		}
		return domain.LoginResult{}, storeErr(err)
	}

	if !totpx.VerifyCode(active.Secret, code, s.Clock.Now()) {
		return domain.LoginResult{}, ErrInvalidTOTPCode
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.LoginResult{}, ErrInvalidCredentials
		}
		return domain.LoginResult{}, storeErr(err)
	}

	token, err := s.Tokens.Issue(user.ID, user.Email, []string{jwtx.AMRPassword, jwtx.AMRMFA})
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("failed to issue access token: %w", err)
	}
	return domain.Authenticated(token), nil
}
