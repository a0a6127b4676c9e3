package service

import (
	"fmt"
	"time"

	"github.com/aegis-id/aegis/pkg/jwtx"
)

// TokenIssuer mints access tokens for authenticated users. The amr slice
// records which factors were presented ("pwd", or "pwd"+"mfa").
type TokenIssuer interface {
	Issue(userID string, email string, amr []string) (string, error)
}

// TokenService issues signed JWT access tokens.
type TokenService struct {
	Signer    jwtx.Signer
	Issuer    string        // Token issuer claim (e.g., "aegis")
	AccessTTL time.Duration // Access token lifetime, defaults to jwtx.DefaultAccessTokenTTL
	Clock     Clock
}

func (s *TokenService) Issue(userID string, email string, amr []string) (string, error) {
	ttl := s.AccessTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}

	claims := jwtx.NewAccessClaims(userID, email, amr, ttl, s.Issuer, s.Clock.Now())
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, nil
}
