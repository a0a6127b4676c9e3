// Package jwtx signs and verifies the EdDSA access tokens the auth service
// issues once a login (and, when enrolled, the second factor) succeeds.
package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTokenTTL is the default access token lifetime. Short-lived
// because there is no refresh flow in this service.
const DefaultAccessTokenTTL = 15 * time.Minute

// Authentication Method Reference values recorded in the amr claim.
const (
	// AMRPassword marks password-based authentication.
	AMRPassword = "pwd"
	// AMRMFA marks that a TOTP second factor was verified.
	AMRMFA = "mfa"
)

// Claims are the access-token claims. Additive changes only, to keep old
// tokens parsable.
type Claims struct {
	jwt.RegisteredClaims

	// AMR lists how the user authenticated, e.g. ["pwd","mfa"]. Lets
	// downstream services require MFA for sensitive operations.
	AMR []string `json:"amr,omitempty"`

	// Email of the authenticated user, for display only.
	Email string `json:"email,omitempty"`
}

// NewAccessClaims builds minimally-correct claims for an access token.
func NewAccessClaims(
	subject, email string,
	amr []string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		AMR:   amr,
		Email: email,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
