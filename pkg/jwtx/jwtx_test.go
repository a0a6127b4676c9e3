package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := GenerateSigner("test-key-001")
	require.NoError(t, err)
	require.Equal(t, "EdDSA", signer.Alg())
	require.Equal(t, "test-key-001", signer.KID())

	now := time.Now()
	claims := NewAccessClaims(
		"01JA0USER00000000000000000",
		"user@example.com",
		[]string{AMRPassword, AMRMFA},
		DefaultAccessTokenTTL,
		"aegis-auth",
		now,
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	verifier := signer.Verifier(VerifyOptions{Issuer: "aegis-auth"})
	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "01JA0USER00000000000000000", got.Subject)
	require.Equal(t, "user@example.com", got.Email)
	require.Equal(t, []string{AMRPassword, AMRMFA}, got.AMR)
	require.NotEmpty(t, got.ID, "jti should be set")
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	signer, err := GenerateSigner("kid")
	require.NoError(t, err)

	claims := NewAccessClaims("sub", "", []string{AMRPassword}, time.Minute, "other-issuer", time.Now())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = signer.Verifier(VerifyOptions{Issuer: "aegis-auth"}).Verify(token)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	signer, err := GenerateSigner("kid")
	require.NoError(t, err)

	issued := time.Now().Add(-time.Hour)
	claims := NewAccessClaims("sub", "", nil, time.Minute, "aegis-auth", issued)
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = signer.Verifier(VerifyOptions{Issuer: "aegis-auth"}).Verify(token)
	require.ErrorIs(t, err, ErrExpired)

	// Generous leeway should make the same token acceptable again.
	_, err = signer.Verifier(VerifyOptions{Issuer: "aegis-auth", Leeway: 2 * time.Hour}).Verify(token)
	require.NoError(t, err)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	t.Parallel()

	signer, err := GenerateSigner("kid-a")
	require.NoError(t, err)
	other, err := GenerateSigner("kid-b")
	require.NoError(t, err)

	claims := NewAccessClaims("sub", "", nil, time.Minute, "aegis-auth", time.Now())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = other.Verifier(VerifyOptions{Issuer: "aegis-auth"}).Verify(token)
	require.ErrorIs(t, err, ErrInvalidSig)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	signer, err := GenerateSigner("kid")
	require.NoError(t, err)
	verifier := signer.Verifier(VerifyOptions{})

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := verifier.Verify(token)
		require.Error(t, err)
	}
}
