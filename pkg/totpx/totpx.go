// Package totpx implements the TOTP arithmetic used for second-factor
// verification: secret generation, otpauth provisioning URIs, and
// drift-tolerant code verification per RFC 6238 / RFC 4226.
//
// All functions are pure with respect to process state. Time is always an
// explicit parameter so callers can inject a clock, and the secret
// generator takes an explicit entropy source so tests can be deterministic.
package totpx

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// Period is the TOTP time-step in seconds. The counter is
	// floor(unixSeconds / Period).
	Period = 30

	// Skew is the drift tolerance in time-steps on either side of now.
	Skew = 1

	// SecretSize is the raw secret length in bytes (160 bits).
	SecretSize = 20
)

// b32 is the RFC 4648 base32 alphabet without padding, the encoding
// authenticator apps expect for manual secret entry.
var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// validateOpts pins the algorithm parameters for every code operation.
// SHA-1 and 6 digits are fixed per the standard authenticator defaults and
// are not configurable here.
func validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    Period,
		Skew:      Skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// Generator produces new TOTP secrets. The zero value reads from
// crypto/rand; tests may supply a fixed Rand.
type Generator struct {
	Rand io.Reader
}

// GenerateSecret returns a fresh 160-bit secret encoded as unpadded base32.
func (g Generator) GenerateSecret() (string, error) {
	src := g.Rand
	if src == nil {
		src = rand.Reader
	}

	buf := make([]byte, SecretSize)
	if _, err := io.ReadFull(src, buf); err != nil {
		return "", fmt.Errorf("totpx: read entropy: %w", err)
	}

	return b32.EncodeToString(buf), nil
}

// ProvisioningURI formats the otpauth:// URI that transfers a secret to an
// authenticator app. The caller is responsible for rendering it as a QR
// code; this is pure string formatting.
func ProvisioningURI(issuer, account, secret string) string {
	return fmt.Sprintf(
		"otpauth://totp/%s:%s?secret=%s&issuer=%s&digits=6&period=%d",
		url.PathEscape(issuer),
		url.PathEscape(account),
		secret,
		url.QueryEscape(issuer),
		Period,
	)
}

// GenerateCode computes the 6-digit code for the time-step containing t,
// zero-padded per RFC 4226 dynamic truncation.
func GenerateCode(secret string, t time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(secret, t, validateOpts())
	if err != nil {
		return "", fmt.Errorf("totpx: generate code: %w", err)
	}
	return code, nil
}

// VerifyCode reports whether code matches the secret at time t, accepting
// codes from the adjacent time-steps (±1) to tolerate client clock drift.
// Candidate comparison is constant-time. A malformed secret verifies as
// false rather than erroring; the caller cannot act on the distinction.
func VerifyCode(secret, code string, t time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, t, validateOpts())
	if err != nil {
		return false
	}
	return ok
}
