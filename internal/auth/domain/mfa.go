package domain

import "time"

// MFAStatus is the lifecycle state of an MFA secret.
type MFAStatus string

const (
	// MFAStatusPending means the secret was issued but never confirmed
	// with a valid code. It does not gate login.
	MFAStatusPending MFAStatus = "PENDING"

	// MFAStatusActive means the user proved possession of the secret.
	// At most one ACTIVE secret exists per user.
	MFAStatusActive MFAStatus = "ACTIVE"

	// MFAStatusRevoked is terminal.
	MFAStatusRevoked MFAStatus = "REVOKED"
)

// MFASecret is one issued TOTP secret. Rows are never deleted; revoked and
// abandoned secrets remain as history.
type MFASecret struct {
	ID        string    // ULID
	UserID    string    // owning user, not unique across rows
	Secret    string    // base32 TOTP secret material (encrypted at rest by the store)
	Status    MFAStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MFAEnrollResponse is returned from enrollment. The otpauth URL is what
// the client renders as a QR code.
type MFAEnrollResponse struct {
	SecretID string // ULID of the pending secret
	Secret   string // base32 secret for manual entry
	URL      string // otpauth:// provisioning URI
	Issuer   string
	Account  string
}
