package authsdk

// ErrorResponse documents the error envelope in the API schema. Handlers
// write it via APIError.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// BootstrapRequest creates the first user on an empty system.
type BootstrapRequest struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type BootstrapResponse struct {
	UserID string `json:"user_id"`
}

// LoginRequest is the first-factor credential submission.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse either carries a token or an MFA challenge, never both.
type LoginResponse struct {
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
	MFARequired bool   `json:"mfa_required,omitempty"`
	UserID      string `json:"user_id,omitempty"`
}

// MFAVerifyRequest completes a challenged login with a TOTP code.
type MFAVerifyRequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

// TOTPEnrollResponse is the one-time disclosure of a fresh secret.
type TOTPEnrollResponse struct {
	SecretID string `json:"secret_id"`
	Secret   string `json:"secret"`
	URL      string `json:"url"`
	Issuer   string `json:"issuer"`
	Account  string `json:"account"`
}

// TOTPConfirmRequest proves possession of an enrolled secret.
type TOTPConfirmRequest struct {
	Code string `json:"code"`
}

// MFAStatusResponse reports the caller's MFA posture.
type MFAStatusResponse struct {
	Enrolled bool   `json:"enrolled"`
	Status   string `json:"status,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// HealthChecks itemizes dependency status on readiness probes.
type HealthChecks struct {
	Database string `json:"database,omitempty"`
}

// HealthResponse is returned from /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
