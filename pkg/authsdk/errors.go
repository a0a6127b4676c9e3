package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aegis-id/aegis/pkg/httpx"
)

// Error codes returned in the "error" field of error responses.
const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeInvalidCredentials   = "invalid_credentials"
	ErrorCodeInvalidToken         = "invalid_token"
	ErrorCodeInvalidCode          = "invalid_code"
	ErrorCodeMFANotEnrolled       = "mfa_not_enrolled"
	ErrorCodeMFAAlreadyEnrolled   = "mfa_already_enrolled"
	ErrorCodeMFAAlreadyConfirmed  = "mfa_already_confirmed"
	ErrorCodeAlreadyBootstrapped  = "already_bootstrapped"
	ErrorCodeUnauthorized         = "unauthorized"
	ErrorCodeServerError          = "server_error"
)

// APIError is the error envelope every endpoint uses. It implements the
// error interface so the SDK client can surface server errors directly.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine-readable error code (e.g., "invalid_code")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

var (
	// ErrInvalidRequest is returned for malformed bodies or missing fields.
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrInvalidCredentials covers unknown users and wrong passwords alike.
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid credentials",
	}

	// ErrInvalidToken is returned when the bearer token is missing or bad.
	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "invalid or missing access token",
	}

	// ErrInvalidCode is returned for TOTP codes that do not verify.
	ErrInvalidCode = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCode,
		Description: "invalid TOTP code",
	}

	// ErrMFANotEnrolled is returned for MFA operations without an enrollment.
	ErrMFANotEnrolled = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeMFANotEnrolled,
		Description: "MFA is not enrolled for this user",
	}

	// ErrMFAAlreadyEnrolled is returned when enrolling over an active secret.
	ErrMFAAlreadyEnrolled = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeMFAAlreadyEnrolled,
		Description: "MFA is already enabled for this user",
	}

	// ErrMFAAlreadyConfirmed is returned for repeated confirmations.
	ErrMFAAlreadyConfirmed = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeMFAAlreadyConfirmed,
		Description: "MFA enrollment is already confirmed",
	}

	// ErrAlreadyBootstrapped is returned once the first user exists.
	ErrAlreadyBootstrapped = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeAlreadyBootstrapped,
		Description: "system is already bootstrapped",
	}

	// ErrBootstrapUnauthorized is returned for bad bootstrap tokens.
	ErrBootstrapUnauthorized = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnauthorized,
		Description: "bootstrap token is invalid",
	}

	// ErrServerError is the catch-all for unexpected failures.
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)
