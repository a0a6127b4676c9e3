package domain

// LoginResult is the outcome of a successful credential check: either a
// signed access token, or an MFA challenge the client must answer before a
// token is issued. The challenge carries no server-side state; the client
// resubmits the user id with a code.
type LoginResult struct {
	Token       string `json:"access_token,omitempty"`
	MFARequired bool   `json:"mfa_required,omitempty"`
	UserID      string `json:"user_id,omitempty"`
}

// Authenticated wraps a signed token as a terminal login outcome.
func Authenticated(token string) LoginResult {
	return LoginResult{Token: token}
}

// MFAChallenge signals that a second factor is required for userID.
func MFAChallenge(userID string) LoginResult {
	return LoginResult{MFARequired: true, UserID: userID}
}
