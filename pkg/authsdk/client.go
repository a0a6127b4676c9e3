// Package authsdk is a small Go client for the Aegis auth service, plus
// the wire types and error envelope shared with the server handlers.
package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client talks to an Aegis instance. The zero BaseURL is invalid; use
// NewClient.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Bootstrap creates the first user. Only succeeds on an empty system with
// the correct bootstrap token.
func (c *Client) Bootstrap(ctx context.Context, token, email, password string) (BootstrapResponse, error) {
	var resp BootstrapResponse
	err := c.postJSON(ctx, "/v1/bootstrap", "", BootstrapRequest{
		Token:    token,
		Email:    email,
		Password: password,
	}, &resp)
	return resp, err
}

// Login performs first-factor authentication. Check MFARequired on the
// response: when set, call VerifyMFA to finish.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var resp LoginResponse
	err := c.postJSON(ctx, "/v1/login", "", LoginRequest{Email: email, Password: password}, &resp)
	return resp, err
}

// VerifyMFA completes a challenged login with a TOTP code.
func (c *Client) VerifyMFA(ctx context.Context, userID, code string) (LoginResponse, error) {
	var resp LoginResponse
	err := c.postJSON(ctx, "/v1/login/mfa", "", MFAVerifyRequest{UserID: userID, Code: code}, &resp)
	return resp, err
}

// Livez reports process liveness.
func (c *Client) Livez(ctx context.Context) error {
	return c.getJSON(ctx, "/livez", "", nil)
}

// Readyz reports whether the service can reach its database.
func (c *Client) Readyz(ctx context.Context) error {
	return c.getJSON(ctx, "/readyz", "", nil)
}

// Session wraps a Client with a bearer token for authenticated endpoints.
type Session struct {
	client *Client
	token  string
}

// NewSession binds an access token obtained from Login/VerifyMFA.
func (c *Client) NewSession(accessToken string) *Session {
	return &Session{client: c, token: accessToken}
}

// EnrollTOTP starts MFA enrollment and returns the secret to provision.
func (s *Session) EnrollTOTP(ctx context.Context) (TOTPEnrollResponse, error) {
	var resp TOTPEnrollResponse
	err := s.client.postJSON(ctx, "/v1/mfa/totp/enroll", s.token, struct{}{}, &resp)
	return resp, err
}

// ConfirmTOTP activates a pending enrollment with a valid code.
func (s *Session) ConfirmTOTP(ctx context.Context, code string) error {
	return s.client.postJSON(ctx, "/v1/mfa/totp/confirm", s.token, TOTPConfirmRequest{Code: code}, nil)
}

// RevokeTOTP retires the active secret. Idempotent.
func (s *Session) RevokeTOTP(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.client.BaseURL+"/v1/mfa/totp", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	return s.client.do(req, nil)
}

// MFAStatus reports the caller's enrollment state.
func (s *Session) MFAStatus(ctx context.Context) (MFAStatusResponse, error) {
	var resp MFAStatusResponse
	err := s.client.getJSON(ctx, "/v1/mfa/totp", s.token, &resp)
	return resp, err
}

func (c *Client) postJSON(ctx context.Context, path, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("authsdk: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.do(req, out)
}

// do executes the request and decodes either the expected payload or the
// server's APIError envelope.
func (c *Client) do(req *http.Request, out any) error {
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: res.StatusCode}
		if err := json.NewDecoder(res.Body).Decode(apiErr); err != nil || apiErr.Code == "" {
			return fmt.Errorf("authsdk: unexpected status %d", res.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("authsdk: decode response: %w", err)
	}
	return nil
}
