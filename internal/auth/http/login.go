package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aegis-id/aegis/internal/auth/service"
	"github.com/aegis-id/aegis/pkg/authsdk"
	"github.com/aegis-id/aegis/pkg/httpx"
	"github.com/aegis-id/aegis/pkg/jwtx"
	"github.com/aegis-id/aegis/pkg/slogx"
)

// LoginHandler serves the two-step login flow: password first, then an
// optional TOTP challenge for MFA-enabled users.
type LoginHandler struct {
	LoginService *service.LoginService
	AccessTTL    time.Duration
}

// HandleLogin handles POST /v1/login
//
//	@Summary		Authenticate with email and password
//	@Description	Verifies first-factor credentials. Users with active MFA receive
//	@Description	a challenge (mfa_required=true) instead of a token and must call
//	@Description	/v1/login/mfa to finish.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse	"Token or MFA challenge"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Malformed request"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid credentials"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/login [post].
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	result, err := h.LoginService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			log.Warn("login rejected", "email", req.Email)
			authsdk.ErrInvalidCredentials.WriteError(w)
			return
		}
		log.Error("login failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	if result.MFARequired {
		log.Info("login challenged for second factor", "user_id", result.UserID)
		httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
			MFARequired: true,
			UserID:      result.UserID,
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, h.tokenResponse(result.Token))
}

// HandleVerifyMFA handles POST /v1/login/mfa
//
//	@Summary		Complete a challenged login with a TOTP code
//	@Description	Verifies the TOTP code against the user's active secret and
//	@Description	issues an access token with amr=["pwd","mfa"].
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.MFAVerifyRequest	true	"User id and TOTP code"
//	@Success		200		{object}	authsdk.LoginResponse		"Access token"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Malformed request or not enrolled"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Invalid TOTP code"
//	@Failure		500		{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/login/mfa [post].
func (h *LoginHandler) HandleVerifyMFA(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.MFAVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.UserID == "" || req.Code == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	result, err := h.LoginService.VerifySecondFactor(ctx, req.UserID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTOTPCode):
			log.Warn("second factor rejected", "user_id", req.UserID)
			authsdk.ErrInvalidCode.WriteError(w)
		case errors.Is(err, service.ErrNotEnrolled):
			authsdk.ErrMFANotEnrolled.WriteError(w)
		case errors.Is(err, service.ErrInvalidCredentials):
			authsdk.ErrInvalidCredentials.WriteError(w)
		default:
			log.Error("second factor verification failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, h.tokenResponse(result.Token))
}

func (h *LoginHandler) tokenResponse(token string) authsdk.LoginResponse {
	ttl := h.AccessTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}
	return authsdk.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(ttl.Seconds()),
	}
}
