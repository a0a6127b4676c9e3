package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aegis-id/aegis/internal/auth/service"
	"github.com/aegis-id/aegis/pkg/authsdk"
	"github.com/aegis-id/aegis/pkg/httpx"
	"github.com/aegis-id/aegis/pkg/slogx"
)

// MFAHandler handles the authenticated MFA lifecycle endpoints.
type MFAHandler struct {
	MFAService *service.MFAService
}

// HandleEnroll handles POST /v1/mfa/totp/enroll
//
//	@Summary		Start TOTP enrollment
//	@Description	Issues a fresh pending secret for the authenticated user and
//	@Description	returns it with its otpauth:// provisioning URI. The secret is
//	@Description	only disclosed here; confirm it with /v1/mfa/totp/confirm.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.TOTPEnrollResponse	"Secret and provisioning URI"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Invalid or missing access token"
//	@Failure		409	{object}	authsdk.ErrorResponse		"MFA already enabled"
//	@Failure		500	{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/mfa/totp/enroll [post].
func (h *MFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := ctx.Value(httpx.CtxKeyUserID).(string)
	if !ok || userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	enrollData, err := h.MFAService.Enroll(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyEnrolled) {
			log.Warn("enroll rejected, MFA already enabled", "user_id", userID)
			authsdk.ErrMFAAlreadyEnrolled.WriteError(w)
			return
		}
		log.Error("failed to enroll TOTP", "user_id", userID, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.TOTPEnrollResponse{
		SecretID: enrollData.SecretID,
		Secret:   enrollData.Secret,
		URL:      enrollData.URL,
		Issuer:   enrollData.Issuer,
		Account:  enrollData.Account,
	})
}

// HandleConfirm handles POST /v1/mfa/totp/confirm
//
//	@Summary		Confirm TOTP enrollment
//	@Description	Verifies a code against the pending secret and activates it.
//	@Description	From this point on, logins require a second factor.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.TOTPConfirmRequest	true	"TOTP code"
//	@Success		200		{object}	authsdk.MessageResponse		"MFA enabled"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Malformed request or not enrolled"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Invalid TOTP code or access token"
//	@Failure		409		{object}	authsdk.ErrorResponse		"Enrollment already confirmed"
//	@Failure		500		{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/mfa/totp/confirm [post].
func (h *MFAHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := ctx.Value(httpx.CtxKeyUserID).(string)
	if !ok || userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.TOTPConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.MFAService.Confirm(ctx, userID, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTOTPCode):
			log.Warn("invalid TOTP code on confirm", "user_id", userID)
			authsdk.ErrInvalidCode.WriteError(w)
		case errors.Is(err, service.ErrNotEnrolled):
			authsdk.ErrMFANotEnrolled.WriteError(w)
		case errors.Is(err, service.ErrAlreadyConfirmed):
			authsdk.ErrMFAAlreadyConfirmed.WriteError(w)
		default:
			log.Error("failed to confirm TOTP", "user_id", userID, "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{
		Message: "MFA enabled successfully",
	})
}

// HandleStatus handles GET /v1/mfa/totp
//
//	@Summary		Report MFA enrollment status
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MFAStatusResponse	"Current enrollment state"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Invalid or missing access token"
//	@Failure		500	{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/mfa/totp [get].
func (h *MFAHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := ctx.Value(httpx.CtxKeyUserID).(string)
	if !ok || userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	status, enrolled, err := h.MFAService.Status(ctx, userID)
	if err != nil {
		log.Error("failed to load MFA status", "user_id", userID, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MFAStatusResponse{
		Enrolled: enrolled,
		Status:   string(status),
	})
}

// HandleRevoke handles DELETE /v1/mfa/totp
//
//	@Summary		Revoke the active TOTP secret
//	@Description	Retires the user's active secret so logins no longer require a
//	@Description	second factor. Safe to repeat.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MessageResponse	"MFA disabled"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/mfa/totp [delete].
func (h *MFAHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := ctx.Value(httpx.CtxKeyUserID).(string)
	if !ok || userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	if err := h.MFAService.Revoke(ctx, userID); err != nil {
		log.Error("failed to revoke MFA", "user_id", userID, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{
		Message: "MFA removed successfully",
	})
}
