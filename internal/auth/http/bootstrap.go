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

// BootstrapHandler creates the first user on an empty system.
type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP handles POST /v1/bootstrap
//
//	@Summary		Bootstrap the system with its first user
//	@Description	Creates the initial user. Only succeeds with the configured
//	@Description	bootstrap token while the user table is empty.
//	@Tags			System
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.BootstrapRequest	true	"Bootstrap token and first user credentials"
//	@Success		201		{object}	authsdk.BootstrapResponse	"Created user id"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Malformed request"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Invalid bootstrap token"
//	@Failure		409		{object}	authsdk.ErrorResponse		"Already bootstrapped"
//	@Failure		500		{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.BootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Token == "" || req.Email == "" || req.Password == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	userID, err := h.BootstrapService.Bootstrap(ctx, req.Token, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBootstrapUnauthorized):
			authsdk.ErrBootstrapUnauthorized.WriteError(w)
		case errors.Is(err, service.ErrBootstrapAlready):
			authsdk.ErrAlreadyBootstrapped.WriteError(w)
		default:
			log.Error("bootstrap failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, authsdk.BootstrapResponse{UserID: userID})
}
