package http

import (
	"errors"
	"net/http"

	"github.com/morninghq/tally/internal/tally/service"
	"github.com/morninghq/tally/pkg/httpx"
	"github.com/morninghq/tally/pkg/slogx"
)

type SendCodeHandler struct {
	VerificationService *service.VerificationService
}

// ServeHTTP mails a registration code to the address. The address must not
// belong to an existing account, and the relay must accept the mail.
func (h *SendCodeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req sendCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "Invalid JSON body")
		return
	}
	if req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "email is required")
		return
	}

	if err := h.VerificationService.IssueEmailCode(ctx, req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			httpx.WriteError(w, http.StatusConflict,
				"email_taken", "Email is already registered")
		default:
			log.Error("failed to issue email code", "error", err)
			httpx.WriteError(w, http.StatusInternalServerError,
				"server_error", "Could not send verification code")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}
