package http

import (
	"errors"
	"net/http"

	"github.com/morninghq/tally/internal/tally/service"
	"github.com/morninghq/tally/pkg/httpx"
	"github.com/morninghq/tally/pkg/slogx"
)

type RegisterHandler struct {
	AccountService *service.AccountService
}

// ServeHTTP creates an account from an emailed code and returns the first
// session token.
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "Invalid JSON body")
		return
	}

	res, err := h.AccountService.Register(ctx, req.Email, req.Password, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			httpx.WriteError(w, http.StatusBadRequest,
				"invalid_request", "Email, code or password does not meet requirements")
		case errors.Is(err, service.ErrEmailTaken):
			httpx.WriteError(w, http.StatusConflict,
				"email_taken", "Email is already registered")
		case errors.Is(err, service.ErrInvalidCode):
			httpx.WriteError(w, http.StatusBadRequest,
				"invalid_code", "Verification code is invalid or expired")
		default:
			log.Error("registration failed", "error", err)
			httpx.WriteError(w, http.StatusInternalServerError,
				"server_error", "Could not complete registration")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authResponse{
		Token:   res.Token,
		Email:   res.User.Email,
		Balance: res.User.Balance,
	})
}
