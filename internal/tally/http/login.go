package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/morninghq/tally/internal/tally/service"
	"github.com/morninghq/tally/pkg/httpx"
	"github.com/morninghq/tally/pkg/slogx"
)

type LoginHandler struct {
	AccountService *service.AccountService
}

// ServeHTTP authenticates a user. The response carries the login seen before
// this one; empty strings when the account has never logged in.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "Invalid JSON body")
		return
	}
	// No field pre-checks here: the service looks the account up before
	// touching the captcha, so an unknown email answers 401 even when the
	// captcha fields are missing.
	res, err := h.AccountService.Login(ctx, service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		CaptchaID: req.CaptchaID,
		Captcha:   req.Captcha,
		IP:        httpx.IPKeyExtractor(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidCaptcha):
			httpx.WriteError(w, http.StatusBadRequest,
				"invalid_captcha", "Captcha is invalid or expired")
		case errors.Is(err, service.ErrInvalidCredentials):
			httpx.WriteError(w, http.StatusUnauthorized,
				"invalid_credentials", "Email or password is incorrect")
		default:
			log.Error("login failed", "error", err)
			httpx.WriteError(w, http.StatusInternalServerError,
				"server_error", "Could not complete login")
		}
		return
	}

	prev := lastLogin{}
	if res.LastLoginIP != nil {
		prev.IP = *res.LastLoginIP
	}
	if res.LastLoginAt != nil {
		prev.Time = res.LastLoginAt.UTC().Format(time.RFC3339)
	}

	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		authResponse: authResponse{
			Token:   res.Token,
			Email:   res.Email,
			Balance: res.User.Balance,
		},
		LastLogin: prev,
	})
}
