package http

import (
	"net/http"

	"github.com/morninghq/tally/pkg/httpx"
)

type MeHandler struct{}

// ServeHTTP returns the caller's email and current balance, straight from
// the identity the auth middleware resolved.
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	su, ok := sessionUserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized,
			"invalid_token", "Session is invalid or expired")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, meResponse{
		Email:   su.Email,
		Balance: su.Balance,
	})
}
