package http

import (
	"net/http"

	"github.com/morninghq/tally/internal/tally/service"
	"github.com/morninghq/tally/pkg/httpx"
	"github.com/morninghq/tally/pkg/slogx"
)

type LogoutHandler struct {
	AccountService *service.AccountService
}

// ServeHTTP deletes the caller's session. Always succeeds for an
// authenticated caller.
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.AccountService.Logout(ctx, bearerToken(r)); err != nil {
		log.Error("logout failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Could not log out")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}
