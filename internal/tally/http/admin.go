package http

import (
	"errors"
	"net/http"

	"github.com/morninghq/tally/internal/tally/service"
	"github.com/morninghq/tally/pkg/httpx"
	"github.com/morninghq/tally/pkg/slogx"
)

// AdminHandler serves the admin console API: login/logout for the shared
// admin principal, full listings, and the xlsx export.
type AdminHandler struct {
	AdminSessionService *service.AdminSessionService
	ReportingService    *service.ReportingService
}

func (h *AdminHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req adminLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "Invalid JSON body")
		return
	}

	token, err := h.AdminSessionService.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized,
				"invalid_credentials", "Username or password is incorrect")
			return
		}
		log.Error("admin login failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Could not complete login")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, adminLoginResponse{
		Token:    token,
		Username: req.Username,
	})
}

func (h *AdminHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.AdminSessionService.Logout(ctx, bearerToken(r)); err != nil {
		log.Error("admin logout failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Could not log out")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	users, err := h.ReportingService.ListUsers(ctx)
	if err != nil {
		log.Error("failed to list users", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Could not load users")
		return
	}

	out := make([]adminUserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, adminUserResponse{
			ID:        u.ID,
			Email:     u.Email,
			Balance:   u.Balance,
			CreatedAt: u.CreatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	txs, err := h.ReportingService.ListTransactions(ctx)
	if err != nil {
		log.Error("failed to list transactions", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Could not load transactions")
		return
	}

	out := make([]adminTransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, adminTransactionResponse{
			ID:        t.ID,
			Email:     t.OwnerEmail,
			Type:      string(t.Type),
			Amount:    t.Amount,
			Balance:   t.Balance,
			CreatedAt: t.CreatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="export.xlsx"`)

	if err := h.ReportingService.Export(ctx, w); err != nil {
		// Headers are already out; all we can do is log and drop the conn.
		log.Error("export failed", "error", err)
	}
}
