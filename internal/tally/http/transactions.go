package http

import (
	"net/http"

	"github.com/morninghq/tally/internal/tally/service"
	"github.com/morninghq/tally/pkg/httpx"
	"github.com/morninghq/tally/pkg/slogx"
)

type TransactionsHandler struct {
	LedgerService *service.LedgerService
}

// ServeHTTP returns the caller's recent transactions, newest first.
func (h *TransactionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	su, ok := sessionUserFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized,
			"invalid_token", "Session is invalid or expired")
		return
	}

	txs, err := h.LedgerService.ListRecent(ctx, su.UserID)
	if err != nil {
		log.Error("failed to list transactions", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Could not load transactions")
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, newTransactionResponse(t))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
