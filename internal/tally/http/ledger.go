package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/morninghq/tally/internal/tally/service"
	"github.com/morninghq/tally/pkg/httpx"
	"github.com/morninghq/tally/pkg/slogx"
	"github.com/shopspring/decimal"
)

type LedgerHandler struct {
	LedgerService *service.LedgerService
}

// HandleRecharge credits the caller's balance.
func (h *LedgerHandler) HandleRecharge(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.LedgerService.Recharge)
}

// HandleConsume debits the caller's balance.
func (h *LedgerHandler) HandleConsume(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.LedgerService.Consume)
}

func (h *LedgerHandler) handle(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error),
) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	su, ok := sessionUserFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized,
			"invalid_token", "Session is invalid or expired")
		return
	}

	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "Invalid JSON body")
		return
	}

	balance, err := op(ctx, su.UserID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			httpx.WriteError(w, http.StatusBadRequest,
				"invalid_amount", "Amount must be greater than zero")
		case errors.Is(err, service.ErrInsufficientFunds):
			httpx.WriteError(w, http.StatusBadRequest,
				"insufficient_balance", "Balance does not cover the amount")
		default:
			log.Error("ledger operation failed", "error", err)
			httpx.WriteError(w, http.StatusInternalServerError,
				"server_error", "Could not update balance")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}
