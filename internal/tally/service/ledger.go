package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/morninghq/tally/internal/tally/domain"
	"github.com/morninghq/tally/internal/tally/store"
	"github.com/morninghq/tally/pkg/idx"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInsufficientFunds = errors.New("insufficient balance")
)

const recentTransactionLimit = 50

// LedgerService owns balance mutations. Every mutation updates the stored
// balance and appends a transaction row inside one store transaction; the
// driver's immediate write lock serializes concurrent operations on the
// same user, so balances never lose an update.
type LedgerService struct {
	Store store.Store
}

// Recharge credits the user and returns the new balance.
func (s *LedgerService) Recharge(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.apply(ctx, userID, domain.TransactionRecharge, amount)
}

// Consume debits the user and returns the new balance. The balance must
// cover the full amount; there is no overdraft.
func (s *LedgerService) Consume(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.apply(ctx, userID, domain.TransactionConsume, amount)
}

func (s *LedgerService) apply(ctx context.Context, userID string, typ domain.TransactionType, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	var balance decimal.Decimal
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}

		switch typ {
		case domain.TransactionRecharge:
			balance = u.Balance.Add(amount)
		case domain.TransactionConsume:
			if u.Balance.LessThan(amount) {
				return ErrInsufficientFunds
			}
			balance = u.Balance.Sub(amount)
		}

		if err := tx.Users().UpdateBalance(ctx, userID, balance); err != nil {
			return fmt.Errorf("update balance: %w", err)
		}
		return tx.Transactions().CreateTransaction(ctx, domain.Transaction{
			ID:        idx.New().String(),
			UserID:    userID,
			Type:      typ,
			Amount:    amount,
			Balance:   balance,
			CreatedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// ListRecent returns the user's newest transactions, capped at 50.
func (s *LedgerService) ListRecent(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return s.Store.Transactions().ListRecentByUser(ctx, userID, recentTransactionLimit)
}
