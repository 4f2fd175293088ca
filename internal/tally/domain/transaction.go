package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a ledger operation.
type TransactionType string

const (
	TransactionRecharge TransactionType = "recharge"
	TransactionConsume  TransactionType = "consume"
)

// Transaction is one immutable row of the per-user ledger. Balance is the
// user's balance after the operation was applied, so the newest row always
// equals the user's stored balance.
type Transaction struct {
	ID        string
	UserID    string
	Type      TransactionType
	Amount    decimal.Decimal
	Balance   decimal.Decimal
	CreatedAt time.Time
}

// OwnedTransaction is a Transaction joined with the owning user's email,
// used by the admin listings and export.
type OwnedTransaction struct {
	Transaction

	OwnerEmail string
}
