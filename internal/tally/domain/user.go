package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string // argon2 encoded
	Balance      decimal.Decimal
	LastLoginIP  *string    // nil until the first login
	LastLoginAt  *time.Time // nil until the first login
	CreatedAt    time.Time
}
