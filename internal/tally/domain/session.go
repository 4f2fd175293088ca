package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Session is a user login session. Only the SHA-256 fingerprint of the bearer
// token is stored; the raw token exists solely in the login/register response.
// Sessions have no expiry and live until an explicit logout deletes them.
type Session struct {
	TokenHash string
	UserID    string
	CreatedAt time.Time
}

// AdminSession is a session for the single shared admin principal. It is not
// tied to a user row.
type AdminSession struct {
	TokenHash string
	CreatedAt time.Time
}

// SessionUser is the identity a resolved session token maps to.
type SessionUser struct {
	UserID  string
	Email   string
	Balance decimal.Decimal
}
