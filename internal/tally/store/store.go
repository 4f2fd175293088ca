package store

import (
	"context"
	"errors"
	"time"

	"github.com/morninghq/tally/internal/tally/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and a Tx scope for the multi-step ledger writes that must be
// atomic.
type Store interface {
	Users() Users
	Transactions() Transactions
	Sessions() Sessions
	AdminSessions() AdminSessions
	EmailCodes() EmailCodes
	LoginCaptchas() LoginCaptchas

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to handle transactions.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists if the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// GetUserByEmail is used during login and duplicate-registration checks.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// UpdateBalance overwrites the stored balance. Only the ledger calls
	// this, and only inside a transaction that also appends the matching
	// transactions row.
	UpdateBalance(ctx context.Context, userID string, balance decimal.Decimal) error

	// UpdateLastLogin records the ip and time of a successful login.
	UpdateLastLogin(ctx context.Context, userID, ip string, at time.Time) error

	// ListUsers returns all users ordered by creation (newest first).
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type Transactions interface {
	// CreateTransaction appends a ledger row. Rows are never updated or
	// deleted.
	CreateTransaction(ctx context.Context, t domain.Transaction) error

	// ListRecentByUser returns the newest transactions for one user,
	// capped at limit.
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]domain.Transaction, error)

	// ListAll returns every transaction joined with the owner's email,
	// newest first.
	ListAll(ctx context.Context) ([]domain.OwnedTransaction, error)
}

type Sessions interface {
	// CreateSession stores a new session keyed by token fingerprint.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionUser resolves a token fingerprint to the owning user's
	// identity via a join.
	GetSessionUser(ctx context.Context, tokenHash string) (domain.SessionUser, error)

	// DeleteSession removes a session. Deleting a missing session is not
	// an error.
	DeleteSession(ctx context.Context, tokenHash string) error
}

type AdminSessions interface {
	CreateAdminSession(ctx context.Context, s domain.AdminSession) error
	GetAdminSession(ctx context.Context, tokenHash string) (domain.AdminSession, error)
	DeleteAdminSession(ctx context.Context, tokenHash string) error
}

type EmailCodes interface {
	// CreateEmailCode inserts a fresh code row.
	CreateEmailCode(ctx context.Context, c domain.EmailCode) error

	// GetValidEmailCode returns the newest non-expired row matching
	// email+code, or ErrNotFound.
	GetValidEmailCode(ctx context.Context, email, code string, now time.Time) (domain.EmailCode, error)

	// DeleteEmailCodes removes every code for an email (supersede/purge).
	DeleteEmailCodes(ctx context.Context, email string) error

	// DeleteExpiredEmailCodes is housekeeping.
	DeleteExpiredEmailCodes(ctx context.Context, now time.Time) error
}

type LoginCaptchas interface {
	CreateLoginCaptcha(ctx context.Context, c domain.LoginCaptcha) error

	// GetLoginCaptcha returns the row regardless of expiry; the caller
	// decides validity so it can delete the row either way.
	GetLoginCaptcha(ctx context.Context, id string) (domain.LoginCaptcha, error)

	DeleteLoginCaptcha(ctx context.Context, id string) error

	// DeleteExpiredLoginCaptchas is housekeeping.
	DeleteExpiredLoginCaptchas(ctx context.Context, now time.Time) error
}
