package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/morninghq/tally/internal/tally/domain"
	"github.com/morninghq/tally/internal/tally/store"
	"github.com/morninghq/tally/internal/tally/store/drivers/sqlite"
	"github.com/morninghq/tally/pkg/idx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	dsn := sqlite.FileDSN(filepath.Join(t.TempDir(), "tally.db"))
	s, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func newTestUser(t *testing.T, s *sqlite.Store, email string) domain.User {
	t.Helper()

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: "$argon2id$fake",
		Balance:      decimal.Zero,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func TestUsers_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice@example.com")

	got, err := s.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.True(t, got.Balance.IsZero())
	require.Nil(t, got.LastLoginIP)
	require.Nil(t, got.LastLoginAt)

	byID, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, byID.Email)

	_, err = s.Users().GetUserByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsers_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	newTestUser(t, s, "alice@example.com")

	err := s.Users().CreateUser(ctx, domain.User{
		ID:           idx.New().String(),
		Email:        "alice@example.com",
		PasswordHash: "x",
		Balance:      decimal.Zero,
		CreatedAt:    time.Now().UTC(),
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestUsers_UpdateBalanceAndLastLogin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice@example.com")

	require.NoError(t, s.Users().UpdateBalance(ctx, u.ID, decimal.RequireFromString("12.50")))

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.Users().UpdateLastLogin(ctx, u.ID, "203.0.113.7", at))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.Balance.Equal(decimal.RequireFromString("12.50")))
	require.NotNil(t, got.LastLoginIP)
	require.Equal(t, "203.0.113.7", *got.LastLoginIP)
	require.NotNil(t, got.LastLoginAt)
	require.True(t, got.LastLoginAt.Equal(at))

	require.ErrorIs(t, s.Users().UpdateBalance(ctx, "missing", decimal.Zero), store.ErrNotFound)
}

func TestTransactions_OrderingAndJoin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice@example.com")

	amounts := []string{"10", "3", "7"}
	var ids []string
	for _, a := range amounts {
		id := idx.New().String()
		ids = append(ids, id)
		require.NoError(t, s.Transactions().CreateTransaction(ctx, domain.Transaction{
			ID:        id,
			UserID:    u.ID,
			Type:      domain.TransactionRecharge,
			Amount:    decimal.RequireFromString(a),
			Balance:   decimal.RequireFromString(a),
			CreatedAt: time.Now().UTC(),
		}))
	}

	recent, err := s.Transactions().ListRecentByUser(ctx, u.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, ids[2], recent[0].ID) // newest first
	require.Equal(t, ids[1], recent[1].ID)

	all, err := s.Transactions().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "alice@example.com", all[0].OwnerEmail)
	require.Equal(t, ids[2], all[0].ID)
}

func TestSessions_ResolveAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice@example.com")
	require.NoError(t, s.Users().UpdateBalance(ctx, u.ID, decimal.RequireFromString("5")))

	sess := domain.Session{TokenHash: "fp-1", UserID: u.ID, CreatedAt: time.Now().UTC()}
	require.NoError(t, s.Sessions().CreateSession(ctx, sess))

	su, err := s.Sessions().GetSessionUser(ctx, "fp-1")
	require.NoError(t, err)
	require.Equal(t, u.ID, su.UserID)
	require.Equal(t, u.Email, su.Email)
	require.True(t, su.Balance.Equal(decimal.RequireFromString("5")))

	require.NoError(t, s.Sessions().DeleteSession(ctx, "fp-1"))
	_, err = s.Sessions().GetSessionUser(ctx, "fp-1")
	require.ErrorIs(t, err, store.ErrNotFound)

	// deleting again is not an error
	require.NoError(t, s.Sessions().DeleteSession(ctx, "fp-1"))
}

func TestAdminSessions_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := domain.AdminSession{TokenHash: "admin-fp", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.AdminSessions().CreateAdminSession(ctx, sess))

	got, err := s.AdminSessions().GetAdminSession(ctx, "admin-fp")
	require.NoError(t, err)
	require.Equal(t, "admin-fp", got.TokenHash)

	require.NoError(t, s.AdminSessions().DeleteAdminSession(ctx, "admin-fp"))
	_, err = s.AdminSessions().GetAdminSession(ctx, "admin-fp")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEmailCodes_ValidityAndPurge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	code := domain.EmailCode{
		ID:        idx.New().String(),
		Email:     "alice@example.com",
		Code:      "123456",
		ExpiresAt: now.Add(5 * time.Minute),
		CreatedAt: now,
	}
	require.NoError(t, s.EmailCodes().CreateEmailCode(ctx, code))

	got, err := s.EmailCodes().GetValidEmailCode(ctx, "alice@example.com", "123456", now)
	require.NoError(t, err)
	require.Equal(t, code.ID, got.ID)

	// wrong code
	_, err = s.EmailCodes().GetValidEmailCode(ctx, "alice@example.com", "000000", now)
	require.ErrorIs(t, err, store.ErrNotFound)

	// expired by the caller's clock
	_, err = s.EmailCodes().GetValidEmailCode(ctx, "alice@example.com", "123456", now.Add(6*time.Minute))
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.EmailCodes().DeleteEmailCodes(ctx, "alice@example.com"))
	_, err = s.EmailCodes().GetValidEmailCode(ctx, "alice@example.com", "123456", now)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEmailCodes_DeleteExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	expired := domain.EmailCode{
		ID:        idx.New().String(),
		Email:     "old@example.com",
		Code:      "111111",
		ExpiresAt: now.Add(-time.Minute),
		CreatedAt: now.Add(-10 * time.Minute),
	}
	fresh := domain.EmailCode{
		ID:        idx.New().String(),
		Email:     "new@example.com",
		Code:      "222222",
		ExpiresAt: now.Add(5 * time.Minute),
		CreatedAt: now,
	}
	require.NoError(t, s.EmailCodes().CreateEmailCode(ctx, expired))
	require.NoError(t, s.EmailCodes().CreateEmailCode(ctx, fresh))

	require.NoError(t, s.EmailCodes().DeleteExpiredEmailCodes(ctx, now))

	_, err := s.EmailCodes().GetValidEmailCode(ctx, "old@example.com", "111111", now.Add(-2*time.Minute))
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.EmailCodes().GetValidEmailCode(ctx, "new@example.com", "222222", now)
	require.NoError(t, err)
}

func TestLoginCaptchas_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	c := domain.LoginCaptcha{
		ID:        idx.New().String(),
		Code:      "4821",
		ExpiresAt: now.Add(5 * time.Minute),
		CreatedAt: now,
	}
	require.NoError(t, s.LoginCaptchas().CreateLoginCaptcha(ctx, c))

	got, err := s.LoginCaptchas().GetLoginCaptcha(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "4821", got.Code)

	require.NoError(t, s.LoginCaptchas().DeleteLoginCaptcha(ctx, c.ID))
	_, err = s.LoginCaptchas().GetLoginCaptcha(ctx, c.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice@example.com")

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateBalance(ctx, u.ID, decimal.RequireFromString("99")); err != nil {
			return err
		}
		return context.Canceled // force rollback
	})
	require.Error(t, err)

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.Balance.IsZero())
}

func TestWithTx_Commit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice@example.com")

	err := s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().UpdateBalance(ctx, u.ID, decimal.RequireFromString("42"))
	})
	require.NoError(t, err)

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.Balance.Equal(decimal.RequireFromString("42")))
}
