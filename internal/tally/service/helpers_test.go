package service_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/morninghq/tally/internal/tally/domain"
	"github.com/morninghq/tally/internal/tally/service"
	"github.com/morninghq/tally/internal/tally/store"
	"github.com/morninghq/tally/internal/tally/store/drivers/sqlite"
	"github.com/morninghq/tally/pkg/cryptox"
	"github.com/morninghq/tally/pkg/idx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var pepperOnce sync.Once

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	pepperOnce.Do(func() {
		cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))
	})

	s, err := sqlite.NewStore(sqlite.FileDSN(filepath.Join(t.TempDir(), "tally.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func createUser(t *testing.T, s store.Store, email string, balance string) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword("hunter22")
	require.NoError(t, err)

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		Balance:      decimal.RequireFromString(balance),
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	if !u.Balance.IsZero() {
		require.NoError(t, s.Users().UpdateBalance(context.Background(), u.ID, u.Balance))
	}
	return u
}

func insertEmailCode(t *testing.T, s store.Store, email, code string, expiresAt time.Time) {
	t.Helper()
	require.NoError(t, s.EmailCodes().CreateEmailCode(context.Background(), domain.EmailCode{
		ID:        idx.New().String(),
		Email:     email,
		Code:      code,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}))
}

// fakeMailer records deliveries, or fails every send when broken.
type fakeMailer struct {
	mu     sync.Mutex
	sent   []sentMail
	broken bool
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken {
		return context.DeadlineExceeded
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	return m.sent[len(m.sent)-1]
}

func newVerification(s store.Store, m service.Mailer) *service.VerificationService {
	return &service.VerificationService{Store: s, Mailer: m}
}

func newAccount(s store.Store, m service.Mailer) *service.AccountService {
	return &service.AccountService{
		Store:        s,
		Sessions:     &service.SessionService{Store: s},
		Verification: newVerification(s, m),
	}
}
