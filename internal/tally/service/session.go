package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/morninghq/tally/internal/tally/domain"
	"github.com/morninghq/tally/internal/tally/store"
	"github.com/morninghq/tally/pkg/cryptox"
)

var (
	ErrInvalidSession     = errors.New("invalid session")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// SessionService issues and resolves opaque bearer tokens for logged-in
// users. Only the token fingerprint touches the database; the raw token
// exists solely in the login/register response. Sessions carry no expiry
// and live until an explicit logout.
type SessionService struct {
	Store store.Store
}

// Create mints a session for the user and returns the raw bearer token.
func (s *SessionService) Create(ctx context.Context, userID string) (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}

	sess := domain.Session{
		TokenHash: cryptox.FingerprintToken(token),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.Sessions().CreateSession(ctx, sess); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Resolve maps a raw bearer token to the owning user's identity.
func (s *SessionService) Resolve(ctx context.Context, token string) (domain.SessionUser, error) {
	su, err := s.Store.Sessions().GetSessionUser(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.SessionUser{}, ErrInvalidSession
		}
		return domain.SessionUser{}, fmt.Errorf("resolve session: %w", err)
	}
	return su, nil
}

// Destroy removes a session. Destroying a token that was never issued or is
// already gone is not an error.
func (s *SessionService) Destroy(ctx context.Context, token string) error {
	return s.Store.Sessions().DeleteSession(ctx, cryptox.FingerprintToken(token))
}

// AdminSessionService authenticates the single shared admin principal
// against credentials fixed at boot and issues admin bearer tokens.
type AdminSessionService struct {
	Store    store.Store
	Username string
	Password string
}

// Login checks the credentials in constant time and mints an admin token.
func (s *AdminSessionService) Login(ctx context.Context, username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.Password)) == 1
	if !userOK || !passOK {
		return "", ErrInvalidCredentials
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", fmt.Errorf("generate admin token: %w", err)
	}

	sess := domain.AdminSession{
		TokenHash: cryptox.FingerprintToken(token),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.AdminSessions().CreateAdminSession(ctx, sess); err != nil {
		return "", fmt.Errorf("store admin session: %w", err)
	}
	return token, nil
}

// Verify reports whether the token belongs to a live admin session.
func (s *AdminSessionService) Verify(ctx context.Context, token string) error {
	_, err := s.Store.AdminSessions().GetAdminSession(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidSession
		}
		return fmt.Errorf("verify admin session: %w", err)
	}
	return nil
}

// Logout removes an admin session, idempotently.
func (s *AdminSessionService) Logout(ctx context.Context, token string) error {
	return s.Store.AdminSessions().DeleteAdminSession(ctx, cryptox.FingerprintToken(token))
}
