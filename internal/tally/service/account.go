package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/morninghq/tally/internal/tally/domain"
	"github.com/morninghq/tally/internal/tally/store"
	"github.com/morninghq/tally/pkg/cryptox"
	"github.com/morninghq/tally/pkg/idx"
)

var ErrInvalidInput = errors.New("invalid input")

const minPasswordLength = 6

// AccountService owns registration and login. It composes the verification
// challenges, password hashing, and session issuance into the two flows the
// API exposes.
type AccountService struct {
	Store        store.Store
	Sessions     *SessionService
	Verification *VerificationService
}

// RegisterResult is a fresh account plus its first session token.
type RegisterResult struct {
	Token string
	User  domain.User
}

// Register redeems an emailed code and creates the account. All outstanding
// codes for the email are purged once the attempt reaches redemption,
// whether or not the code matched.
func (s *AccountService) Register(ctx context.Context, email, password, code string) (RegisterResult, error) {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" || len(password) < minPasswordLength {
		return RegisterResult{}, ErrInvalidInput
	}

	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return RegisterResult{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return RegisterResult{}, fmt.Errorf("check email: %w", err)
	}

	redeemErr := s.Verification.RedeemEmailCode(ctx, email, code)
	if err := s.Verification.PurgeEmailCodes(ctx, email); err != nil {
		return RegisterResult{}, fmt.Errorf("purge codes: %w", err)
	}
	if redeemErr != nil {
		return RegisterResult{}, redeemErr
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("hash password: %w", err)
	}

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return RegisterResult{}, ErrEmailTaken
		}
		return RegisterResult{}, fmt.Errorf("create user: %w", err)
	}

	token, err := s.Sessions.Create(ctx, u.ID)
	if err != nil {
		return RegisterResult{}, err
	}
	return RegisterResult{Token: token, User: u}, nil
}

// LoginInput carries one login attempt.
type LoginInput struct {
	Email     string
	Password  string
	CaptchaID string
	Captcha   string
	IP        string
}

// LoginResult reports the new session plus the login seen before this one,
// so clients can show "last login from".
type LoginResult struct {
	Token       string
	Email       string
	User        domain.User
	LastLoginIP *string
	LastLoginAt *time.Time
}

// Login authenticates a user. The captcha is consumed on the first check,
// pass or fail, and is only checked once the email maps to an account so a
// probe can't burn captchas to enumerate addresses cheaply.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return LoginResult{}, ErrInvalidInput
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("load user: %w", err)
	}

	if err := s.Verification.RedeemCaptcha(ctx, in.CaptchaID, strings.TrimSpace(in.Captcha)); err != nil {
		return LoginResult{}, err
	}

	if err := cryptox.VerifyPassword(in.Password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("verify password: %w", err)
	}

	token, err := s.Sessions.Create(ctx, u.ID)
	if err != nil {
		return LoginResult{}, err
	}

	res := LoginResult{
		Token:       token,
		Email:       u.Email,
		User:        u,
		LastLoginIP: u.LastLoginIP,
		LastLoginAt: u.LastLoginAt,
	}

	if err := s.Store.Users().UpdateLastLogin(ctx, u.ID, in.IP, time.Now().UTC()); err != nil {
		return LoginResult{}, fmt.Errorf("record login: %w", err)
	}
	return res, nil
}

// Logout destroys the session behind the token, idempotently.
func (s *AccountService) Logout(ctx context.Context, token string) error {
	return s.Sessions.Destroy(ctx, token)
}
