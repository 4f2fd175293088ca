package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/morninghq/tally/internal/tally/domain"
	"github.com/morninghq/tally/internal/tally/store"
	"github.com/morninghq/tally/pkg/cryptox"
	"github.com/morninghq/tally/pkg/idx"
)

var (
	ErrEmailTaken     = errors.New("email already registered")
	ErrInvalidCode    = errors.New("verification code invalid or expired")
	ErrInvalidCaptcha = errors.New("captcha invalid or expired")
)

const (
	emailCodeLength = 6
	captchaLength   = 4
	codeTTL         = 5 * time.Minute
)

// Mailer delivers verification codes. The SMTP implementation lives in
// internal/tally/mail; tests substitute a fake.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// VerificationService owns the two short-lived challenges: registration
// codes delivered over email, and login captchas rendered as SVG.
type VerificationService struct {
	Store  store.Store
	Mailer Mailer
}

// IssueEmailCode generates a registration code for the address and mails it.
// Issuing a new code supersedes any earlier codes for the same email. The
// code row is inserted before the mail attempt: a relay failure surfaces to
// the caller but the code stays redeemable if the mail did go out.
func (s *VerificationService) IssueEmailCode(ctx context.Context, email string) error {
	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("check email: %w", err)
	}

	code, err := cryptox.GenerateDigits(emailCodeLength)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	now := time.Now().UTC()
	if err := s.Store.EmailCodes().DeleteEmailCodes(ctx, email); err != nil {
		return fmt.Errorf("supersede codes: %w", err)
	}
	if err := s.Store.EmailCodes().CreateEmailCode(ctx, domain.EmailCode{
		ID:        idx.New().String(),
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(codeTTL),
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in 5 minutes.", code)
	if err := s.Mailer.Send(ctx, email, "Registration verification code", body); err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	return nil
}

// RedeemEmailCode checks that a non-expired code exists for the address.
// It does not consume the code; callers purge all codes for the email via
// PurgeEmailCodes once the attempt reaches redemption, success or not.
func (s *VerificationService) RedeemEmailCode(ctx context.Context, email, code string) error {
	_, err := s.Store.EmailCodes().GetValidEmailCode(ctx, email, code, time.Now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("redeem code: %w", err)
	}
	return nil
}

// PurgeEmailCodes removes every outstanding code for the address.
func (s *VerificationService) PurgeEmailCodes(ctx context.Context, email string) error {
	return s.Store.EmailCodes().DeleteEmailCodes(ctx, email)
}

// IssueCaptcha creates a login captcha and returns it with the plain code so
// the caller can render the image.
func (s *VerificationService) IssueCaptcha(ctx context.Context) (domain.LoginCaptcha, error) {
	code, err := cryptox.GenerateDigits(captchaLength)
	if err != nil {
		return domain.LoginCaptcha{}, fmt.Errorf("generate captcha: %w", err)
	}

	now := time.Now().UTC()
	c := domain.LoginCaptcha{
		ID:        idx.New().String(),
		Code:      code,
		ExpiresAt: now.Add(codeTTL),
		CreatedAt: now,
	}
	if err := s.Store.LoginCaptchas().CreateLoginCaptcha(ctx, c); err != nil {
		return domain.LoginCaptcha{}, fmt.Errorf("store captcha: %w", err)
	}
	return c, nil
}

// RedeemCaptcha consumes a captcha. The row is deleted after the first
// check whatever the outcome, so a guessed id can't be retried.
func (s *VerificationService) RedeemCaptcha(ctx context.Context, id, answer string) error {
	c, err := s.Store.LoginCaptchas().GetLoginCaptcha(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCaptcha
		}
		return fmt.Errorf("load captcha: %w", err)
	}

	// Single use: gone after the first check, pass or fail.
	if err := s.Store.LoginCaptchas().DeleteLoginCaptcha(ctx, id); err != nil {
		return fmt.Errorf("consume captcha: %w", err)
	}

	if time.Now().UTC().After(c.ExpiresAt) || c.Code != answer {
		return ErrInvalidCaptcha
	}
	return nil
}
