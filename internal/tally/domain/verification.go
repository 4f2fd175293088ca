package domain

import "time"

// EmailCode is a one-time registration code mailed to an address. Issuing a
// new code supersedes (deletes) all earlier codes for the same email, and any
// registration attempt that reaches redemption purges them all.
type EmailCode struct {
	ID        string
	Email     string
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// LoginCaptcha is a single-use image challenge gating a login attempt.
// The row is deleted after the first check, pass or fail.
type LoginCaptcha struct {
	ID        string
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
}
