package sqlite

import (
	"context"
	"time"

	"github.com/morninghq/tally/internal/tally/domain"
	"github.com/morninghq/tally/internal/tally/store"
)

type emailCodesRepo struct {
	q dbtx
}

func (r *emailCodesRepo) CreateEmailCode(ctx context.Context, c domain.EmailCode) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO email_codes (id, email, code, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID,
		c.Email,
		c.Code,
		c.ExpiresAt.UTC(),
		c.CreatedAt.UTC(),
	)
	if err != nil {
		return mapConflict(err)
	}
	return nil
}

// GetValidEmailCode fetches the newest row for email+code and checks expiry
// in Go against the caller's clock, so tests can pin time.
func (r *emailCodesRepo) GetValidEmailCode(ctx context.Context, email, code string, now time.Time) (domain.EmailCode, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, email, code, expires_at, created_at
		FROM email_codes
		WHERE email = ? AND code = ?
		ORDER BY id DESC
		LIMIT 1`,
		email,
		code,
	)

	var c domain.EmailCode
	if err := row.Scan(&c.ID, &c.Email, &c.Code, &c.ExpiresAt, &c.CreatedAt); err != nil {
		return domain.EmailCode{}, mapNotFound(err)
	}
	if !now.Before(c.ExpiresAt) {
		return domain.EmailCode{}, store.ErrNotFound
	}
	return c, nil
}

func (r *emailCodesRepo) DeleteEmailCodes(ctx context.Context, email string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM email_codes WHERE email = ?`, email)
	return err
}

func (r *emailCodesRepo) DeleteExpiredEmailCodes(ctx context.Context, now time.Time) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM email_codes WHERE expires_at <= ?`, now.UTC())
	return err
}
