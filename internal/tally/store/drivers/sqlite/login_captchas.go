package sqlite

import (
	"context"
	"time"

	"github.com/morninghq/tally/internal/tally/domain"
)

type loginCaptchasRepo struct {
	q dbtx
}

func (r *loginCaptchasRepo) CreateLoginCaptcha(ctx context.Context, c domain.LoginCaptcha) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO login_captchas (id, code, expires_at, created_at)
		VALUES (?, ?, ?, ?)`,
		c.ID,
		c.Code,
		c.ExpiresAt.UTC(),
		c.CreatedAt.UTC(),
	)
	if err != nil {
		return mapConflict(err)
	}
	return nil
}

func (r *loginCaptchasRepo) GetLoginCaptcha(ctx context.Context, id string) (domain.LoginCaptcha, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, code, expires_at, created_at
		FROM login_captchas
		WHERE id = ?`,
		id,
	)

	var c domain.LoginCaptcha
	if err := row.Scan(&c.ID, &c.Code, &c.ExpiresAt, &c.CreatedAt); err != nil {
		return domain.LoginCaptcha{}, mapNotFound(err)
	}
	return c, nil
}

func (r *loginCaptchasRepo) DeleteLoginCaptcha(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM login_captchas WHERE id = ?`, id)
	return err
}

func (r *loginCaptchasRepo) DeleteExpiredLoginCaptchas(ctx context.Context, now time.Time) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM login_captchas WHERE expires_at <= ?`, now.UTC())
	return err
}
