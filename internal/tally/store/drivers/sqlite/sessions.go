package sqlite

import (
	"context"

	"github.com/morninghq/tally/internal/tally/domain"
)

type sessionsRepo struct {
	q dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO sessions (token_hash, user_id, created_at)
		VALUES (?, ?, ?)`,
		s.TokenHash,
		s.UserID,
		s.CreatedAt.UTC(),
	)
	if err != nil {
		return mapConflict(err)
	}
	return nil
}

func (r *sessionsRepo) GetSessionUser(ctx context.Context, tokenHash string) (domain.SessionUser, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.balance
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token_hash = ?`,
		tokenHash,
	)

	var (
		su      domain.SessionUser
		balance string
	)
	if err := row.Scan(&su.UserID, &su.Email, &balance); err != nil {
		return domain.SessionUser{}, mapNotFound(err)
	}

	var err error
	if su.Balance, err = parseDecimal(balance); err != nil {
		return domain.SessionUser{}, err
	}
	return su, nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, tokenHash)
	return err
}
