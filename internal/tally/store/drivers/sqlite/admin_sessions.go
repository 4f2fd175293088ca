package sqlite

import (
	"context"

	"github.com/morninghq/tally/internal/tally/domain"
)

type adminSessionsRepo struct {
	q dbtx
}

func (r *adminSessionsRepo) CreateAdminSession(ctx context.Context, s domain.AdminSession) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO admin_sessions (token_hash, created_at)
		VALUES (?, ?)`,
		s.TokenHash,
		s.CreatedAt.UTC(),
	)
	if err != nil {
		return mapConflict(err)
	}
	return nil
}

func (r *adminSessionsRepo) GetAdminSession(ctx context.Context, tokenHash string) (domain.AdminSession, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT token_hash, created_at
		FROM admin_sessions
		WHERE token_hash = ?`,
		tokenHash,
	)

	var s domain.AdminSession
	if err := row.Scan(&s.TokenHash, &s.CreatedAt); err != nil {
		return domain.AdminSession{}, mapNotFound(err)
	}
	return s, nil
}

func (r *adminSessionsRepo) DeleteAdminSession(ctx context.Context, tokenHash string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM admin_sessions WHERE token_hash = ?`, tokenHash)
	return err
}
