package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/morninghq/tally/internal/tally/domain"
	"github.com/morninghq/tally/internal/tally/store"
	"github.com/shopspring/decimal"
)

type usersRepo struct {
	q dbtx
}

const userColumns = `id, email, password_hash, balance, last_login_ip, last_login_at, created_at`

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, balance, last_login_ip, last_login_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.Balance.String(),
		mapOptionalString(u.LastLoginIP),
		mapOptionalTime(u.LastLoginAt),
		u.CreatedAt.UTC(),
	)
	if err != nil {
		return mapConflict(err)
	}
	return nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = ?`,
		email,
	)
	return scanUser(row)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

func (r *usersRepo) UpdateBalance(ctx context.Context, userID string, balance decimal.Decimal) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET balance = ? WHERE id = ?`,
		balance.String(),
		userID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, userID, ip string, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET last_login_ip = ?, last_login_at = ? WHERE id = ?`,
		ip,
		at.UTC(),
		userID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u           domain.User
		balance     string
		lastLoginIP sql.NullString
		lastLoginAt sql.NullTime
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&balance,
		&lastLoginIP,
		&lastLoginAt,
		&u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.Balance, err = parseDecimal(balance)
	if err != nil {
		return domain.User{}, err
	}
	u.LastLoginIP = mapNullStringPtr(lastLoginIP)
	u.LastLoginAt = mapNullTimePtr(lastLoginAt)
	return u, nil
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
