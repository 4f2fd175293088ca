package sqlite

import (
	"context"

	"github.com/morninghq/tally/internal/tally/domain"
)

type transactionsRepo struct {
	q dbtx
}

func (r *transactionsRepo) CreateTransaction(ctx context.Context, t domain.Transaction) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, amount, balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.UserID,
		string(t.Type),
		t.Amount.String(),
		t.Balance.String(),
		t.CreatedAt.UTC(),
	)
	if err != nil {
		return mapConflict(err)
	}
	return nil
}

// ListRecentByUser returns the newest rows first. ULIDs sort
// lexicographically by creation time, so ordering by id is ordering by time.
func (r *transactionsRepo) ListRecentByUser(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_id, type, amount, balance, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var (
			t       domain.Transaction
			typ     string
			amount  string
			balance string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &typ, &amount, &balance, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Type = domain.TransactionType(typ)
		if t.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		if t.Balance, err = parseDecimal(balance); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (r *transactionsRepo) ListAll(ctx context.Context) ([]domain.OwnedTransaction, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT t.id, t.user_id, t.type, t.amount, t.balance, t.created_at, u.email
		FROM transactions t
		JOIN users u ON u.id = t.user_id
		ORDER BY t.id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.OwnedTransaction
	for rows.Next() {
		var (
			t       domain.OwnedTransaction
			typ     string
			amount  string
			balance string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &typ, &amount, &balance, &t.CreatedAt, &t.OwnerEmail); err != nil {
			return nil, err
		}
		t.Type = domain.TransactionType(typ)
		if t.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		if t.Balance, err = parseDecimal(balance); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
