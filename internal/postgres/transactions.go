package postgres

import (
	"context"
	"fmt"

	"bank-limits/internal/models"
)

type pgTransactions struct{ s *Store }

const transactionColumns = `id, account_from, account_to, currency_shortname, expense_category, sum,
	transaction_time, limit_exceeded, limit_id, limit_sum_at_time, limit_datetime_at_time, limit_currency_at_time`

func (r pgTransactions) Insert(ctx context.Context, t *models.Transaction) error {
	const q = `INSERT INTO transactions
	             (account_from, account_to, currency_shortname, expense_category, sum,
	              transaction_time, limit_exceeded, limit_id, limit_sum_at_time,
	              limit_datetime_at_time, limit_currency_at_time)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	           RETURNING id`

	err := r.s.q.QueryRowContext(ctx, q,
		t.AccountFrom, t.AccountTo, t.Currency, t.Category, t.Sum,
		t.TransactionTime, t.LimitExceeded, t.LimitID, t.LimitSumAtTime,
		t.LimitDateTimeAtTime, t.LimitCurrencyAtTime,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r pgTransactions) All(ctx context.Context) ([]*models.Transaction, error) {
	q := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY id`
	return r.query(ctx, q)
}

func (r pgTransactions) ByAccount(ctx context.Context, accountID int64) ([]*models.Transaction, error) {
	q := `SELECT ` + transactionColumns + ` FROM transactions
	       WHERE account_from = $1 OR account_to = $1 ORDER BY id`
	return r.query(ctx, q, accountID)
}

func (r pgTransactions) ByCategory(ctx context.Context, category models.Category) ([]*models.Transaction, error) {
	q := `SELECT ` + transactionColumns + ` FROM transactions WHERE expense_category = $1 ORDER BY id`
	return r.query(ctx, q, category)
}

func (r pgTransactions) ByAccountExceeded(ctx context.Context, accountID int64) ([]*models.Transaction, error) {
	q := `SELECT ` + transactionColumns + ` FROM transactions
	       WHERE (account_from = $1 OR account_to = $1) AND limit_exceeded ORDER BY id`
	return r.query(ctx, q, accountID)
}

func (r pgTransactions) query(ctx context.Context, q string, args ...any) ([]*models.Transaction, error) {
	rows, err := r.s.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(&t.ID, &t.AccountFrom, &t.AccountTo, &t.Currency, &t.Category, &t.Sum,
			&t.TransactionTime, &t.LimitExceeded, &t.LimitID, &t.LimitSumAtTime,
			&t.LimitDateTimeAtTime, &t.LimitCurrencyAtTime)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
