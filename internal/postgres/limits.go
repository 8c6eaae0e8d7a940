package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"bank-limits/internal/models"
)

type pgLimits struct{ s *Store }

const limitColumns = `id, account_id, expense_category, limit_sum, limit_remainder, limit_currency, last_updated`

func (r pgLimits) Current(ctx context.Context, accountID int64, category models.Category) (*models.Limit, error) {
	q := `SELECT ` + limitColumns + `
	        FROM limits
	       WHERE account_id = $1 AND expense_category = $2
	       ORDER BY last_updated DESC, id DESC
	       LIMIT 1`
	// Lock the row for the rest of the unit of work so concurrent
	// transfers cannot decrement from a stale remainder.
	if r.s.inTx {
		q += ` FOR UPDATE`
	}

	l, err := scanLimit(r.s.q.QueryRowContext(ctx, q, accountID, category))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: limit for account %d and category %s", models.ErrNotFound, accountID, category)
	}
	if err != nil {
		return nil, fmt.Errorf("query current limit: %w", err)
	}
	return l, nil
}

func (r pgLimits) Create(ctx context.Context, limit *models.Limit) error {
	const q = `INSERT INTO limits (account_id, expense_category, limit_sum, limit_remainder, limit_currency, last_updated)
	           VALUES ($1, $2, $3, $4, $5, $6)
	           RETURNING id`

	err := r.s.q.QueryRowContext(ctx, q,
		limit.AccountID, limit.Category, limit.Sum, remainderArg(limit), limit.Currency, limit.LastUpdated,
	).Scan(&limit.ID)
	if err != nil {
		return fmt.Errorf("insert limit: %w", err)
	}
	return nil
}

func (r pgLimits) Update(ctx context.Context, limit *models.Limit) error {
	const q = `UPDATE limits
	              SET limit_sum = $2, limit_remainder = $3, limit_currency = $4, last_updated = $5
	            WHERE id = $1`

	res, err := r.s.q.ExecContext(ctx, q, limit.ID, limit.Sum, remainderArg(limit), limit.Currency, limit.LastUpdated)
	if err != nil {
		return fmt.Errorf("update limit %d: %w", limit.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update limit %d: %w", limit.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: limit %d", models.ErrNotFound, limit.ID)
	}
	return nil
}

func (r pgLimits) ByAccount(ctx context.Context, accountID int64) ([]*models.Limit, error) {
	q := `SELECT ` + limitColumns + ` FROM limits WHERE account_id = $1 ORDER BY id`
	return r.query(ctx, q, accountID)
}

func (r pgLimits) All(ctx context.Context) ([]*models.Limit, error) {
	q := `SELECT ` + limitColumns + ` FROM limits ORDER BY id`
	return r.query(ctx, q)
}

func (r pgLimits) query(ctx context.Context, q string, args ...any) ([]*models.Limit, error) {
	rows, err := r.s.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query limits: %w", err)
	}
	defer rows.Close()

	var out []*models.Limit
	for rows.Next() {
		l, err := scanLimit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan limit: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLimit(row rowScanner) (*models.Limit, error) {
	var (
		l   models.Limit
		rem decimal.NullDecimal
	)
	if err := row.Scan(&l.ID, &l.AccountID, &l.Category, &l.Sum, &rem, &l.Currency, &l.LastUpdated); err != nil {
		return nil, err
	}
	if rem.Valid {
		l.Remainder = &rem.Decimal
	}
	return &l, nil
}

func remainderArg(l *models.Limit) decimal.NullDecimal {
	if l.Remainder == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *l.Remainder, Valid: true}
}
