package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bank-limits/internal/models"
)

type pgAccounts struct{ s *Store }

func (r pgAccounts) Get(ctx context.Context, id int64) (*models.Account, error) {
	const q = `SELECT id, username FROM accounts WHERE id = $1`

	var a models.Account
	err := r.s.q.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %d", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query account %d: %w", id, err)
	}
	return &a, nil
}

func (r pgAccounts) Create(ctx context.Context, account *models.Account) error {
	if account.ID != 0 {
		const q = `INSERT INTO accounts (id, username) VALUES ($1, $2)`
		if _, err := r.s.q.ExecContext(ctx, q, account.ID, account.Username); err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		return nil
	}

	const q = `INSERT INTO accounts (username) VALUES ($1) RETURNING id`
	if err := r.s.q.QueryRowContext(ctx, q, account.Username).Scan(&account.ID); err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}
