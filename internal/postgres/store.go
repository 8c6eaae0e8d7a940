package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"bank-limits/internal/store"
)

func (s *Store) Accounts() store.AccountRepository         { return pgAccounts{s} }
func (s *Store) Limits() store.LimitRepository             { return pgLimits{s} }
func (s *Store) Transactions() store.TransactionRepository { return pgTransactions{s} }
func (s *Store) Rates() store.RateRepository               { return pgRates{s} }

// WithinTx runs fn inside one database transaction at read-committed
// isolation. The transactional view's limit lookups lock the row they
// return (SELECT ... FOR UPDATE), which serializes concurrent remainder
// updates on the same limit. Nested calls join the ongoing transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	view := &Store{db: s.db, q: tx, inTx: true, log: s.log}
	if err := fn(view); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error().Err(rbErr).Msg("transaction rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
