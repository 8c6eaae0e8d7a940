// Package transactions owns the append-only ledger and the
// transaction-creation protocol: validate both accounts, resolve the
// sender's current limit, convert the amount into the limit's currency,
// judge the breach, then persist the transaction and the remainder update
// as one atomic unit of work.
package transactions

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bank-limits/internal/limits"
	"bank-limits/internal/models"
	"bank-limits/internal/rates"
	"bank-limits/internal/store"
)

// CreateRequest carries the caller-supplied fields of a new transfer.
// TransactionTime defaults to now when zero.
type CreateRequest struct {
	AccountFrom     int64
	AccountTo       int64
	Currency        models.Currency
	Category        models.Category
	Sum             decimal.Decimal
	TransactionTime time.Time
}

// Service is the ledger service.
type Service struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewService builds a Service over the given store.
func NewService(s store.Store, log zerolog.Logger) *Service {
	return &Service{store: s, log: log, now: time.Now}
}

// Create runs the transaction-creation protocol and returns the persisted
// transaction.
//
// Validation happens before any read, conversion before any write, and the
// ledger append plus the remainder decrement commit together: a failure at
// any step leaves no trace. The limit snapshot on the transaction is copied
// before the decrement, so the record always shows the limit as it stood
// when the transfer was judged.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Transaction, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	var created *models.Transaction
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		if _, err := tx.Accounts().Get(ctx, req.AccountFrom); err != nil {
			return err
		}
		if _, err := tx.Accounts().Get(ctx, req.AccountTo); err != nil {
			return err
		}

		limit, err := tx.Limits().Current(ctx, req.AccountFrom, req.Category)
		if err != nil {
			return err
		}

		converted, err := rates.Convert(ctx, tx.Rates(), req.Sum, req.Currency, req.TransactionTime, limit.Currency)
		if err != nil {
			return err
		}

		if limit.Remainder == nil {
			return fmt.Errorf("%w: remainder unset on limit %d", models.ErrDataIntegrity, limit.ID)
		}
		exceeded := converted.GreaterThan(*limit.Remainder)

		t := &models.Transaction{
			AccountFrom:     req.AccountFrom,
			AccountTo:       req.AccountTo,
			Currency:        req.Currency,
			Category:        req.Category,
			Sum:             req.Sum,
			TransactionTime: req.TransactionTime,
			LimitExceeded:   exceeded,

			LimitID:             limit.ID,
			LimitSumAtTime:      limit.Sum,
			LimitDateTimeAtTime: limit.LastUpdated,
			LimitCurrencyAtTime: limit.Currency,
		}
		if err := tx.Transactions().Insert(ctx, t); err != nil {
			return err
		}

		if err := limits.Decrement(ctx, tx.Limits(), limit, converted); err != nil {
			return err
		}

		s.log.Info().
			Int64("transaction_id", t.ID).
			Int64("limit_id", limit.ID).
			Str("converted", converted.String()).
			Str("remainder", limit.Remainder.String()).
			Bool("limit_exceeded", exceeded).
			Msg("transaction created")

		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) validate(req *CreateRequest) error {
	if req.AccountFrom <= 0 || req.AccountTo <= 0 {
		return fmt.Errorf("%w: account ids must be positive", models.ErrInvalid)
	}
	if req.AccountFrom == req.AccountTo {
		return fmt.Errorf("%w: cannot transfer to the same account", models.ErrInvalid)
	}
	if req.Sum.LessThan(models.MinTransactionSum) {
		return fmt.Errorf("%w: sum must be at least %s", models.ErrInvalid, models.MinTransactionSum)
	}
	currency, err := models.ParseCurrency(string(req.Currency))
	if err != nil {
		return err
	}
	req.Currency = currency

	category, err := models.ParseCategory(string(req.Category))
	if err != nil {
		return err
	}
	req.Category = category

	now := s.now()
	if req.TransactionTime.IsZero() {
		req.TransactionTime = now
	} else if req.TransactionTime.After(now) {
		return fmt.Errorf("%w: transaction time must not be in the future", models.ErrInvalid)
	}
	return nil
}

// All returns the full ledger.
func (s *Service) All(ctx context.Context) ([]*models.Transaction, error) {
	return s.store.Transactions().All(ctx)
}

// ByAccount returns transactions with accountID on either side.
func (s *Service) ByAccount(ctx context.Context, accountID int64) ([]*models.Transaction, error) {
	return s.store.Transactions().ByAccount(ctx, accountID)
}

// ByCategory returns transactions in the given expense category.
func (s *Service) ByCategory(ctx context.Context, category models.Category) ([]*models.Transaction, error) {
	return s.store.Transactions().ByCategory(ctx, category)
}

// ExceededByAccount returns the account's transactions that breached their
// limit. The account must exist; an unknown id is ErrNotFound rather than
// an empty list.
func (s *Service) ExceededByAccount(ctx context.Context, accountID int64) ([]*models.Transaction, error) {
	if _, err := s.store.Accounts().Get(ctx, accountID); err != nil {
		return nil, err
	}
	return s.store.Transactions().ByAccountExceeded(ctx, accountID)
}
