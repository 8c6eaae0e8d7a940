// Package store defines the persistence boundary of the service: one
// repository per aggregate plus a transactional runner. The core services
// only ever talk to these interfaces; the in-memory implementation lives
// here, the SQL one in internal/postgres.
package store

import (
	"context"
	"time"

	"bank-limits/internal/models"
)

// Store bundles the repositories behind a single unit-of-work boundary.
//
// WithinTx runs fn against a transactional view of the store and commits
// only if fn returns nil. Everything fn writes through the view becomes
// visible atomically; any error rolls all of it back. Implementations must
// serialize concurrent units of work touching the same limit row so that
// read-modify-write of a remainder can never lose an update.
type Store interface {
	Accounts() AccountRepository
	Limits() LimitRepository
	Transactions() TransactionRepository
	Rates() RateRepository

	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// AccountRepository resolves accounts owned by the external account
// service. Create exists for provisioning and tests; the core never calls
// it on a request path.
type AccountRepository interface {
	// Get returns the account or an error wrapping models.ErrNotFound.
	Get(ctx context.Context, id int64) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
}

// LimitRepository owns spending limits.
type LimitRepository interface {
	// Current returns the most recently updated limit for the pair, or an
	// error wrapping models.ErrNotFound. Inside WithinTx the returned row
	// is locked for the remainder of the unit of work.
	Current(ctx context.Context, accountID int64, category models.Category) (*models.Limit, error)
	Create(ctx context.Context, limit *models.Limit) error
	// Update persists sum, remainder, currency and lastUpdated by limit ID.
	Update(ctx context.Context, limit *models.Limit) error
	ByAccount(ctx context.Context, accountID int64) ([]*models.Limit, error)
	All(ctx context.Context) ([]*models.Limit, error)
}

// TransactionRepository is the append-only ledger. There is deliberately no
// update or delete.
type TransactionRepository interface {
	// Insert appends the transaction and assigns its generated ID.
	Insert(ctx context.Context, t *models.Transaction) error
	All(ctx context.Context) ([]*models.Transaction, error)
	// ByAccount matches either side of the transfer.
	ByAccount(ctx context.Context, accountID int64) ([]*models.Transaction, error)
	ByCategory(ctx context.Context, category models.Category) ([]*models.Transaction, error)
	ByAccountExceeded(ctx context.Context, accountID int64) ([]*models.Transaction, error)
}

// RateRepository holds one quote per (from, to, calendar day).
type RateRepository interface {
	// Get returns the quote for the exact pair and day, or an error
	// wrapping models.ErrNotFound. Absence is not exceptional here; callers
	// decide whether it is fatal.
	Get(ctx context.Context, from, to models.Currency, date time.Time) (*models.ExchangeRate, error)
	// Upsert overwrites any quote already stored under the same key and
	// stamps its update time.
	Upsert(ctx context.Context, rate *models.ExchangeRate) error
}
