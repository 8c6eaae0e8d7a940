package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bank-limits/internal/models"
)

func seedAccount(t *testing.T, m *Memory, username string) *models.Account {
	t.Helper()
	a := &models.Account{Username: username}
	require.NoError(t, m.Accounts().Create(context.Background(), a))
	return a
}

func newLimit(accountID int64, category models.Category, sum string, lastUpdated time.Time) *models.Limit {
	remainder := decimal.RequireFromString(sum)
	return &models.Limit{
		AccountID:   accountID,
		Category:    category,
		Sum:         decimal.RequireFromString(sum),
		Remainder:   &remainder,
		Currency:    models.ReferenceCurrency,
		LastUpdated: lastUpdated,
	}
}

func TestAccountsAssignSequentialIDs(t *testing.T) {
	m := NewMemory()

	a := seedAccount(t, m, "alice")
	b := seedAccount(t, m, "bob")
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	got, err := m.Accounts().Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = m.Accounts().Get(context.Background(), 42)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestLimitsCurrentPicksMostRecent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	old := newLimit(1, models.CategoryProduct, "500", base)
	recent := newLimit(1, models.CategoryProduct, "900", base.AddDate(0, 1, 0))
	other := newLimit(1, models.CategoryService, "100", base.AddDate(0, 2, 0))
	for _, l := range []*models.Limit{old, recent, other} {
		require.NoError(t, m.Limits().Create(ctx, l))
	}

	current, err := m.Limits().Current(ctx, 1, models.CategoryProduct)
	require.NoError(t, err)
	assert.Equal(t, recent.ID, current.ID)

	_, err = m.Limits().Current(ctx, 2, models.CategoryProduct)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestLimitsCurrentTieBreaksOnHigherID(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	when := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	first := newLimit(1, models.CategoryProduct, "500", when)
	second := newLimit(1, models.CategoryProduct, "900", when)
	require.NoError(t, m.Limits().Create(ctx, first))
	require.NoError(t, m.Limits().Create(ctx, second))

	current, err := m.Limits().Current(ctx, 1, models.CategoryProduct)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)
}

func TestLimitsReturnedValuesAreCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Limits().Create(ctx, newLimit(1, models.CategoryProduct, "500", time.Now())))

	got, err := m.Limits().Current(ctx, 1, models.CategoryProduct)
	require.NoError(t, err)
	*got.Remainder = decimal.NewFromInt(-999)

	again, err := m.Limits().Current(ctx, 1, models.CategoryProduct)
	require.NoError(t, err)
	assert.True(t, again.Remainder.Equal(decimal.NewFromInt(500)))
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	seedAccount(t, m, "alice")
	require.NoError(t, m.Limits().Create(ctx, newLimit(1, models.CategoryProduct, "500", time.Now())))

	boom := errors.New("boom")
	err := m.WithinTx(ctx, func(tx Store) error {
		limit, err := tx.Limits().Current(ctx, 1, models.CategoryProduct)
		require.NoError(t, err)

		remainder := decimal.NewFromInt(1)
		limit.Remainder = &remainder
		require.NoError(t, tx.Limits().Update(ctx, limit))

		require.NoError(t, tx.Transactions().Insert(ctx, &models.Transaction{
			AccountFrom: 1, AccountTo: 2,
			Currency: models.CurrencyUSD, Category: models.CategoryProduct,
			Sum: decimal.NewFromInt(10), TransactionTime: time.Now(), LimitID: limit.ID,
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	limit, err := m.Limits().Current(ctx, 1, models.CategoryProduct)
	require.NoError(t, err)
	assert.True(t, limit.Remainder.Equal(decimal.NewFromInt(500)))

	ts, err := m.Transactions().All(ctx)
	require.NoError(t, err)
	assert.Empty(t, ts)
}

func TestWithinTxCommitsOnSuccess(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	err := m.WithinTx(ctx, func(tx Store) error {
		return tx.Accounts().Create(ctx, &models.Account{Username: "alice"})
	})
	require.NoError(t, err)

	got, err := m.Accounts().Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}

func TestTransactionsByAccountMatchesEitherSide(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	insert := func(from, to int64, exceeded bool) {
		require.NoError(t, m.Transactions().Insert(ctx, &models.Transaction{
			AccountFrom: from, AccountTo: to,
			Currency: models.CurrencyUSD, Category: models.CategoryProduct,
			Sum: decimal.NewFromInt(10), TransactionTime: time.Now(),
			LimitExceeded: exceeded, LimitID: 1,
		}))
	}
	insert(1, 2, false)
	insert(2, 3, true)
	insert(3, 4, true)

	ts, err := m.Transactions().ByAccount(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, ts, 2)

	exceeded, err := m.Transactions().ByAccountExceeded(ctx, 2)
	require.NoError(t, err)
	require.Len(t, exceeded, 1)
	assert.Equal(t, int64(3), exceeded[0].AccountTo)
}

func TestRatesUpsertOverwritesSameDay(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	day := time.Date(2026, time.May, 2, 8, 0, 0, 0, time.UTC)

	first := &models.ExchangeRate{From: models.CurrencyEUR, To: models.CurrencyUSD, Date: day, Rate: decimal.RequireFromString("1.1")}
	require.NoError(t, m.Rates().Upsert(ctx, first))
	assert.Equal(t, models.DateOf(day), first.Date)
	assert.False(t, first.UpdateTime.IsZero())

	second := &models.ExchangeRate{From: models.CurrencyEUR, To: models.CurrencyUSD, Date: day, Rate: decimal.RequireFromString("1.2")}
	require.NoError(t, m.Rates().Upsert(ctx, second))

	got, err := m.Rates().Get(ctx, models.CurrencyEUR, models.CurrencyUSD, day)
	require.NoError(t, err)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("1.2")))

	// A different day is a different quote.
	_, err = m.Rates().Get(ctx, models.CurrencyEUR, models.CurrencyUSD, day.AddDate(0, 0, 1))
	require.ErrorIs(t, err, models.ErrNotFound)
}
