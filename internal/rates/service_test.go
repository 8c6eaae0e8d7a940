package rates

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bank-limits/internal/models"
	"bank-limits/internal/store"
)

// fakeProvider serves canned rates and fails the pairs listed in fail.
type fakeProvider struct {
	rate  decimal.Decimal
	fail  map[string]bool
	calls int
}

func (p *fakeProvider) FetchRate(_ context.Context, from, to models.Currency) (decimal.Decimal, error) {
	p.calls++
	if p.fail[fmt.Sprintf("%s/%s", from, to)] {
		return decimal.Decimal{}, fmt.Errorf("%w: provider down", models.ErrUnavailable)
	}
	return p.rate, nil
}

func TestNewServicePairsAreCrossProductWithoutSelf(t *testing.T) {
	svc := NewService(store.NewMemory(), &fakeProvider{}, zerolog.Nop())

	n := len(models.Currencies())
	require.Len(t, svc.Pairs(), n*(n-1))
	for _, p := range svc.Pairs() {
		assert.NotEqual(t, p.From, p.To)
	}
}

func TestRefreshPairStoresTodaysQuote(t *testing.T) {
	mem := store.NewMemory()
	svc := NewService(mem, &fakeProvider{rate: decimal.RequireFromString("1.0845")}, zerolog.Nop())

	quote, err := svc.RefreshPair(context.Background(), models.CurrencyEUR, models.CurrencyUSD)
	require.NoError(t, err)
	assert.True(t, quote.Rate.Equal(decimal.RequireFromString("1.0845")))
	assert.Equal(t, models.DateOf(time.Now()), quote.Date)

	stored, err := svc.Get(context.Background(), models.CurrencyEUR, models.CurrencyUSD, time.Now())
	require.NoError(t, err)
	assert.True(t, stored.Rate.Equal(quote.Rate))
}

func TestRefreshPairPropagatesProviderFailure(t *testing.T) {
	mem := store.NewMemory()
	provider := &fakeProvider{fail: map[string]bool{"EUR/USD": true}}
	svc := NewService(mem, provider, zerolog.Nop())

	_, err := svc.RefreshPair(context.Background(), models.CurrencyEUR, models.CurrencyUSD)
	require.ErrorIs(t, err, models.ErrUnavailable)

	_, err = svc.Get(context.Background(), models.CurrencyEUR, models.CurrencyUSD, time.Now())
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestRefreshPairReplacesSameDayQuote(t *testing.T) {
	mem := store.NewMemory()
	provider := &fakeProvider{rate: decimal.RequireFromString("1.1")}
	svc := NewService(mem, provider, zerolog.Nop())

	_, err := svc.RefreshPair(context.Background(), models.CurrencyEUR, models.CurrencyUSD)
	require.NoError(t, err)

	provider.rate = decimal.RequireFromString("1.2")
	_, err = svc.RefreshPair(context.Background(), models.CurrencyEUR, models.CurrencyUSD)
	require.NoError(t, err)

	stored, err := svc.Get(context.Background(), models.CurrencyEUR, models.CurrencyUSD, time.Now())
	require.NoError(t, err)
	assert.True(t, stored.Rate.Equal(decimal.RequireFromString("1.2")))
}

func TestRefreshAllSkipsFailingPairs(t *testing.T) {
	mem := store.NewMemory()
	provider := &fakeProvider{
		rate: decimal.RequireFromString("1.5"),
		fail: map[string]bool{"RUB/USD": true},
	}
	svc := NewService(mem, provider, zerolog.Nop())

	updated := svc.RefreshAll(context.Background())
	assert.Equal(t, len(svc.Pairs())-1, updated)
	assert.Equal(t, len(svc.Pairs()), provider.calls)

	// The failed pair is absent, its siblings are stored.
	_, err := svc.Get(context.Background(), models.CurrencyRUB, models.CurrencyUSD, time.Now())
	require.ErrorIs(t, err, models.ErrNotFound)
	_, err = svc.Get(context.Background(), models.CurrencyUSD, models.CurrencyRUB, time.Now())
	require.NoError(t, err)
}

func TestRefreshAllStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &fakeProvider{rate: decimal.NewFromInt(1)}
	svc := NewService(store.NewMemory(), provider, zerolog.Nop())

	assert.Equal(t, 0, svc.RefreshAll(ctx))
	assert.Equal(t, 0, provider.calls)
}
