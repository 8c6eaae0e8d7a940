// Package rates owns exchange-rate storage, refresh, and currency
// conversion. Quotes are keyed by (from, to, calendar day); the refresh
// routine walks the full currency cross product against the external
// provider.
package rates

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bank-limits/internal/models"
	"bank-limits/internal/store"
)

// Provider is the external quote service. Implementations return the
// current rate for a pair or an error wrapping models.ErrUnavailable.
type Provider interface {
	FetchRate(ctx context.Context, from, to models.Currency) (decimal.Decimal, error)
}

// Pair is one directed currency pair to refresh.
type Pair struct {
	From models.Currency
	To   models.Currency
}

// Service reads and refreshes stored exchange rates.
type Service struct {
	store    store.Store
	provider Provider
	pairs    []Pair
	log      zerolog.Logger
}

// NewService builds the service and precomputes the immutable refresh set:
// every ordered pair of supported currencies, self-pairs excluded.
func NewService(s store.Store, provider Provider, log zerolog.Logger) *Service {
	var pairs []Pair
	for _, from := range models.Currencies() {
		for _, to := range models.Currencies() {
			if from == to {
				continue
			}
			pairs = append(pairs, Pair{From: from, To: to})
		}
	}
	return &Service{store: s, provider: provider, pairs: pairs, log: log}
}

// Pairs returns the refresh set. The slice is shared; callers must not
// modify it.
func (s *Service) Pairs() []Pair { return s.pairs }

// Get looks up the quote for the exact pair and day. Absence surfaces as an
// error wrapping models.ErrNotFound; callers decide whether that is fatal.
func (s *Service) Get(ctx context.Context, from, to models.Currency, date time.Time) (*models.ExchangeRate, error) {
	return s.store.Rates().Get(ctx, from, to, date)
}

// RefreshPair fetches today's quote for one pair and upserts it, replacing
// any quote already stored for the day. Provider failures propagate to the
// caller; this is the manual refresh path.
func (s *Service) RefreshPair(ctx context.Context, from, to models.Currency) (*models.ExchangeRate, error) {
	rate, err := s.provider.FetchRate(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("refresh %s/%s: %w", from, to, err)
	}

	quote := &models.ExchangeRate{
		From: from,
		To:   to,
		Date: models.DateOf(time.Now()),
		Rate: rate,
	}
	if err := s.store.Rates().Upsert(ctx, quote); err != nil {
		return nil, fmt.Errorf("store rate %s/%s: %w", from, to, err)
	}

	s.log.Info().
		Str("from", string(from)).
		Str("to", string(to)).
		Str("rate", rate.String()).
		Msg("exchange rate refreshed")
	return quote, nil
}

// RefreshAll refreshes every pair in the cross product. Each pair's failure
// is logged and skipped so one bad pair never aborts the batch; the number
// of pairs actually updated is returned.
func (s *Service) RefreshAll(ctx context.Context) int {
	updated := 0
	for _, p := range s.pairs {
		if ctx.Err() != nil {
			s.log.Warn().Err(ctx.Err()).Msg("rate refresh interrupted")
			return updated
		}
		if _, err := s.RefreshPair(ctx, p.From, p.To); err != nil {
			s.log.Error().
				Err(err).
				Str("from", string(p.From)).
				Str("to", string(p.To)).
				Msg("failed to refresh pair")
			continue
		}
		updated++
	}
	return updated
}
