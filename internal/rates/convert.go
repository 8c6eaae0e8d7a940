package rates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bank-limits/internal/models"
	"bank-limits/internal/store"
)

// Convert turns amount denominated in currency into the reference currency
// using the quote valid on date.
//
// The identity case never touches the repository, so converting USD to USD
// works without a stored USD/USD quote. For any other pair a missing quote
// is a hard failure wrapping models.ErrUnavailable: guessing with a stale
// or same-day rate would silently misjudge the limit.
//
// Convert takes the repository rather than the Service so the transaction
// protocol can read rates through its own transactional view.
func Convert(ctx context.Context, repo store.RateRepository, amount decimal.Decimal, currency models.Currency, date time.Time, reference models.Currency) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: amount must be greater than zero", models.ErrInvalid)
	}

	if currency == reference {
		return amount, nil
	}

	quote, err := repo.Get(ctx, currency, reference, date)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return decimal.Decimal{}, fmt.Errorf("%w: no exchange rate for %s/%s on %s",
				models.ErrUnavailable, currency, reference, models.DateOf(date).Format(time.DateOnly))
		}
		return decimal.Decimal{}, err
	}

	return amount.Mul(quote.Rate), nil
}
