package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bank-limits/internal/models"
)

type pgRates struct{ s *Store }

func (r pgRates) Get(ctx context.Context, from, to models.Currency, date time.Time) (*models.ExchangeRate, error) {
	const q = `SELECT currency_from, currency_to, rate_date, rate, update_time
	             FROM exchange_rates
	            WHERE currency_from = $1 AND currency_to = $2 AND rate_date = $3`

	var rate models.ExchangeRate
	err := r.s.q.QueryRowContext(ctx, q, from, to, models.DateOf(date)).
		Scan(&rate.From, &rate.To, &rate.Date, &rate.Rate, &rate.UpdateTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: rate %s/%s on %s", models.ErrNotFound, from, to, models.DateOf(date).Format("2006-01-02"))
	}
	if err != nil {
		return nil, fmt.Errorf("query rate %s/%s: %w", from, to, err)
	}
	return &rate, nil
}

func (r pgRates) Upsert(ctx context.Context, rate *models.ExchangeRate) error {
	const q = `INSERT INTO exchange_rates (currency_from, currency_to, rate_date, rate, update_time)
	           VALUES ($1, $2, $3, $4, now())
	           ON CONFLICT (currency_from, currency_to, rate_date)
	           DO UPDATE SET rate = EXCLUDED.rate, update_time = now()
	           RETURNING update_time`

	rate.Date = models.DateOf(rate.Date)
	err := r.s.q.QueryRowContext(ctx, q, rate.From, rate.To, rate.Date, rate.Rate).Scan(&rate.UpdateTime)
	if err != nil {
		return fmt.Errorf("upsert rate %s/%s: %w", rate.From, rate.To, err)
	}
	return nil
}
