// Package twelvedata is the HTTP client for the external exchange-rate
// provider. Only the quote contract matters to the rest of the service:
// given a currency pair, return a rate or an error wrapping
// models.ErrUnavailable.
package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"bank-limits/internal/models"
)

const requestTimeout = 10 * time.Second

// Client calls the Twelve Data exchange_rate endpoint. A circuit breaker
// wraps every call so a dead provider fails fast instead of stalling each
// pair of a bulk refresh for the full timeout.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	log        zerolog.Logger
}

// rateResponse is the provider's wire format. The rate is decoded straight
// into a decimal so no digit ever passes through a binary float. Error
// responses carry a non-"ok" status and a message instead of a rate.
type rateResponse struct {
	Rate    decimal.Decimal `json:"rate"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
}

// New builds a client for the given API base URL and key.
func New(baseURL, apiKey string, log zerolog.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "twelvedata",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("provider circuit breaker state changed")
		},
	})
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		breaker:    breaker,
		log:        log,
	}
}

// FetchRate returns the provider's current rate for from/to.
func (c *Client) FetchRate(ctx context.Context, from, to models.Currency) (decimal.Decimal, error) {
	out, err := c.breaker.Execute(func() (any, error) {
		return c.fetch(ctx, from, to)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return decimal.Decimal{}, fmt.Errorf("%w: provider circuit open for %s/%s", models.ErrUnavailable, from, to)
	}
	if err != nil {
		return decimal.Decimal{}, err
	}
	return out.(decimal.Decimal), nil
}

func (c *Client) fetch(ctx context.Context, from, to models.Currency) (decimal.Decimal, error) {
	u := fmt.Sprintf("%s/exchange_rate?symbol=%s&apikey=%s",
		c.baseURL, url.QueryEscape(fmt.Sprintf("%s/%s", from, to)), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: build provider request: %v", models.ErrUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: provider request for %s/%s: %v", models.ErrUnavailable, from, to, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: read provider response: %v", models.ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("%w: provider returned %d for %s/%s", models.ErrUnavailable, resp.StatusCode, from, to)
	}

	var parsed rateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: decode provider response: %v", models.ErrUnavailable, err)
	}
	if parsed.Status == "error" {
		return decimal.Decimal{}, fmt.Errorf("%w: provider error for %s/%s: %s", models.ErrUnavailable, from, to, parsed.Message)
	}

	rate := parsed.Rate
	if !rate.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: provider returned non-positive rate %s for %s/%s", models.ErrUnavailable, rate, from, to)
	}

	c.log.Debug().
		Str("from", string(from)).
		Str("to", string(to)).
		Str("rate", rate.String()).
		Msg("fetched provider rate")
	return rate, nil
}
