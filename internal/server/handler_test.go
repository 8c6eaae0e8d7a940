package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bank-limits/internal/limits"
	"bank-limits/internal/models"
	"bank-limits/internal/rates"
	"bank-limits/internal/store"
	"bank-limits/internal/transactions"
)

type staticProvider struct{ rate decimal.Decimal }

func (p staticProvider) FetchRate(context.Context, models.Currency, models.Currency) (decimal.Decimal, error) {
	return p.rate, nil
}

// newTestRouter builds the full stack on a seeded in-memory store: two
// accounts, a 1000 USD PRODUCT limit on account 1, and a 1.2 EUR/USD quote
// for today.
func newTestRouter(t *testing.T) (*gin.Engine, *store.Memory) {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()

	for _, username := range []string{"alice", "bob"} {
		require.NoError(t, mem.Accounts().Create(ctx, &models.Account{Username: username}))
	}
	remainder := decimal.NewFromInt(1000)
	require.NoError(t, mem.Limits().Create(ctx, &models.Limit{
		AccountID:   1,
		Category:    models.CategoryProduct,
		Sum:         decimal.NewFromInt(1000),
		Remainder:   &remainder,
		Currency:    models.ReferenceCurrency,
		LastUpdated: time.Now().UTC(),
	}))
	require.NoError(t, mem.Rates().Upsert(ctx, &models.ExchangeRate{
		From: models.CurrencyEUR,
		To:   models.CurrencyUSD,
		Date: time.Now(),
		Rate: decimal.RequireFromString("1.2"),
	}))

	log := zerolog.Nop()
	rateSvc := rates.NewService(mem, staticProvider{rate: decimal.RequireFromString("1.0845")}, log)
	srv := New(limits.NewRegistry(mem, log), transactions.NewService(mem, log), rateSvc, log)
	return srv.Router(), mem
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateTransactionEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/bank/transactions",
		`{"fromAccount":1,"toAccount":2,"currency":"EUR","expenseCategory":"PRODUCT","sum":"1000"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/bank/transactions/")

	var created models.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.LimitExceeded)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCreateTransactionBadBody(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/bank/transactions", `{"fromAccount":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTransactionUnknownAccount(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/bank/transactions",
		`{"fromAccount":99,"toAccount":2,"currency":"USD","expenseCategory":"PRODUCT","sum":"10"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTransactionSelfTransfer(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/bank/transactions",
		`{"fromAccount":1,"toAccount":1,"currency":"USD","expenseCategory":"PRODUCT","sum":"10"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTransactionMissingRate(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/bank/transactions",
		`{"fromAccount":1,"toAccount":2,"currency":"RUB","expenseCategory":"PRODUCT","sum":"10"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestTransactionQueryEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/bank/transactions",
		`{"fromAccount":1,"toAccount":2,"currency":"EUR","expenseCategory":"PRODUCT","sum":"1000"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	for _, path := range []string{
		"/bank/transactions",
		"/bank/transactions/account/1",
		"/bank/transactions/account/1?exceededOnly=true",
		"/bank/transactions/exceeded/1",
		"/bank/transactions/byCategory?category=PRODUCT",
	} {
		rec := do(router, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)

		var ts []models.Transaction
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ts))
		assert.Len(t, ts, 1, path)
	}

	rec = do(router, http.MethodGet, "/bank/transactions/byCategory?category=SERVICE", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "null", rec.Body.String())

	rec = do(router, http.MethodGet, "/bank/transactions/byCategory?category=TRAVEL", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodGet, "/bank/transactions/account/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodGet, "/bank/transactions/exceeded/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDefineLimitCooldownRejection(t *testing.T) {
	router, _ := newTestRouter(t)

	// The seeded limit was last updated today.
	rec := do(router, http.MethodPost, "/bank/limits",
		`{"accountId":1,"expenseCategory":"PRODUCT","limit":"2000"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDefineLimitUnknownAccount(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/bank/limits",
		`{"accountId":42,"expenseCategory":"PRODUCT","limit":"2000"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDefineLimitAfterCooldown(t *testing.T) {
	router, mem := newTestRouter(t)

	limit, err := mem.Limits().Current(context.Background(), 1, models.CategoryProduct)
	require.NoError(t, err)
	limit.LastUpdated = time.Now().AddDate(0, -2, 0)
	require.NoError(t, mem.Limits().Update(context.Background(), limit))

	rec := do(router, http.MethodPost, "/bank/limits",
		`{"accountId":1,"expenseCategory":"PRODUCT","limit":"2000"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/bank/limits/")

	var updated models.Limit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.True(t, updated.Sum.Equal(decimal.NewFromInt(2000)))
	assert.True(t, updated.Remainder.Equal(decimal.NewFromInt(2000)))
}

func TestListLimitEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/bank/limits", "/bank/limits/account?accountId=1"} {
		rec := do(router, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)

		var ls []models.LimitSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ls))
		assert.Len(t, ls, 1, path)
	}

	rec := do(router, http.MethodGet, "/bank/limits/account?accountId=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodGet, "/bank/rates?from=EUR&to=USD", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var quote models.ExchangeRate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.True(t, quote.Rate.Equal(decimal.RequireFromString("1.2")))

	rec = do(router, http.MethodGet, "/bank/rates?from=USD&to=RUB", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(router, http.MethodGet, "/bank/rates?from=XXX&to=USD", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodGet, "/bank/rates?from=EUR&to=USD&date=not-a-date", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format(time.DateOnly)
	rec = do(router, http.MethodGet, "/bank/rates?from=EUR&to=USD&date="+tomorrow, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPost, "/bank/rates/refresh?from=USD&to=RUB", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.True(t, quote.Rate.Equal(decimal.RequireFromString("1.0845")))

	rec = do(router, http.MethodPost, "/bank/rates/refresh?from=USD&to=USD", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
