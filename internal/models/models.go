// Package models holds the domain types shared by every layer: accounts,
// spending limits, exchange rates, ledger transactions, and the error kinds
// the service speaks in. Monetary values use decimal arithmetic throughout;
// none of these fields may ever hold a binary float.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MinTransactionSum is the smallest transferable amount in any currency.
var MinTransactionSum = decimal.RequireFromString("0.001")

// Account is an opaque identity owned by the external account service.
// The core only ever checks that one exists.
type Account struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Limit is a per-account, per-category spending ceiling in the reference
// currency. Remainder is the unspent part of Sum; it goes negative once the
// ceiling is breached but must never be unset on a stored limit. The
// logically "current" limit for an (account, category) pair is the one with
// the most recent LastUpdated.
type Limit struct {
	ID          int64            `json:"id"`
	AccountID   int64            `json:"accountId"`
	Category    Category         `json:"category"`
	Sum         decimal.Decimal  `json:"sum"`
	Remainder   *decimal.Decimal `json:"remainder"`
	Currency    Currency         `json:"currency"`
	LastUpdated time.Time        `json:"lastUpdated"`
}

// LimitSummary is the read projection returned by limit listings, with the
// owning account already resolved.
type LimitSummary struct {
	AccountID   int64           `json:"accountId"`
	Category    Category        `json:"category"`
	Sum         decimal.Decimal `json:"limit"`
	Remainder   decimal.Decimal `json:"remainder"`
	Currency    Currency        `json:"currency"`
	LastUpdated time.Time       `json:"lastUpdate"`
}

// ExchangeRate is one quote for a currency pair on one calendar day.
// Pairs are populated in both directions by independent provider calls;
// Rate(A,B) is not derived from Rate(B,A).
type ExchangeRate struct {
	From       Currency        `json:"currencyFrom"`
	To         Currency        `json:"currencyTo"`
	Date       time.Time       `json:"rateDate"`
	Rate       decimal.Decimal `json:"rate"`
	UpdateTime time.Time       `json:"updateTime"`
}

// Transaction is one completed transfer. It is immutable once appended:
// the Limit* fields freeze the state of the limit it was judged against, so
// later limit redefinitions never change what this record meant.
type Transaction struct {
	ID              int64           `json:"id"`
	AccountFrom     int64           `json:"accountFrom"`
	AccountTo       int64           `json:"accountTo"`
	Currency        Currency        `json:"currency"`
	Category        Category        `json:"expenseCategory"`
	Sum             decimal.Decimal `json:"sum"`
	TransactionTime time.Time       `json:"transactionTime"`
	LimitExceeded   bool            `json:"limitExceeded"`

	LimitID             int64           `json:"limitId"`
	LimitSumAtTime      decimal.Decimal `json:"limitSumAtTime"`
	LimitDateTimeAtTime time.Time       `json:"limitDateTimeAtTime"`
	LimitCurrencyAtTime Currency        `json:"limitCurrencyAtTime"`
}

// DateOf truncates a timestamp to its UTC calendar day. Exchange rates are
// keyed by day, so every lookup and upsert goes through this.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
