package models

import (
	"fmt"
	"strings"
)

// Currency is an ISO 4217 short name. The set below is the full list of
// currencies the service quotes and accepts; limits themselves are always
// denominated in the reference currency.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyRUB Currency = "RUB"
)

// ReferenceCurrency is the currency every limit sum and remainder is kept
// in. Transaction amounts are converted into it before the exceed check.
const ReferenceCurrency = CurrencyUSD

// Currencies returns all supported currencies in a fixed order.
func Currencies() []Currency {
	return []Currency{CurrencyUSD, CurrencyEUR, CurrencyRUB}
}

// ParseCurrency converts a request string into a Currency.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Currencies() {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unsupported currency %q", ErrInvalid, s)
}

// Category is an expense category a spending limit applies to.
type Category string

const (
	CategoryProduct Category = "PRODUCT"
	CategoryService Category = "SERVICE"
)

// Categories returns all supported expense categories.
func Categories() []Category {
	return []Category{CategoryProduct, CategoryService}
}

// ParseCategory converts a request string into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Categories() {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unsupported expense category %q", ErrInvalid, s)
}
