package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency is immutable reference data identified by its ISO code.
type Currency struct {
	ID        string
	Code      string
	Name      string
	Symbol    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CurrencyPairRate is one observed rate for a base/quote pair. Rate is the number of
// base-currency units paid for one unit of the quote currency. Rows are never uniqued;
// the latest EffectiveAt wins.
type CurrencyPairRate struct {
	ID              string
	BaseCurrencyID  string
	QuoteCurrencyID string
	Rate            decimal.Decimal
	EffectiveAt     time.Time
	CreatedBy       string
	BaseCurrency    *Currency
	QuoteCurrency   *Currency
}

// CurrencyRef is the trimmed currency projection embedded in entries and deals.
type CurrencyRef struct {
	ID   string
	Code string
	Name string
}
