package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationStatus is the outcome of a cash-drawer reconciliation.
type ReconciliationStatus string

const (
	ReconInProgress ReconciliationStatus = "In_Progress"
	ReconTallied    ReconciliationStatus = "Tallied"
	ReconShort      ReconciliationStatus = "Short"
	ReconExcess     ReconciliationStatus = "Excess"
)

// IsValid reports whether s is one of the known statuses.
func (s ReconciliationStatus) IsValid() bool {
	switch s {
	case ReconInProgress, ReconTallied, ReconShort, ReconExcess:
		return true
	}
	return false
}

// IsDiscrepancy reports whether the status should raise an alert.
func (s ReconciliationStatus) IsDiscrepancy() bool {
	return s == ReconShort || s == ReconExcess
}

// EntryKind tells opening and closing cash counts apart.
type EntryKind string

const (
	EntryOpening EntryKind = "opening"
	EntryClosing EntryKind = "closing"
)

// LedgerTolerance is the absolute per-currency difference treated as rounding noise.
var LedgerTolerance = decimal.NewFromFloat(0.01)

// CashEntry is a cash-count line, e.g. a 50 note counted 10 times for 500.
type CashEntry struct {
	ID               string
	ReconciliationID string
	Denomination     decimal.Decimal
	Quantity         int64
	Amount           decimal.Decimal
	ExchangeRate     decimal.Decimal
	CurrencyID       string
	Currency         *CurrencyRef
}

// ReconciliationNote is a free-form audit note.
type ReconciliationNote struct {
	ID               string
	ReconciliationID string
	Note             string
	CreatedAt        time.Time
}

// Reconciliation is a cash-drawer count for a period, usually a day.
type Reconciliation struct {
	ID             string
	Status         ReconciliationStatus
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	OpeningEntries []CashEntry
	ClosingEntries []CashEntry
	Notes          []ReconciliationNote
	Deals          []*Deal
	Creator        *User
}

// SumEntries adds up the amounts of entries regardless of currency.
func SumEntries(entries []CashEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

// ClassifyTotals compares raw opening and closing totals with exact decimal equality.
func ClassifyTotals(opening, closing decimal.Decimal) ReconciliationStatus {
	switch closing.Cmp(opening) {
	case 0:
		return ReconTallied
	case -1:
		return ReconShort
	default:
		return ReconExcess
	}
}

// InitialStatus derives the status of a freshly created reconciliation.
func InitialStatus(opening, closing []CashEntry) ReconciliationStatus {
	if len(closing) == 0 {
		return ReconInProgress
	}
	return ClassifyTotals(SumEntries(opening), SumEntries(closing))
}

// CurrencyBalance is the expected vs counted position of one currency.
type CurrencyBalance struct {
	CurrencyID string
	Expected   decimal.Decimal
	Actual     decimal.Decimal
}

// Diff is actual minus expected.
func (b CurrencyBalance) Diff() decimal.Decimal {
	return b.Actual.Sub(b.Expected)
}

// Ledger is the per-currency position of a reconciliation.
type Ledger map[string]*CurrencyBalance

func (l Ledger) balance(currencyID string) *CurrencyBalance {
	b, ok := l[currencyID]
	if !ok {
		b = &CurrencyBalance{CurrencyID: currencyID, Expected: decimal.Zero, Actual: decimal.Zero}
		l[currencyID] = b
	}
	return b
}

func (l Ledger) expect(currencyID string, delta decimal.Decimal) {
	b := l.balance(currencyID)
	b.Expected = b.Expected.Add(delta)
}

// ApplyDeal moves expected cash for one deal. Basket deals walk their items: received
// items add to the drawer and paid items take from it. Simple deals use their two legs.
func (l Ledger) ApplyDeal(d *Deal) {
	if d.HasItems() {
		for _, it := range d.ReceivedItems {
			l.expect(it.CurrencyID, it.Total)
		}
		for _, it := range d.PaidItems {
			l.expect(it.CurrencyID, it.Total.Neg())
		}
		return
	}

	switch d.DealType {
	case DealTypeBuy:
		l.expect(d.BuyCurrencyID, d.Amount)
		l.expect(d.SellCurrencyID, d.AmountToBePaid.Neg())
	case DealTypeSell:
		l.expect(d.BuyCurrencyID, d.AmountToBePaid)
		l.expect(d.SellCurrencyID, d.Amount.Neg())
	}
}

// BuildLedger seeds expected from opening entries, actual from closing entries and then
// applies every deal.
func BuildLedger(opening, closing []CashEntry, deals []*Deal) Ledger {
	l := Ledger{}
	for _, e := range opening {
		l.expect(e.CurrencyID, e.Amount)
	}
	for _, e := range closing {
		b := l.balance(e.CurrencyID)
		b.Actual = b.Actual.Add(e.Amount)
	}
	for _, d := range deals {
		l.ApplyDeal(d)
	}
	return l
}

// Status classifies the ledger. A currency is off when |actual-expected| reaches the
// tolerance; any short currency makes the whole ledger Short, otherwise any excess
// currency makes it Excess.
func (l Ledger) Status() ReconciliationStatus {
	short, excess := false, false
	for _, b := range l {
		diff := b.Diff()
		if diff.Abs().LessThan(LedgerTolerance) {
			continue
		}
		if diff.IsNegative() {
			short = true
		} else {
			excess = true
		}
	}
	switch {
	case short:
		return ReconShort
	case excess:
		return ReconExcess
	default:
		return ReconTallied
	}
}

// Balances returns the ledger ordered by currency id.
func (l Ledger) Balances() []CurrencyBalance {
	out := make([]CurrencyBalance, 0, len(l))
	for _, b := range l {
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b CurrencyBalance) int {
		switch {
		case a.CurrencyID < b.CurrencyID:
			return -1
		case a.CurrencyID > b.CurrencyID:
			return 1
		}
		return 0
	})
	return out
}

// DealTotals sums settlement amounts of the reconciliation's deals for display. A buy
// deal means the business sold the settlement currency, so it counts toward totalSell;
// a sell deal counts toward totalBuy.
func (r *Reconciliation) DealTotals() (totalBuy, totalSell decimal.Decimal) {
	totalBuy, totalSell = decimal.Zero, decimal.Zero
	for _, d := range r.Deals {
		switch d.DealType {
		case DealTypeBuy:
			totalSell = totalSell.Add(d.AmountToBePaid)
		case DealTypeSell:
			totalBuy = totalBuy.Add(d.AmountToBePaid)
		}
	}
	return totalBuy, totalSell
}
