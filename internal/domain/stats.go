package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// StatDelta is a today vs yesterday comparison.
type StatDelta struct {
	Today     decimal.Decimal
	Yesterday decimal.Decimal
	Change    decimal.Decimal // percent, two decimal places
}

// NewStatDelta computes the percentage change from yesterday to today.
func NewStatDelta(today, yesterday decimal.Decimal) StatDelta {
	return StatDelta{Today: today, Yesterday: yesterday, Change: PercentChange(yesterday, today)}
}

// PercentChange returns (cur-prev)/|prev|*100 rounded to two places. A zero baseline
// yields 100, 0 or -100 following the sign of cur.
func PercentChange(prev, cur decimal.Decimal) decimal.Decimal {
	if prev.IsZero() {
		switch cur.Sign() {
		case 1:
			return hundred
		case -1:
			return hundred.Neg()
		default:
			return decimal.Zero
		}
	}
	return cur.Sub(prev).Div(prev.Abs()).Mul(hundred).Round(2)
}

// DayTotals aggregates one day's deals in the base currency.
type DayTotals struct {
	Count     int64
	BuyTotal  decimal.Decimal
	SellTotal decimal.Decimal
}

// Profit is sell minus buy.
func (t DayTotals) Profit() decimal.Decimal {
	return t.SellTotal.Sub(t.BuyTotal)
}

// DealStats is the day-over-day dashboard shown with the deal listing.
type DealStats struct {
	Count     StatDelta
	BuyTotal  StatDelta
	SellTotal StatDelta
	Profit    StatDelta
}

// CompareDays builds the dashboard from two days of totals.
func CompareDays(today, yesterday DayTotals) DealStats {
	return DealStats{
		Count:     NewStatDelta(decimal.NewFromInt(today.Count), decimal.NewFromInt(yesterday.Count)),
		BuyTotal:  NewStatDelta(today.BuyTotal, yesterday.BuyTotal),
		SellTotal: NewStatDelta(today.SellTotal, yesterday.SellTotal),
		Profit:    NewStatDelta(today.Profit(), yesterday.Profit()),
	}
}
