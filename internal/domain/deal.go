package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DealType is the side of the business in a deal.
type DealType string

const (
	DealTypeBuy  DealType = "buy"
	DealTypeSell DealType = "sell"
)

// IsValid reports whether t is buy or sell.
func (t DealType) IsValid() bool {
	return t == DealTypeBuy || t == DealTypeSell
}

// Well-known deal statuses. Any other non-empty value is accepted as free text.
const (
	DealStatusPending   = "Pending"
	DealStatusCompleted = "Completed"
)

// DealItemSide tells whether a basket line item was received or paid out.
type DealItemSide string

const (
	DealItemReceived DealItemSide = "received"
	DealItemPaid     DealItemSide = "paid"
)

// DealItem is one line of the multi-currency basket variant of a deal.
type DealItem struct {
	ID         string
	DealID     string
	Side       DealItemSide
	Price      decimal.Decimal
	Quantity   decimal.Decimal
	Total      decimal.Decimal
	CurrencyID string
	Currency   *CurrencyRef
	// Position is the item's index in the deal's submitted item list.
	Position int
}

// NumberItems sets each item's Position to its index and returns items.
func NumberItems(items []DealItem) []DealItem {
	for i := range items {
		items[i].Position = i
	}
	return items
}

// sameContent compares the editable fields of two items.
func (i DealItem) sameContent(o DealItem) bool {
	return i.Side == o.Side &&
		i.CurrencyID == o.CurrencyID &&
		i.Position == o.Position &&
		i.Price.Equal(o.Price) &&
		i.Quantity.Equal(o.Quantity) &&
		i.Total.Equal(o.Total)
}

// Deal is a single buy or sell currency transaction with a customer.
// AmountToBePaid is always denominated in the opposite leg's currency from Amount.
type Deal struct {
	ID              string
	DealNumber      string
	CustomerID      string
	DealType        DealType
	TransactionMode string
	Amount          decimal.Decimal
	ExchangeRate    decimal.Decimal
	AmountToBePaid  decimal.Decimal
	BuyCurrencyID   string
	SellCurrencyID  string
	Status          string
	Remarks         string
	CreatedBy       string
	ActionBy        *string
	ActionAt        *time.Time
	ActionReason    *string
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time

	ReceivedItems []DealItem
	PaidItems     []DealItem

	Customer     *Customer
	BuyCurrency  *CurrencyRef
	SellCurrency *CurrencyRef
}

// HasItems reports whether the deal uses the basket variant.
func (d *Deal) HasItems() bool {
	return len(d.ReceivedItems) > 0 || len(d.PaidItems) > 0
}

// Items returns received then paid items with their side set.
func (d *Deal) Items() []DealItem {
	items := make([]DealItem, 0, len(d.ReceivedItems)+len(d.PaidItems))
	for _, it := range d.ReceivedItems {
		it.Side = DealItemReceived
		items = append(items, it)
	}
	for _, it := range d.PaidItems {
		it.Side = DealItemPaid
		items = append(items, it)
	}
	return items
}

// SetItems splits items by side into ReceivedItems and PaidItems.
func (d *Deal) SetItems(items []DealItem) {
	d.ReceivedItems = d.ReceivedItems[:0]
	d.PaidItems = d.PaidItems[:0]
	for _, it := range items {
		if it.Side == DealItemPaid {
			d.PaidItems = append(d.PaidItems, it)
			continue
		}
		d.ReceivedItems = append(d.ReceivedItems, it)
	}
}

// SettlementCurrencyID is the currency AmountToBePaid is expressed in.
func (d *Deal) SettlementCurrencyID() string {
	if d.DealType == DealTypeSell {
		return d.BuyCurrencyID
	}
	return d.SellCurrencyID
}

// IsPending reports whether the deal awaits action.
func (d *Deal) IsPending() bool {
	return d.Status == DealStatusPending && d.DeletedAt == nil
}

// ApplyStatus records a status transition. CompletedAt is stamped every time the status
// is set to Completed, including repeated transitions.
func (d *Deal) ApplyStatus(status, reason, actorID string, now time.Time) {
	d.Status = status
	d.ActionBy = &actorID
	if reason != "" {
		d.ActionReason = &reason
	} else {
		d.ActionReason = nil
	}
	d.ActionAt = &now
	d.UpdatedAt = now
	if status == DealStatusCompleted {
		d.CompletedAt = &now
	}
}

// Validate checks the scalar fields of a deal.
func (d *Deal) Validate() error {
	if !d.DealType.IsValid() {
		return ErrInvalidDealType
	}
	if d.CustomerID == "" {
		return Validationf("customer_id is required")
	}
	if !d.HasItems() {
		if d.BuyCurrencyID == "" || d.SellCurrencyID == "" {
			return Validationf("buy_currency_id and sell_currency_id are required")
		}
		if d.BuyCurrencyID == d.SellCurrencyID {
			return Validationf("buy and sell currency must differ")
		}
		if !d.Amount.IsPositive() || !d.AmountToBePaid.IsPositive() {
			return ErrInvalidAmount
		}
	}
	for _, it := range d.Items() {
		if it.CurrencyID == "" {
			return Validationf("deal item currency_id is required")
		}
		if it.Total.IsNegative() {
			return ErrInvalidAmount
		}
	}
	return nil
}

// DealNumberPrefix is the date-scoped prefix shared by all deals of a calendar day.
func DealNumberPrefix(day time.Time) string {
	return "DL-" + day.Format("0201") + "-"
}

// FormatDealNumber renders a deal number, e.g. DL-1910-007.
func FormatDealNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("%s%03d", DealNumberPrefix(day), seq)
}

// ParseDealSequence extracts the numeric suffix of a deal number.
func ParseDealSequence(number string) (int64, bool) {
	idx := strings.LastIndex(number, "-")
	if idx < 0 || idx == len(number)-1 {
		return 0, false
	}
	seq, err := strconv.ParseInt(number[idx+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}

// ItemDiff is the replace-by-diff plan for a deal's line items.
type ItemDiff struct {
	Create []DealItem
	Update []DealItem
	Delete []string
}

// Empty reports whether the diff changes nothing.
func (d ItemDiff) Empty() bool {
	return len(d.Create) == 0 && len(d.Update) == 0 && len(d.Delete) == 0
}

// DiffItems compares stored items with an incoming full item list. Items carrying an ID
// are updated in place when their content changed, items without an ID are created and
// stored items missing from incoming are deleted.
func DiffItems(existing, incoming []DealItem) (ItemDiff, error) {
	var diff ItemDiff

	byID := make(map[string]DealItem, len(existing))
	for _, it := range existing {
		byID[it.ID] = it
	}

	kept := make(map[string]bool, len(incoming))
	for _, it := range incoming {
		if it.ID == "" {
			diff.Create = append(diff.Create, it)
			continue
		}
		old, ok := byID[it.ID]
		if !ok {
			return ItemDiff{}, fmt.Errorf("%w: %s", ErrDealItemNotFound, it.ID)
		}
		kept[it.ID] = true
		if !old.sameContent(it) {
			diff.Update = append(diff.Update, it)
		}
	}

	for _, it := range existing {
		if !kept[it.ID] {
			diff.Delete = append(diff.Delete, it.ID)
		}
	}

	return diff, nil
}

// SortableDealColumns is the allow-list of columns deals may be ordered by.
var SortableDealColumns = map[string]bool{
	"created_at":        true,
	"deal_number":       true,
	"amount":            true,
	"amount_to_be_paid": true,
	"status":            true,
	"deal_type":         true,
}

// DealSort is a validated ordering.
type DealSort struct {
	Field string
	Desc  bool
}

// ParseDealSort validates a caller-chosen sort column and direction.
func ParseDealSort(field, direction string) (DealSort, error) {
	if field == "" {
		field = "created_at"
	}
	if !SortableDealColumns[field] {
		return DealSort{}, fmt.Errorf("%w: %s", ErrInvalidSortField, field)
	}
	switch strings.ToLower(direction) {
	case "", "desc":
		return DealSort{Field: field, Desc: true}, nil
	case "asc":
		return DealSort{Field: field}, nil
	default:
		return DealSort{}, Validationf("sort direction must be asc or desc")
	}
}
