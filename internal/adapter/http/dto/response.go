package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashdesk/internal/domain"
	"github.com/iho/cashdesk/internal/usecase"
)

// Envelope wraps every successful response.
type Envelope struct {
	Message    string      `json:"message"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes the page returned by a listing.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"totalPages"`
}

// NewPagination builds pagination metadata for total rows served in pages of page.Limit.
func NewPagination(total int64, page domain.Page) *Pagination {
	p := &Pagination{Total: total, Page: page.Number, Limit: page.Limit}
	if page.Limit > 0 {
		p.TotalPages = (total + int64(page.Limit) - 1) / int64(page.Limit)
	}
	return p
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ExportResponse reports where a generated report was written.
type ExportResponse struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

// CurrencyRefResponse is a currency embedded in another resource.
type CurrencyRefResponse struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

func currencyRef(c *domain.CurrencyRef) *CurrencyRefResponse {
	if c == nil {
		return nil
	}
	return &CurrencyRefResponse{ID: c.ID, Code: c.Code, Name: c.Name}
}

// CurrencyResponse represents a currency.
type CurrencyResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Symbol    string    `json:"symbol,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CurrencyFromDomain converts a domain currency to response.
func CurrencyFromDomain(c *domain.Currency) *CurrencyResponse {
	return &CurrencyResponse{
		ID:        c.ID,
		Code:      c.Code,
		Name:      c.Name,
		Symbol:    c.Symbol,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// CurrenciesFromDomain converts domain currencies to responses.
func CurrenciesFromDomain(currencies []*domain.Currency) []*CurrencyResponse {
	result := make([]*CurrencyResponse, len(currencies))
	for i, c := range currencies {
		result[i] = CurrencyFromDomain(c)
	}
	return result
}

// PairRateResponse represents a currency pair rate.
type PairRateResponse struct {
	ID              string            `json:"id"`
	BaseCurrencyID  string            `json:"base_currency_id"`
	QuoteCurrencyID string            `json:"quote_currency_id"`
	Rate            decimal.Decimal   `json:"rate"`
	EffectiveAt     time.Time         `json:"effective_at"`
	CreatedBy       string            `json:"created_by,omitempty"`
	BaseCurrency    *CurrencyResponse `json:"base_currency,omitempty"`
	QuoteCurrency   *CurrencyResponse `json:"quote_currency,omitempty"`
}

// PairRateFromDomain converts a domain pair rate to response.
func PairRateFromDomain(r *domain.CurrencyPairRate) *PairRateResponse {
	resp := &PairRateResponse{
		ID:              r.ID,
		BaseCurrencyID:  r.BaseCurrencyID,
		QuoteCurrencyID: r.QuoteCurrencyID,
		Rate:            r.Rate,
		EffectiveAt:     r.EffectiveAt,
		CreatedBy:       r.CreatedBy,
	}
	if r.BaseCurrency != nil {
		resp.BaseCurrency = CurrencyFromDomain(r.BaseCurrency)
	}
	if r.QuoteCurrency != nil {
		resp.QuoteCurrency = CurrencyFromDomain(r.QuoteCurrency)
	}
	return resp
}

// CustomerResponse represents a customer.
type CustomerResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	Email       string    `json:"email,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CustomerFromDomain converts a domain customer to response.
func CustomerFromDomain(c *domain.Customer) *CustomerResponse {
	if c == nil {
		return nil
	}
	return &CustomerResponse{
		ID:          c.ID,
		Name:        c.Name,
		PhoneNumber: c.PhoneNumber,
		Email:       c.Email,
		IsActive:    c.IsActive,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// CustomersFromDomain converts domain customers to responses.
func CustomersFromDomain(customers []*domain.Customer) []*CustomerResponse {
	result := make([]*CustomerResponse, len(customers))
	for i, c := range customers {
		result[i] = CustomerFromDomain(c)
	}
	return result
}

// DealItemResponse represents one deal line item.
type DealItemResponse struct {
	ID         string               `json:"id"`
	Price      decimal.Decimal      `json:"price"`
	Quantity   decimal.Decimal      `json:"quantity"`
	Total      decimal.Decimal      `json:"total"`
	CurrencyID string               `json:"currency_id"`
	Currency   *CurrencyRefResponse `json:"currency,omitempty"`
}

func dealItemsFromDomain(items []domain.DealItem) []DealItemResponse {
	result := make([]DealItemResponse, len(items))
	for i, it := range items {
		result[i] = DealItemResponse{
			ID:         it.ID,
			Price:      it.Price,
			Quantity:   it.Quantity,
			Total:      it.Total,
			CurrencyID: it.CurrencyID,
			Currency:   currencyRef(it.Currency),
		}
	}
	return result
}

// DealResponse represents a deal with its customer, currencies and items.
type DealResponse struct {
	ID              string               `json:"id"`
	DealNumber      string               `json:"deal_number"`
	CustomerID      string               `json:"customer_id"`
	DealType        string               `json:"deal_type"`
	TransactionMode string               `json:"transaction_mode,omitempty"`
	Amount          decimal.Decimal      `json:"amount"`
	ExchangeRate    decimal.Decimal      `json:"exchange_rate"`
	AmountToBePaid  decimal.Decimal      `json:"amount_to_be_paid"`
	BuyCurrencyID   string               `json:"buy_currency_id"`
	SellCurrencyID  string               `json:"sell_currency_id"`
	Status          string               `json:"status"`
	Remarks         string               `json:"remarks,omitempty"`
	CreatedBy       string               `json:"created_by"`
	ActionBy        *string              `json:"action_by,omitempty"`
	ActionAt        *time.Time           `json:"action_at,omitempty"`
	ActionReason    *string              `json:"action_reason,omitempty"`
	CompletedAt     *time.Time           `json:"completed_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	Customer        *CustomerResponse    `json:"customer,omitempty"`
	BuyCurrency     *CurrencyRefResponse `json:"buy_currency,omitempty"`
	SellCurrency    *CurrencyRefResponse `json:"sell_currency,omitempty"`
	ReceivedItems   []DealItemResponse   `json:"received_items"`
	PaidItems       []DealItemResponse   `json:"paid_items"`
}

// DealFromDomain converts a domain deal to response.
func DealFromDomain(d *domain.Deal) *DealResponse {
	return &DealResponse{
		ID:              d.ID,
		DealNumber:      d.DealNumber,
		CustomerID:      d.CustomerID,
		DealType:        string(d.DealType),
		TransactionMode: d.TransactionMode,
		Amount:          d.Amount,
		ExchangeRate:    d.ExchangeRate,
		AmountToBePaid:  d.AmountToBePaid,
		BuyCurrencyID:   d.BuyCurrencyID,
		SellCurrencyID:  d.SellCurrencyID,
		Status:          d.Status,
		Remarks:         d.Remarks,
		CreatedBy:       d.CreatedBy,
		ActionBy:        d.ActionBy,
		ActionAt:        d.ActionAt,
		ActionReason:    d.ActionReason,
		CompletedAt:     d.CompletedAt,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		Customer:        CustomerFromDomain(d.Customer),
		BuyCurrency:     currencyRef(d.BuyCurrency),
		SellCurrency:    currencyRef(d.SellCurrency),
		ReceivedItems:   dealItemsFromDomain(d.ReceivedItems),
		PaidItems:       dealItemsFromDomain(d.PaidItems),
	}
}

// DealsFromDomain converts domain deals to responses.
func DealsFromDomain(deals []*domain.Deal) []*DealResponse {
	result := make([]*DealResponse, len(deals))
	for i, d := range deals {
		result[i] = DealFromDomain(d)
	}
	return result
}

// StatDeltaResponse is a today vs yesterday figure.
type StatDeltaResponse struct {
	Today     decimal.Decimal `json:"today"`
	Yesterday decimal.Decimal `json:"yesterday"`
	Change    decimal.Decimal `json:"change"`
}

// DealStatsResponse is the dashboard shown above the deal list.
type DealStatsResponse struct {
	Count     StatDeltaResponse `json:"count"`
	BuyTotal  StatDeltaResponse `json:"buyTotal"`
	SellTotal StatDeltaResponse `json:"sellTotal"`
	Profit    StatDeltaResponse `json:"profit"`
}

func statDelta(s domain.StatDelta) StatDeltaResponse {
	return StatDeltaResponse{Today: s.Today, Yesterday: s.Yesterday, Change: s.Change}
}

// DealListResponse is the data of GET /deals.
type DealListResponse struct {
	Deals []*DealResponse   `json:"deals"`
	Stats DealStatsResponse `json:"stats"`
}

// DealListFromUseCase converts a deal page with stats.
func DealListFromUseCase(l *usecase.DealList) DealListResponse {
	return DealListResponse{
		Deals: DealsFromDomain(l.Items),
		Stats: DealStatsResponse{
			Count:     statDelta(l.Stats.Count),
			BuyTotal:  statDelta(l.Stats.BuyTotal),
			SellTotal: statDelta(l.Stats.SellTotal),
			Profit:    statDelta(l.Stats.Profit),
		},
	}
}

// CashEntryResponse is one counted line of a reconciliation.
type CashEntryResponse struct {
	ID           string               `json:"id"`
	Denomination decimal.Decimal      `json:"denomination"`
	Quantity     int64                `json:"quantity"`
	Amount       decimal.Decimal      `json:"amount"`
	ExchangeRate decimal.Decimal      `json:"exchange_rate"`
	CurrencyID   string               `json:"currency_id"`
	Currency     *CurrencyRefResponse `json:"currency,omitempty"`
}

func cashEntriesFromDomain(entries []domain.CashEntry) []CashEntryResponse {
	result := make([]CashEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = CashEntryResponse{
			ID:           e.ID,
			Denomination: e.Denomination,
			Quantity:     e.Quantity,
			Amount:       e.Amount,
			ExchangeRate: e.ExchangeRate,
			CurrencyID:   e.CurrencyID,
			Currency:     currencyRef(e.Currency),
		}
	}
	return result
}

// NoteResponse is a reconciliation note.
type NoteResponse struct {
	ID        string    `json:"id"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// UserSummary is a user embedded in another resource.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BalanceResponse is the expected vs counted position of one currency.
type BalanceResponse struct {
	CurrencyID string          `json:"currency_id"`
	Expected   decimal.Decimal `json:"expected"`
	Actual     decimal.Decimal `json:"actual"`
	Difference decimal.Decimal `json:"difference"`
}

// ReconciliationResponse represents a reconciliation. Deal totals and balances are
// only filled on detail views.
type ReconciliationResponse struct {
	ID             string              `json:"id"`
	Status         string              `json:"status"`
	CreatedBy      string              `json:"created_by"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Creator        *UserSummary        `json:"creator,omitempty"`
	OpeningEntries []CashEntryResponse `json:"openingEntries"`
	ClosingEntries []CashEntryResponse `json:"closingEntries"`
	Notes          []NoteResponse      `json:"notes"`
	Deals          []*DealResponse     `json:"deals,omitempty"`
	TotalBuy       *decimal.Decimal    `json:"totalBuy,omitempty"`
	TotalSell      *decimal.Decimal    `json:"totalSell,omitempty"`
	Balances       []BalanceResponse   `json:"balances,omitempty"`
}

// ReconciliationFromDomain converts a domain reconciliation to response.
func ReconciliationFromDomain(r *domain.Reconciliation) *ReconciliationResponse {
	resp := &ReconciliationResponse{
		ID:             r.ID,
		Status:         string(r.Status),
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		OpeningEntries: cashEntriesFromDomain(r.OpeningEntries),
		ClosingEntries: cashEntriesFromDomain(r.ClosingEntries),
		Notes:          make([]NoteResponse, len(r.Notes)),
	}
	for i, n := range r.Notes {
		resp.Notes[i] = NoteResponse{ID: n.ID, Note: n.Note, CreatedAt: n.CreatedAt}
	}
	if r.Creator != nil {
		resp.Creator = &UserSummary{ID: r.Creator.ID, Name: r.Creator.Name, Email: r.Creator.Email}
	}
	if len(r.Deals) > 0 {
		resp.Deals = DealsFromDomain(r.Deals)
	}
	return resp
}

// ReconciliationsFromDomain converts domain reconciliations to responses.
func ReconciliationsFromDomain(recons []*domain.Reconciliation) []*ReconciliationResponse {
	result := make([]*ReconciliationResponse, len(recons))
	for i, r := range recons {
		result[i] = ReconciliationFromDomain(r)
	}
	return result
}

// ReconciliationDetailFromUseCase converts a reconciliation with computed totals.
func ReconciliationDetailFromUseCase(d *usecase.ReconciliationDetail) *ReconciliationResponse {
	resp := ReconciliationFromDomain(d.Reconciliation)
	resp.TotalBuy = &d.TotalBuy
	resp.TotalSell = &d.TotalSell
	resp.Balances = make([]BalanceResponse, len(d.Balances))
	for i, b := range d.Balances {
		resp.Balances[i] = BalanceResponse{
			CurrencyID: b.CurrencyID,
			Expected:   b.Expected,
			Actual:     b.Actual,
			Difference: b.Diff(),
		}
	}
	return resp
}

// AlertResponse is one entry of the alert feed.
type AlertResponse struct {
	ID        string `json:"id"`
	AlertType string `json:"alertType"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// AlertsFromDomain converts domain alerts to responses.
func AlertsFromDomain(alerts []domain.Alert) []AlertResponse {
	result := make([]AlertResponse, len(alerts))
	for i, a := range alerts {
		result[i] = AlertResponse{
			ID:        a.ID,
			AlertType: string(a.AlertType),
			Title:     a.Title,
			Message:   a.Message,
			Status:    a.Status,
			CreatedAt: a.CreatedAt,
		}
	}
	return result
}

// UserResponse represents a back-office user.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFromDomain converts a domain user to response.
func UserFromDomain(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

// UsersFromDomain converts domain users to responses.
func UsersFromDomain(users []*domain.User) []*UserResponse {
	result := make([]*UserResponse, len(users))
	for i, u := range users {
		result[i] = UserFromDomain(u)
	}
	return result
}

// LoginResponse tells the client a code was sent and for how long it is valid.
type LoginResponse struct {
	Email     string `json:"email"`
	ExpiresIn int64  `json:"expires_in"`
}

// TokenResponse carries the access token issued after OTP verification.
type TokenResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}
