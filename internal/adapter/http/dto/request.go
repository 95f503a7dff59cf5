package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashdesk/internal/domain"
	"github.com/iho/cashdesk/internal/usecase"
)

// CashEntryRequest is one counted line of a reconciliation.
// Amount may be omitted when denomination and quantity are given.
type CashEntryRequest struct {
	Denomination decimal.Decimal `json:"denomination"`
	Quantity     int64           `json:"quantity"`
	Amount       decimal.Decimal `json:"amount"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	CurrencyID   string          `json:"currency_id"`
}

// cashEntries keeps the difference between an absent list (nil) and an empty one.
func cashEntries(in []CashEntryRequest) []usecase.CashEntryInput {
	if in == nil {
		return nil
	}
	out := make([]usecase.CashEntryInput, len(in))
	for i, e := range in {
		out[i] = usecase.CashEntryInput{
			Denomination: e.Denomination,
			Quantity:     e.Quantity,
			Amount:       e.Amount,
			ExchangeRate: e.ExchangeRate,
			CurrencyID:   e.CurrencyID,
		}
	}
	return out
}

// Note is a free-text note. Clients send either a bare string or an object
// carrying the text under "note" or "text".
type Note string

// UnmarshalJSON accepts "text", {"note": "text"} and {"text": "text"}.
func (n *Note) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Note(s)
		return nil
	}

	var obj struct {
		Note *string `json:"note"`
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("note must be a string or an object with note or text: %w", err)
	}
	switch {
	case obj.Note != nil:
		*n = Note(*obj.Note)
	case obj.Text != nil:
		*n = Note(*obj.Text)
	default:
		*n = ""
	}
	return nil
}

func noteStrings(in []Note) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, n := range in {
		out[i] = string(n)
	}
	return out
}

// CreateReconciliationRequest is the body of POST /reconciliation.
type CreateReconciliationRequest struct {
	OpeningEntries []CashEntryRequest `json:"openingEntries"`
	ClosingEntries []CashEntryRequest `json:"closingEntries"`
	Notes          []Note             `json:"notes"`
}

// ToUseCaseInput converts the request for actor.
func (r *CreateReconciliationRequest) ToUseCaseInput(actor domain.Actor) usecase.CreateReconciliationInput {
	return usecase.CreateReconciliationInput{
		OpeningEntries: cashEntries(r.OpeningEntries),
		ClosingEntries: cashEntries(r.ClosingEntries),
		Notes:          noteStrings(r.Notes),
		Actor:          actor,
	}
}

// UpdateReconciliationRequest is the body of PATCH /reconciliation/{id}.
// Only the lists present in the body are replaced.
type UpdateReconciliationRequest struct {
	OpeningEntries []CashEntryRequest `json:"openingEntries"`
	ClosingEntries []CashEntryRequest `json:"closingEntries"`
	Notes          []Note             `json:"notes"`
	Status         *string            `json:"status"`
}

// ToUseCaseInput converts the request for reconciliation id.
func (r *UpdateReconciliationRequest) ToUseCaseInput(id string, actor domain.Actor) usecase.UpdateReconciliationInput {
	input := usecase.UpdateReconciliationInput{
		ID:             id,
		OpeningEntries: cashEntries(r.OpeningEntries),
		ClosingEntries: cashEntries(r.ClosingEntries),
		Notes:          noteStrings(r.Notes),
		Actor:          actor,
	}
	if r.Status != nil {
		status := domain.ReconciliationStatus(*r.Status)
		input.Status = &status
	}
	return input
}

// DealItemRequest is one received or paid line of a deal. ID is set when amending an existing item.
type DealItemRequest struct {
	ID         string          `json:"id,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Quantity   decimal.Decimal `json:"quantity"`
	Total      decimal.Decimal `json:"total"`
	CurrencyID string          `json:"currency_id"`
}

func dealItems(in []DealItemRequest) []usecase.DealItemInput {
	if in == nil {
		return nil
	}
	out := make([]usecase.DealItemInput, len(in))
	for i, it := range in {
		out[i] = usecase.DealItemInput{
			ID:         it.ID,
			Price:      it.Price,
			Quantity:   it.Quantity,
			Total:      it.Total,
			CurrencyID: it.CurrencyID,
		}
	}
	return out
}

// CreateDealRequest is the body of POST /deals.
type CreateDealRequest struct {
	CustomerID      string            `json:"customer_id"`
	DealType        string            `json:"deal_type"`
	TransactionMode string            `json:"transaction_mode"`
	Amount          decimal.Decimal   `json:"amount"`
	ExchangeRate    decimal.Decimal   `json:"exchange_rate"`
	AmountToBePaid  decimal.Decimal   `json:"amount_to_be_paid"`
	BuyCurrencyID   string            `json:"buy_currency_id"`
	SellCurrencyID  string            `json:"sell_currency_id"`
	Status          string            `json:"status"`
	Remarks         string            `json:"remarks"`
	ReceivedItems   []DealItemRequest `json:"received_items"`
	PaidItems       []DealItemRequest `json:"paid_items"`
}

// ToUseCaseInput converts the request for actor.
func (r *CreateDealRequest) ToUseCaseInput(actor domain.Actor) usecase.CreateDealInput {
	return usecase.CreateDealInput{
		CustomerID:      r.CustomerID,
		DealType:        domain.DealType(r.DealType),
		TransactionMode: r.TransactionMode,
		Amount:          r.Amount,
		ExchangeRate:    r.ExchangeRate,
		AmountToBePaid:  r.AmountToBePaid,
		BuyCurrencyID:   r.BuyCurrencyID,
		SellCurrencyID:  r.SellCurrencyID,
		Status:          r.Status,
		Remarks:         r.Remarks,
		ReceivedItems:   dealItems(r.ReceivedItems),
		PaidItems:       dealItems(r.PaidItems),
		Actor:           actor,
	}
}

// UpdateDealRequest is the body of PATCH /deals/{id}. Absent fields are left unchanged;
// a present item list replaces that side by diff.
type UpdateDealRequest struct {
	CustomerID      *string           `json:"customer_id"`
	DealType        *string           `json:"deal_type"`
	TransactionMode *string           `json:"transaction_mode"`
	Amount          *decimal.Decimal  `json:"amount"`
	ExchangeRate    *decimal.Decimal  `json:"exchange_rate"`
	AmountToBePaid  *decimal.Decimal  `json:"amount_to_be_paid"`
	BuyCurrencyID   *string           `json:"buy_currency_id"`
	SellCurrencyID  *string           `json:"sell_currency_id"`
	Remarks         *string           `json:"remarks"`
	ReceivedItems   []DealItemRequest `json:"received_items"`
	PaidItems       []DealItemRequest `json:"paid_items"`
}

// ToUseCaseInput converts the request for deal id.
func (r *UpdateDealRequest) ToUseCaseInput(id string, actor domain.Actor) usecase.UpdateDealInput {
	input := usecase.UpdateDealInput{
		ID:              id,
		CustomerID:      r.CustomerID,
		TransactionMode: r.TransactionMode,
		Amount:          r.Amount,
		ExchangeRate:    r.ExchangeRate,
		AmountToBePaid:  r.AmountToBePaid,
		BuyCurrencyID:   r.BuyCurrencyID,
		SellCurrencyID:  r.SellCurrencyID,
		Remarks:         r.Remarks,
		ReceivedItems:   dealItems(r.ReceivedItems),
		PaidItems:       dealItems(r.PaidItems),
		Actor:           actor,
	}
	if r.DealType != nil {
		t := domain.DealType(*r.DealType)
		input.DealType = &t
	}
	return input
}

// UpdateDealStatusRequest is the body of PATCH /deals/{id}/status.
type UpdateDealStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// CreateCustomerRequest is the body of POST /customers.
type CreateCustomerRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
}

// ToUseCaseInput converts the request for actor.
func (r *CreateCustomerRequest) ToUseCaseInput(actor domain.Actor) usecase.CreateCustomerInput {
	return usecase.CreateCustomerInput{
		Name:        r.Name,
		PhoneNumber: r.PhoneNumber,
		Email:       r.Email,
		Actor:       actor,
	}
}

// UpdateCustomerRequest is the body of PATCH /customers/{id}.
type UpdateCustomerRequest struct {
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phone_number"`
	Email       *string `json:"email"`
	IsActive    *bool   `json:"is_active"`
}

// ToUseCaseInput converts the request for customer id.
func (r *UpdateCustomerRequest) ToUseCaseInput(id string) usecase.UpdateCustomerInput {
	return usecase.UpdateCustomerInput{
		ID:          id,
		Name:        r.Name,
		PhoneNumber: r.PhoneNumber,
		Email:       r.Email,
		IsActive:    r.IsActive,
	}
}

// CreateCurrencyRequest is the body of POST /currencies.
type CreateCurrencyRequest struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// ToUseCaseInput converts the request.
func (r *CreateCurrencyRequest) ToUseCaseInput() usecase.CreateCurrencyInput {
	return usecase.CreateCurrencyInput{Code: r.Code, Name: r.Name, Symbol: r.Symbol}
}

// CreatePairRateRequest is the body of POST /currencies/rates.
type CreatePairRateRequest struct {
	BaseCurrencyID  string          `json:"base_currency_id"`
	QuoteCurrencyID string          `json:"quote_currency_id"`
	Rate            decimal.Decimal `json:"rate"`
	EffectiveAt     *time.Time      `json:"effective_at"`
}

// ToUseCaseInput converts the request for actor.
func (r *CreatePairRateRequest) ToUseCaseInput(actor domain.Actor) usecase.CreatePairRateInput {
	return usecase.CreatePairRateInput{
		BaseCurrencyID:  r.BaseCurrencyID,
		QuoteCurrencyID: r.QuoteCurrencyID,
		Rate:            r.Rate,
		EffectiveAt:     r.EffectiveAt,
		Actor:           actor,
	}
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// ToUseCaseInput converts the request.
func (r *CreateUserRequest) ToUseCaseInput() usecase.CreateUserInput {
	return usecase.CreateUserInput{
		Email:    r.Email,
		Name:     r.Name,
		Password: r.Password,
		Role:     domain.Role(r.Role),
	}
}

// UpdateUserRequest is the body of PATCH /users/{id}.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Role     *string `json:"role"`
	Active   *bool   `json:"active"`
	Password *string `json:"password"`
}

// ToUseCaseInput converts the request for user id.
func (r *UpdateUserRequest) ToUseCaseInput(id string) usecase.UpdateUserInput {
	input := usecase.UpdateUserInput{
		ID:       id,
		Name:     r.Name,
		Active:   r.Active,
		Password: r.Password,
	}
	if r.Role != nil {
		role := domain.Role(*r.Role)
		input.Role = &role
	}
	return input
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyOTPRequest is the body of POST /auth/verify-otp.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}
