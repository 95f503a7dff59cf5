package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cashdesk/internal/adapter/http/dto"
	"github.com/iho/cashdesk/internal/domain"
	"github.com/iho/cashdesk/internal/usecase"
)

// CurrencyService defines the behavior needed by CurrencyHandler.
type CurrencyService interface {
	Create(ctx context.Context, input usecase.CreateCurrencyInput) (*domain.Currency, error)
	Get(ctx context.Context, id string) (*domain.Currency, error)
	List(ctx context.Context) ([]*domain.Currency, error)
	CreatePairRate(ctx context.Context, input usecase.CreatePairRateInput) (*domain.CurrencyPairRate, error)
	LatestPairRate(ctx context.Context, baseCurrencyID, quoteCurrencyID string) (*domain.CurrencyPairRate, error)
}

// CurrencyHandler handles currency and pair-rate HTTP requests.
type CurrencyHandler struct {
	currencyUC CurrencyService
}

// NewCurrencyHandler creates a new CurrencyHandler.
func NewCurrencyHandler(currencyUC CurrencyService) *CurrencyHandler {
	return &CurrencyHandler{currencyUC: currencyUC}
}

// Create registers a currency.
func (h *CurrencyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCurrencyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	currency, err := h.currencyUC.Create(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to create currency", err)
		return
	}

	respond(w, http.StatusCreated, "Currency created successfully", dto.CurrencyFromDomain(currency))
}

// List returns every currency.
func (h *CurrencyHandler) List(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.currencyUC.List(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to list currencies", err)
		return
	}

	respond(w, http.StatusOK, "Currencies fetched successfully", dto.CurrenciesFromDomain(currencies))
}

// Get returns one currency.
func (h *CurrencyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing currency ID", "")
		return
	}

	currency, err := h.currencyUC.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "failed to get currency", err)
		return
	}

	respond(w, http.StatusOK, "Currency fetched successfully", dto.CurrencyFromDomain(currency))
}

// CreatePairRate records a new rate for a currency pair.
func (h *CurrencyHandler) CreatePairRate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.CreatePairRateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rate, err := h.currencyUC.CreatePairRate(r.Context(), req.ToUseCaseInput(actor))
	if err != nil {
		writeDomainError(w, r, "failed to create pair rate", err)
		return
	}

	respond(w, http.StatusCreated, "Pair rate created successfully", dto.PairRateFromDomain(rate))
}

// LatestPairRate returns the most recent rate for ?base=&quote=.
func (h *CurrencyHandler) LatestPairRate(w http.ResponseWriter, r *http.Request) {
	base := r.URL.Query().Get("base")
	quote := r.URL.Query().Get("quote")
	if base == "" || quote == "" {
		writeError(w, http.StatusBadRequest, "base and quote are required", "")
		return
	}

	rate, err := h.currencyUC.LatestPairRate(r.Context(), base, quote)
	if err != nil {
		writeDomainError(w, r, "failed to get pair rate", err)
		return
	}

	respond(w, http.StatusOK, "Pair rate fetched successfully", dto.PairRateFromDomain(rate))
}
