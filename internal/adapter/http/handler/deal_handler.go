package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cashdesk/internal/adapter/http/dto"
	"github.com/iho/cashdesk/internal/domain"
	"github.com/iho/cashdesk/internal/usecase"
)

// DealService defines the behavior needed by DealHandler.
type DealService interface {
	Create(ctx context.Context, input usecase.CreateDealInput) (*domain.Deal, error)
	Get(ctx context.Context, id string, actor domain.Actor) (*domain.Deal, error)
	Update(ctx context.Context, input usecase.UpdateDealInput) (*domain.Deal, error)
	UpdateStatus(ctx context.Context, id, status, reason string, actor domain.Actor) (*domain.Deal, error)
	Delete(ctx context.Context, id string, actor domain.Actor) error
	List(ctx context.Context, input usecase.ListDealsInput) (*usecase.DealList, error)
	Export(ctx context.Context, input usecase.ListDealsInput, format string) (string, error)
}

// DealHandler handles deal HTTP requests.
type DealHandler struct {
	dealUC DealService
	loc    *time.Location
}

// NewDealHandler creates a new DealHandler. Query dates are read in loc.
func NewDealHandler(dealUC DealService, loc *time.Location) *DealHandler {
	if loc == nil {
		loc = time.Local
	}
	return &DealHandler{dealUC: dealUC, loc: loc}
}

// Create records a new deal.
func (h *DealHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.CreateDealRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	deal, err := h.dealUC.Create(r.Context(), req.ToUseCaseInput(actor))
	if err != nil {
		writeDomainError(w, r, "failed to create deal", err)
		return
	}

	respond(w, http.StatusCreated, "Deal created successfully", dto.DealFromDomain(deal))
}

// List returns one page of deals with the dashboard stats, or writes a report when
// format is given.
func (h *DealHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	filter, start, end, err := dateWindow(r, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err.Error())
		return
	}

	q := r.URL.Query()
	input := usecase.ListDealsInput{
		Page:          parseIntQuery(r, "page", 1),
		Limit:         parseIntQuery(r, "limit", domain.DefaultPageSize),
		Search:        q.Get("search"),
		Status:        q.Get("status"),
		CurrencyID:    q.Get("currency_id"),
		DateFilter:    filter,
		StartDate:     start,
		EndDate:       end,
		SortField:     q.Get("orderByField"),
		SortDirection: q.Get("orderDirection"),
		Actor:         actor,
	}

	if format := q.Get("format"); format != "" {
		path, err := h.dealUC.Export(r.Context(), input, format)
		if err != nil {
			writeDomainError(w, r, "failed to export deals", err)
			return
		}
		respond(w, http.StatusOK, exportedMessage("Deals", format), dto.ExportResponse{Path: path, Format: format})
		return
	}

	list, err := h.dealUC.List(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "failed to list deals", err)
		return
	}

	respondPage(w, "Deals fetched successfully", dto.DealListFromUseCase(list), dto.NewPagination(list.Total, list.Page))
}

// Get returns one deal with its items.
func (h *DealHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing deal ID", "")
		return
	}

	deal, err := h.dealUC.Get(r.Context(), id, actor)
	if err != nil {
		writeDomainError(w, r, "failed to get deal", err)
		return
	}

	respond(w, http.StatusOK, "Deal fetched successfully", dto.DealFromDomain(deal))
}

// Update amends a deal and its items.
func (h *DealHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing deal ID", "")
		return
	}

	var req dto.UpdateDealRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	deal, err := h.dealUC.Update(r.Context(), req.ToUseCaseInput(id, actor))
	if err != nil {
		writeDomainError(w, r, "failed to update deal", err)
		return
	}

	respond(w, http.StatusOK, "Deal updated successfully", dto.DealFromDomain(deal))
}

// UpdateStatus moves a deal to a new status.
func (h *DealHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing deal ID", "")
		return
	}

	var req dto.UpdateDealStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	deal, err := h.dealUC.UpdateStatus(r.Context(), id, req.Status, req.Reason, actor)
	if err != nil {
		writeDomainError(w, r, "failed to update deal status", err)
		return
	}

	respond(w, http.StatusOK, "Deal status updated successfully", dto.DealFromDomain(deal))
}

// Delete soft-deletes a deal.
func (h *DealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing deal ID", "")
		return
	}

	if err := h.dealUC.Delete(r.Context(), id, actor); err != nil {
		writeDomainError(w, r, "failed to delete deal", err)
		return
	}

	respond(w, http.StatusOK, "Deal deleted successfully", nil)
}
