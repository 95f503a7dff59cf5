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

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	Create(ctx context.Context, input usecase.CreateReconciliationInput) (*domain.Reconciliation, error)
	Start(ctx context.Context, id string, actor domain.Actor) (*usecase.ReconciliationDetail, error)
	Update(ctx context.Context, input usecase.UpdateReconciliationInput) (*domain.Reconciliation, error)
	GetByID(ctx context.Context, id string) (*usecase.ReconciliationDetail, error)
	List(ctx context.Context, input usecase.ListReconciliationsInput) (*usecase.ReconciliationList, error)
	Alerts(ctx context.Context) ([]domain.Alert, error)
	Export(ctx context.Context, input usecase.ListReconciliationsInput, format string) (string, error)
}

// ReconciliationHandler handles reconciliation HTTP requests.
type ReconciliationHandler struct {
	reconUC ReconciliationService
	loc     *time.Location
}

// NewReconciliationHandler creates a new ReconciliationHandler. Query dates are read in loc.
func NewReconciliationHandler(reconUC ReconciliationService, loc *time.Location) *ReconciliationHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ReconciliationHandler{reconUC: reconUC, loc: loc}
}

// Create records opening and optional closing counts.
func (h *ReconciliationHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.CreateReconciliationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	recon, err := h.reconUC.Create(r.Context(), req.ToUseCaseInput(actor))
	if err != nil {
		writeDomainError(w, r, "failed to create reconciliation", err)
		return
	}

	respond(w, http.StatusCreated, "Reconciliation created successfully", dto.ReconciliationFromDomain(recon))
}

// List returns one page of reconciliations, or writes a report when format is given.
func (h *ReconciliationHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, start, end, err := dateWindow(r, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err.Error())
		return
	}

	input := usecase.ListReconciliationsInput{
		Page:       parseIntQuery(r, "page", 1),
		Limit:      parseIntQuery(r, "limit", domain.DefaultPageSize),
		DateFilter: filter,
		StartDate:  start,
		EndDate:    end,
		Status:     r.URL.Query().Get("status"),
	}

	if format := r.URL.Query().Get("format"); format != "" {
		path, err := h.reconUC.Export(r.Context(), input, format)
		if err != nil {
			writeDomainError(w, r, "failed to export reconciliations", err)
			return
		}
		respond(w, http.StatusOK, exportedMessage("Reconciliations", format), dto.ExportResponse{Path: path, Format: format})
		return
	}

	list, err := h.reconUC.List(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "failed to list reconciliations", err)
		return
	}

	respondPage(w, "Reconciliations fetched successfully",
		dto.ReconciliationsFromDomain(list.Items), dto.NewPagination(list.Total, list.Page))
}

// Alerts returns the alert feed.
func (h *ReconciliationHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.reconUC.Alerts(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to load alerts", err)
		return
	}

	respond(w, http.StatusOK, "Alerts fetched successfully", dto.AlertsFromDomain(alerts))
}

// Get returns a reconciliation with its computed totals.
func (h *ReconciliationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing reconciliation ID", "")
		return
	}

	detail, err := h.reconUC.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "failed to get reconciliation", err)
		return
	}

	respond(w, http.StatusOK, "Reconciliation fetched successfully", dto.ReconciliationDetailFromUseCase(detail))
}

// Update amends entries, notes or status.
func (h *ReconciliationHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing reconciliation ID", "")
		return
	}

	var req dto.UpdateReconciliationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	recon, err := h.reconUC.Update(r.Context(), req.ToUseCaseInput(id, actor))
	if err != nil {
		writeDomainError(w, r, "failed to update reconciliation", err)
		return
	}

	respond(w, http.StatusOK, "Reconciliation updated successfully", dto.ReconciliationFromDomain(recon))
}

// Start links the day's deals and classifies the reconciliation.
func (h *ReconciliationHandler) Start(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing reconciliation ID", "")
		return
	}

	detail, err := h.reconUC.Start(r.Context(), id, actor)
	if err != nil {
		writeDomainError(w, r, "failed to start reconciliation", err)
		return
	}

	respond(w, http.StatusOK, "Reconciliation started successfully", dto.ReconciliationDetailFromUseCase(detail))
}
