package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cashdesk/internal/adapter/http/dto"
	"github.com/iho/cashdesk/internal/domain"
	"github.com/iho/cashdesk/internal/usecase"
)

// CustomerService defines the behavior needed by CustomerHandler.
type CustomerService interface {
	Create(ctx context.Context, input usecase.CreateCustomerInput) (*domain.Customer, error)
	Get(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context, search string, page, limit int) (*usecase.CustomerList, error)
	Update(ctx context.Context, input usecase.UpdateCustomerInput) (*domain.Customer, error)
}

// CustomerHandler handles customer HTTP requests.
type CustomerHandler struct {
	customerUC CustomerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(customerUC CustomerService) *CustomerHandler {
	return &CustomerHandler{customerUC: customerUC}
}

// Create registers a customer.
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.CreateCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	customer, err := h.customerUC.Create(r.Context(), req.ToUseCaseInput(actor))
	if err != nil {
		writeDomainError(w, r, "failed to create customer", err)
		return
	}

	respond(w, http.StatusCreated, "Customer created successfully", dto.CustomerFromDomain(customer))
}

// List returns one page of customers matching the search term.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.customerUC.List(r.Context(),
		r.URL.Query().Get("search"),
		parseIntQuery(r, "page", 1),
		parseIntQuery(r, "limit", domain.DefaultPageSize),
	)
	if err != nil {
		writeDomainError(w, r, "failed to list customers", err)
		return
	}

	respondPage(w, "Customers fetched successfully", dto.CustomersFromDomain(list.Items), dto.NewPagination(list.Total, list.Page))
}

// Get returns one customer.
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing customer ID", "")
		return
	}

	customer, err := h.customerUC.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "failed to get customer", err)
		return
	}

	respond(w, http.StatusOK, "Customer fetched successfully", dto.CustomerFromDomain(customer))
}

// Update amends a customer.
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing customer ID", "")
		return
	}

	var req dto.UpdateCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	customer, err := h.customerUC.Update(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		writeDomainError(w, r, "failed to update customer", err)
		return
	}

	respond(w, http.StatusOK, "Customer updated successfully", dto.CustomerFromDomain(customer))
}
