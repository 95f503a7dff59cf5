package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/cashdesk/internal/adapter/http/dto"
	"github.com/iho/cashdesk/internal/domain"
	"github.com/iho/cashdesk/internal/usecase"
)

type customerServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateCustomerInput) (*domain.Customer, error)
	getFn    func(ctx context.Context, id string) (*domain.Customer, error)
	listFn   func(ctx context.Context, search string, page, limit int) (*usecase.CustomerList, error)
	updateFn func(ctx context.Context, input usecase.UpdateCustomerInput) (*domain.Customer, error)
}

func (s *customerServiceStub) Create(ctx context.Context, input usecase.CreateCustomerInput) (*domain.Customer, error) {
	return s.createFn(ctx, input)
}

func (s *customerServiceStub) Get(ctx context.Context, id string) (*domain.Customer, error) {
	return s.getFn(ctx, id)
}

func (s *customerServiceStub) List(ctx context.Context, search string, page, limit int) (*usecase.CustomerList, error) {
	return s.listFn(ctx, search, page, limit)
}

func (s *customerServiceStub) Update(ctx context.Context, input usecase.UpdateCustomerInput) (*domain.Customer, error) {
	return s.updateFn(ctx, input)
}

func TestCustomerHandler_Create_DuplicatePhone(t *testing.T) {
	h := NewCustomerHandler(&customerServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateCustomerInput) (*domain.Customer, error) {
			return nil, domain.ErrDuplicatePhone
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/customers", bytes.NewBufferString(`{"name":"Asha","phone_number":"+919800000000"}`))
	req = withActor(req, "maker-1", domain.RoleMaker)
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestCustomerHandler_List(t *testing.T) {
	var gotSearch string
	var gotPage, gotLimit int
	h := NewCustomerHandler(&customerServiceStub{
		listFn: func(ctx context.Context, search string, page, limit int) (*usecase.CustomerList, error) {
			gotSearch, gotPage, gotLimit = search, page, limit
			return &usecase.CustomerList{
				Items: []*domain.Customer{{ID: "cus-1", Name: "Asha", IsActive: true}},
				Total: 1,
				Page:  domain.NewPage(page, limit),
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/customers?search=ash&page=1&limit=5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotSearch != "ash" || gotPage != 1 || gotLimit != 5 {
		t.Fatalf("unexpected arguments %q %d %d", gotSearch, gotPage, gotLimit)
	}
	var items []dto.CustomerResponse
	env := decodeEnvelope(t, rec, &items)
	if len(items) != 1 || env.Pagination.Limit != 5 {
		t.Fatalf("unexpected response %+v %+v", items, env.Pagination)
	}
}

func TestCustomerHandler_Update(t *testing.T) {
	var captured usecase.UpdateCustomerInput
	h := NewCustomerHandler(&customerServiceStub{
		updateFn: func(ctx context.Context, input usecase.UpdateCustomerInput) (*domain.Customer, error) {
			captured = input
			return &domain.Customer{ID: input.ID, IsActive: *input.IsActive}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPatch, "/customers/cus-1", bytes.NewBufferString(`{"is_active":true}`))
	req = withURLParam(req, "id", "cus-1")
	rec := httptest.NewRecorder()

	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.ID != "cus-1" || captured.Name != nil || captured.IsActive == nil || !*captured.IsActive {
		t.Fatalf("unexpected input %+v", captured)
	}
}
