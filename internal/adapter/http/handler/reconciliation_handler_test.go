package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashdesk/internal/adapter/http/dto"
	"github.com/iho/cashdesk/internal/domain"
	"github.com/iho/cashdesk/internal/usecase"
)

type reconciliationServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateReconciliationInput) (*domain.Reconciliation, error)
	startFn  func(ctx context.Context, id string, actor domain.Actor) (*usecase.ReconciliationDetail, error)
	updateFn func(ctx context.Context, input usecase.UpdateReconciliationInput) (*domain.Reconciliation, error)
	getFn    func(ctx context.Context, id string) (*usecase.ReconciliationDetail, error)
	listFn   func(ctx context.Context, input usecase.ListReconciliationsInput) (*usecase.ReconciliationList, error)
	alertsFn func(ctx context.Context) ([]domain.Alert, error)
	exportFn func(ctx context.Context, input usecase.ListReconciliationsInput, format string) (string, error)
}

func (s *reconciliationServiceStub) Create(ctx context.Context, input usecase.CreateReconciliationInput) (*domain.Reconciliation, error) {
	return s.createFn(ctx, input)
}

func (s *reconciliationServiceStub) Start(ctx context.Context, id string, actor domain.Actor) (*usecase.ReconciliationDetail, error) {
	return s.startFn(ctx, id, actor)
}

func (s *reconciliationServiceStub) Update(ctx context.Context, input usecase.UpdateReconciliationInput) (*domain.Reconciliation, error) {
	return s.updateFn(ctx, input)
}

func (s *reconciliationServiceStub) GetByID(ctx context.Context, id string) (*usecase.ReconciliationDetail, error) {
	return s.getFn(ctx, id)
}

func (s *reconciliationServiceStub) List(ctx context.Context, input usecase.ListReconciliationsInput) (*usecase.ReconciliationList, error) {
	return s.listFn(ctx, input)
}

func (s *reconciliationServiceStub) Alerts(ctx context.Context) ([]domain.Alert, error) {
	return s.alertsFn(ctx)
}

func (s *reconciliationServiceStub) Export(ctx context.Context, input usecase.ListReconciliationsInput, format string) (string, error) {
	return s.exportFn(ctx, input, format)
}

func TestReconciliationHandler_Create_Success(t *testing.T) {
	var captured usecase.CreateReconciliationInput
	h := NewReconciliationHandler(&reconciliationServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateReconciliationInput) (*domain.Reconciliation, error) {
			captured = input
			return &domain.Reconciliation{ID: "rec-1", Status: domain.ReconInProgress}, nil
		},
	}, time.UTC)

	body := `{"openingEntries":[{"amount":"1000","currency_id":"usd"}],"notes":["float counted",{"note":"second"}]}`
	req := httptest.NewRequest(http.MethodPost, "/reconciliation", bytes.NewBufferString(body))
	req = withActor(req, "maker-1", domain.RoleMaker)
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(captured.OpeningEntries) != 1 || !captured.OpeningEntries[0].Amount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected opening entries %+v", captured.OpeningEntries)
	}
	if captured.ClosingEntries != nil {
		t.Fatalf("expected absent closing entries to stay nil")
	}
	if len(captured.Notes) != 2 || captured.Notes[1] != "second" {
		t.Fatalf("unexpected notes %+v", captured.Notes)
	}
	if captured.Actor.UserID != "maker-1" {
		t.Fatalf("expected actor to be passed, got %+v", captured.Actor)
	}

	var resp dto.ReconciliationResponse
	env := decodeEnvelope(t, rec, &resp)
	if env.Message != "Reconciliation created successfully" || resp.Status != "In_Progress" {
		t.Fatalf("unexpected response %+v %+v", env, resp)
	}
}

func TestReconciliationHandler_Create_EmptyOpening(t *testing.T) {
	h := NewReconciliationHandler(&reconciliationServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateReconciliationInput) (*domain.Reconciliation, error) {
			return nil, domain.ErrOpeningEntriesRequired
		},
	}, time.UTC)

	req := httptest.NewRequest(http.MethodPost, "/reconciliation", bytes.NewBufferString(`{"openingEntries":[]}`))
	req = withActor(req, "maker-1", domain.RoleMaker)
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReconciliationHandler_Create_RequiresActor(t *testing.T) {
	h := NewReconciliationHandler(&reconciliationServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateReconciliationInput) (*domain.Reconciliation, error) {
			t.Fatal("Create should not be called")
			return nil, nil
		},
	}, time.UTC)

	req := httptest.NewRequest(http.MethodPost, "/reconciliation", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestReconciliationHandler_List(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	var captured usecase.ListReconciliationsInput
	h := NewReconciliationHandler(&reconciliationServiceStub{
		listFn: func(ctx context.Context, input usecase.ListReconciliationsInput) (*usecase.ReconciliationList, error) {
			captured = input
			return &usecase.ReconciliationList{
				Items: []*domain.Reconciliation{{ID: "rec-1", Status: domain.ReconShort}},
				Total: 21,
				Page:  domain.NewPage(2, 10),
			}, nil
		},
	}, loc)

	req := httptest.NewRequest(http.MethodGet,
		"/reconciliation?page=2&limit=10&dateFilter=custom&startDate=2024-03-01&endDate=2024-03-10&status=Short", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.DateFilter != domain.DateCustom || captured.Status != "Short" || captured.Page != 2 {
		t.Fatalf("unexpected input %+v", captured)
	}
	if captured.StartDate == nil || !captured.StartDate.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, loc)) {
		t.Fatalf("expected start date in configured zone, got %v", captured.StartDate)
	}

	var items []dto.ReconciliationResponse
	env := decodeEnvelope(t, rec, &items)
	if len(items) != 1 || items[0].ID != "rec-1" {
		t.Fatalf("unexpected items %+v", items)
	}
	if env.Pagination == nil || env.Pagination.TotalPages != 3 || env.Pagination.Page != 2 {
		t.Fatalf("unexpected pagination %+v", env.Pagination)
	}
}

func TestReconciliationHandler_List_InvalidDate(t *testing.T) {
	h := NewReconciliationHandler(&reconciliationServiceStub{
		listFn: func(ctx context.Context, input usecase.ListReconciliationsInput) (*usecase.ReconciliationList, error) {
			t.Fatal("List should not be called")
			return nil, nil
		},
	}, time.UTC)

	req := httptest.NewRequest(http.MethodGet, "/reconciliation?dateFilter=custom&startDate=yesterday", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReconciliationHandler_List_Export(t *testing.T) {
	h := NewReconciliationHandler(&reconciliationServiceStub{
		listFn: func(ctx context.Context, input usecase.ListReconciliationsInput) (*usecase.ReconciliationList, error) {
			t.Fatal("List should not be called when exporting")
			return nil, nil
		},
		exportFn: func(ctx context.Context, input usecase.ListReconciliationsInput, format string) (string, error) {
			if format != "excel" {
				t.Fatalf("unexpected format %q", format)
			}
			return "/tmp/reconciliations_20240310_101500.xlsx", nil
		},
	}, time.UTC)

	req := httptest.NewRequest(http.MethodGet, "/reconciliation?format=excel", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp dto.ExportResponse
	decodeEnvelope(t, rec, &resp)
	if resp.Path != "/tmp/reconciliations_20240310_101500.xlsx" || resp.Format != "excel" {
		t.Fatalf("unexpected export response %+v", resp)
	}
}

func TestReconciliationHandler_Get_NotFound(t *testing.T) {
	h := NewReconciliationHandler(&reconciliationServiceStub{
		getFn: func(ctx context.Context, id string) (*usecase.ReconciliationDetail, error) {
			return nil, domain.ErrReconciliationNotFound
		},
	}, time.UTC)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/reconciliation/missing", nil), "id", "missing")
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestReconciliationHandler_Update_PassesStatus(t *testing.T) {
	var captured usecase.UpdateReconciliationInput
	h := NewReconciliationHandler(&reconciliationServiceStub{
		updateFn: func(ctx context.Context, input usecase.UpdateReconciliationInput) (*domain.Reconciliation, error) {
			captured = input
			return &domain.Reconciliation{ID: input.ID, Status: *input.Status}, nil
		},
	}, time.UTC)

	body := `{"closingEntries":[{"amount":"1000","currency_id":"usd"}],"status":"Tallied"}`
	req := httptest.NewRequest(http.MethodPatch, "/reconciliation/rec-1", bytes.NewBufferString(body))
	req = withActor(withURLParam(req, "id", "rec-1"), "checker-1", domain.RoleChecker)
	rec := httptest.NewRecorder()

	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.ID != "rec-1" || captured.OpeningEntries != nil || len(captured.ClosingEntries) != 1 {
		t.Fatalf("unexpected input %+v", captured)
	}
	if captured.Status == nil || *captured.Status != domain.ReconTallied {
		t.Fatalf("expected status override, got %v", captured.Status)
	}
}

func TestReconciliationHandler_Start(t *testing.T) {
	h := NewReconciliationHandler(&reconciliationServiceStub{
		startFn: func(ctx context.Context, id string, actor domain.Actor) (*usecase.ReconciliationDetail, error) {
			return &usecase.ReconciliationDetail{
				Reconciliation: &domain.Reconciliation{ID: id, Status: domain.ReconShort},
				TotalBuy:       decimal.NewFromInt(500),
				TotalSell:      decimal.Zero,
				Balances: []domain.CurrencyBalance{
					{CurrencyID: "usd", Expected: decimal.NewFromInt(1000), Actual: decimal.Zero},
				},
			}, nil
		},
	}, time.UTC)

	req := httptest.NewRequest(http.MethodPost, "/reconciliation/rec-1/start", nil)
	req = withActor(withURLParam(req, "id", "rec-1"), "checker-1", domain.RoleChecker)
	rec := httptest.NewRecorder()

	h.Start(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp dto.ReconciliationResponse
	decodeEnvelope(t, rec, &resp)
	if resp.Status != "Short" || len(resp.Balances) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if !resp.Balances[0].Difference.Equal(decimal.NewFromInt(-1000)) {
		t.Fatalf("expected difference -1000, got %s", resp.Balances[0].Difference)
	}
}

func TestReconciliationHandler_Alerts(t *testing.T) {
	h := NewReconciliationHandler(&reconciliationServiceStub{
		alertsFn: func(ctx context.Context) ([]domain.Alert, error) {
			return []domain.Alert{{ID: "rec-1", AlertType: domain.AlertReconciliation, Status: "Short", CreatedAt: "2 hours ago"}}, nil
		},
	}, time.UTC)

	rec := httptest.NewRecorder()
	h.Alerts(rec, httptest.NewRequest(http.MethodGet, "/reconciliation/alerts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var alerts []dto.AlertResponse
	decodeEnvelope(t, rec, &alerts)
	if len(alerts) != 1 || alerts[0].AlertType != "RECONCILIATION" {
		t.Fatalf("unexpected alerts %+v", alerts)
	}
}
