package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/cashdesk/internal/adapter/http/handler"
	apimiddleware "github.com/iho/cashdesk/internal/adapter/http/middleware"
	"github.com/iho/cashdesk/internal/domain"
	"github.com/iho/cashdesk/internal/infrastructure/auth"
	"github.com/iho/cashdesk/internal/usecase"
)

var testJWT = auth.NewJWTManager("router-test-secret", time.Hour)

func bearer(t *testing.T, role domain.Role) string {
	t.Helper()
	token, err := testJWT.Generate(&domain.User{ID: "user-" + string(role), Email: "u@example.com", Role: role})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return "Bearer " + token
}

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterGuardsAuthRoutes(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	send := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"email":"a@example.com","password":"x"}`))
		req.RemoteAddr = "1.2.3.4:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("/api/v1/auth/login"); code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", code)
	}
	if code := send("/api/v1/auth/login"); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", code)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "1.2.3.4:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected health to bypass the limiter, got %d", rec.Code)
	}
}

func TestNewRouter_RequiresToken(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/deals", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/deals", nil)
	req.Header.Set("Authorization", bearer(t, domain.RoleMaker))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_RoleChecks(t *testing.T) {
	router := NewRouter(newRouterConfig())

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		role   domain.Role
		want   int
	}{
		{"maker cannot approve", http.MethodPatch, "/api/v1/deals/d1/status", `{"status":"Approved"}`, domain.RoleMaker, http.StatusForbidden},
		{"checker can approve", http.MethodPatch, "/api/v1/deals/d1/status", `{"status":"Approved"}`, domain.RoleChecker, http.StatusOK},
		{"checker cannot list users", http.MethodGet, "/api/v1/users", "", domain.RoleChecker, http.StatusForbidden},
		{"admin lists users", http.MethodGet, "/api/v1/users", "", domain.RoleAdmin, http.StatusOK},
		{"maker cannot add currency", http.MethodPost, "/api/v1/currencies", `{"code":"USD"}`, domain.RoleMaker, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Authorization", bearer(t, tt.role))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"openingEntries":[{"amount":"1000","currency_id":"usd"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reconciliation/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, domain.RoleMaker))
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatalf("expected idempotency store to be used")
	}
	if !strings.HasPrefix(store.lastKey, "user-Maker:POST:") {
		t.Fatalf("expected key scoped to caller, got %q", store.lastKey)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.MetricsHandler = http.NotFoundHandler()
	}))

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"POST /api/v1/auth/login",
		"POST /api/v1/auth/verify-otp",
		"POST /api/v1/reconciliation/",
		"GET /api/v1/reconciliation/",
		"GET /api/v1/reconciliation/alerts",
		"GET /api/v1/reconciliation/{id}",
		"PATCH /api/v1/reconciliation/{id}",
		"POST /api/v1/reconciliation/{id}/start",
		"POST /api/v1/deals/",
		"GET /api/v1/deals/",
		"PATCH /api/v1/deals/{id}/status",
		"DELETE /api/v1/deals/{id}",
		"GET /api/v1/customers/{id}",
		"GET /api/v1/currencies/rates/latest",
		"POST /api/v1/users/",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	ok := handler.PingerFunc(func(ctx context.Context) error { return nil })

	cfg := RouterConfig{
		AuthHandler:           handler.NewAuthHandler(stubAuthService{}),
		UserHandler:           handler.NewUserHandler(stubUserService{}),
		CurrencyHandler:       handler.NewCurrencyHandler(stubCurrencyService{}),
		CustomerHandler:       handler.NewCustomerHandler(stubCustomerService{}),
		DealHandler:           handler.NewDealHandler(stubDealService{}, time.UTC),
		ReconciliationHandler: handler.NewReconciliationHandler(stubReconciliationService{}, time.UTC),
		HealthHandler:         handler.NewHealthHandler(ok, ok),
		TokenVerifier:         testJWT,
		Logger:                zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, email, password string) (*usecase.LoginResult, error) {
	return &usecase.LoginResult{Email: email, ExpiresIn: time.Minute}, nil
}

func (stubAuthService) VerifyOTP(ctx context.Context, email, code string) (*usecase.VerifyResult, error) {
	return &usecase.VerifyResult{Token: "t", User: &domain.User{ID: "u"}}, nil
}

type stubUserService struct{}

func (stubUserService) CreateUser(ctx context.Context, input usecase.CreateUserInput) (*domain.User, error) {
	return &domain.User{ID: "u"}, nil
}

func (stubUserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return &domain.User{ID: id}, nil
}

func (stubUserService) UpdateUser(ctx context.Context, input usecase.UpdateUserInput) (*domain.User, error) {
	return &domain.User{ID: input.ID}, nil
}

func (stubUserService) ListUsers(ctx context.Context, page, limit int) ([]*domain.User, error) {
	return []*domain.User{}, nil
}

type stubCurrencyService struct{}

func (stubCurrencyService) Create(ctx context.Context, input usecase.CreateCurrencyInput) (*domain.Currency, error) {
	return &domain.Currency{ID: "c", Code: input.Code}, nil
}

func (stubCurrencyService) Get(ctx context.Context, id string) (*domain.Currency, error) {
	return &domain.Currency{ID: id}, nil
}

func (stubCurrencyService) List(ctx context.Context) ([]*domain.Currency, error) {
	return []*domain.Currency{}, nil
}

func (stubCurrencyService) CreatePairRate(ctx context.Context, input usecase.CreatePairRateInput) (*domain.CurrencyPairRate, error) {
	return &domain.CurrencyPairRate{ID: "r"}, nil
}

func (stubCurrencyService) LatestPairRate(ctx context.Context, base, quote string) (*domain.CurrencyPairRate, error) {
	return &domain.CurrencyPairRate{ID: "r"}, nil
}

type stubCustomerService struct{}

func (stubCustomerService) Create(ctx context.Context, input usecase.CreateCustomerInput) (*domain.Customer, error) {
	return &domain.Customer{ID: "cus"}, nil
}

func (stubCustomerService) Get(ctx context.Context, id string) (*domain.Customer, error) {
	return &domain.Customer{ID: id}, nil
}

func (stubCustomerService) List(ctx context.Context, search string, page, limit int) (*usecase.CustomerList, error) {
	return &usecase.CustomerList{Page: domain.NewPage(page, limit)}, nil
}

func (stubCustomerService) Update(ctx context.Context, input usecase.UpdateCustomerInput) (*domain.Customer, error) {
	return &domain.Customer{ID: input.ID}, nil
}

type stubDealService struct{}

func (stubDealService) Create(ctx context.Context, input usecase.CreateDealInput) (*domain.Deal, error) {
	return &domain.Deal{ID: "deal"}, nil
}

func (stubDealService) Get(ctx context.Context, id string, actor domain.Actor) (*domain.Deal, error) {
	return &domain.Deal{ID: id}, nil
}

func (stubDealService) Update(ctx context.Context, input usecase.UpdateDealInput) (*domain.Deal, error) {
	return &domain.Deal{ID: input.ID}, nil
}

func (stubDealService) UpdateStatus(ctx context.Context, id, status, reason string, actor domain.Actor) (*domain.Deal, error) {
	return &domain.Deal{ID: id, Status: status}, nil
}

func (stubDealService) Delete(ctx context.Context, id string, actor domain.Actor) error {
	return nil
}

func (stubDealService) List(ctx context.Context, input usecase.ListDealsInput) (*usecase.DealList, error) {
	return &usecase.DealList{Page: domain.NewPage(input.Page, input.Limit)}, nil
}

func (stubDealService) Export(ctx context.Context, input usecase.ListDealsInput, format string) (string, error) {
	return "/tmp/deals.xlsx", nil
}

type stubReconciliationService struct{}

func (stubReconciliationService) Create(ctx context.Context, input usecase.CreateReconciliationInput) (*domain.Reconciliation, error) {
	return &domain.Reconciliation{ID: "rec", Status: domain.ReconInProgress}, nil
}

func (stubReconciliationService) Start(ctx context.Context, id string, actor domain.Actor) (*usecase.ReconciliationDetail, error) {
	return &usecase.ReconciliationDetail{Reconciliation: &domain.Reconciliation{ID: id}}, nil
}

func (stubReconciliationService) Update(ctx context.Context, input usecase.UpdateReconciliationInput) (*domain.Reconciliation, error) {
	return &domain.Reconciliation{ID: input.ID}, nil
}

func (stubReconciliationService) GetByID(ctx context.Context, id string) (*usecase.ReconciliationDetail, error) {
	return &usecase.ReconciliationDetail{Reconciliation: &domain.Reconciliation{ID: id}}, nil
}

func (stubReconciliationService) List(ctx context.Context, input usecase.ListReconciliationsInput) (*usecase.ReconciliationList, error) {
	return &usecase.ReconciliationList{Page: domain.NewPage(input.Page, input.Limit)}, nil
}

func (stubReconciliationService) Alerts(ctx context.Context) ([]domain.Alert, error) {
	return []domain.Alert{}, nil
}

func (stubReconciliationService) Export(ctx context.Context, input usecase.ListReconciliationsInput, format string) (string, error) {
	return "/tmp/reconciliations.pdf", nil
}

type stubIdempotencyStore struct {
	checkCalled bool
	lastKey     string
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	s.lastKey = key
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}

func (s *stubIdempotencyStore) Release(ctx context.Context, key string) error {
	return nil
}
