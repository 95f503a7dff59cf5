package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/cashdesk/internal/adapter/http/handler"
	"github.com/iho/cashdesk/internal/adapter/http/middleware"
	"github.com/iho/cashdesk/internal/domain"
	"github.com/iho/cashdesk/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AuthHandler           *handler.AuthHandler
	UserHandler           *handler.UserHandler
	CurrencyHandler       *handler.CurrencyHandler
	CustomerHandler       *handler.CustomerHandler
	DealHandler           *handler.DealHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler

	TokenVerifier    middleware.TokenVerifier
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	// RateLimiter guards the unauthenticated auth routes. Optional.
	RateLimiter *middleware.RateLimiter
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	Logger         zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if cfg.RateLimiter != nil {
				r.Use(cfg.RateLimiter.Limit)
			}
			r.Post("/login", cfg.AuthHandler.Login)
			r.Post("/verify-otp", cfg.AuthHandler.VerifyOTP)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.TokenVerifier))

			// Idempotency middleware for mutating requests
			if cfg.IdempotencyStore != nil {
				idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore).WithTTL(cfg.IdempotencyTTL)
				r.Use(idempotencyMiddleware.Wrap)
			}

			// Users
			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequirePermission(domain.Role.CanManageUsers))
				r.Post("/", cfg.UserHandler.Create)
				r.Get("/", cfg.UserHandler.List)
				r.Get("/{id}", cfg.UserHandler.Get)
				r.Patch("/{id}", cfg.UserHandler.Update)
			})

			// Currencies
			r.Route("/currencies", func(r chi.Router) {
				r.Get("/", cfg.CurrencyHandler.List)
				r.Get("/{id}", cfg.CurrencyHandler.Get)
				r.Get("/rates/latest", cfg.CurrencyHandler.LatestPairRate)
				r.With(middleware.RequireRole(domain.RoleAdmin)).Post("/", cfg.CurrencyHandler.Create)
				r.With(middleware.RequireRole(domain.RoleAdmin, domain.RoleChecker)).Post("/rates", cfg.CurrencyHandler.CreatePairRate)
			})

			// Customers
			r.Route("/customers", func(r chi.Router) {
				r.Post("/", cfg.CustomerHandler.Create)
				r.Get("/", cfg.CustomerHandler.List)
				r.Get("/{id}", cfg.CustomerHandler.Get)
				r.Patch("/{id}", cfg.CustomerHandler.Update)
			})

			// Deals
			r.Route("/deals", func(r chi.Router) {
				r.Post("/", cfg.DealHandler.Create)
				r.Get("/", cfg.DealHandler.List)
				r.Get("/{id}", cfg.DealHandler.Get)
				r.Patch("/{id}", cfg.DealHandler.Update)
				r.Delete("/{id}", cfg.DealHandler.Delete)
				r.With(middleware.RequirePermission(domain.Role.CanChangeDealStatus)).Patch("/{id}/status", cfg.DealHandler.UpdateStatus)
			})

			// Reconciliation
			r.Route("/reconciliation", func(r chi.Router) {
				r.Post("/", cfg.ReconciliationHandler.Create)
				r.Get("/", cfg.ReconciliationHandler.List)
				r.Get("/alerts", cfg.ReconciliationHandler.Alerts)
				r.Get("/{id}", cfg.ReconciliationHandler.Get)
				r.Patch("/{id}", cfg.ReconciliationHandler.Update)
				r.Post("/{id}/start", cfg.ReconciliationHandler.Start)
			})
		})
	})

	return r
}
