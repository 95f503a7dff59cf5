package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/cashdesk/internal/adapter/http"
	"github.com/iho/cashdesk/internal/adapter/http/handler"
	"github.com/iho/cashdesk/internal/adapter/http/middleware"
	"github.com/iho/cashdesk/internal/adapter/notifier"
	"github.com/iho/cashdesk/internal/adapter/report"
	postgresRepo "github.com/iho/cashdesk/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/cashdesk/internal/adapter/repository/redis"
	"github.com/iho/cashdesk/internal/infrastructure/auth"
	"github.com/iho/cashdesk/internal/infrastructure/config"
	"github.com/iho/cashdesk/internal/infrastructure/logger"
	"github.com/iho/cashdesk/internal/infrastructure/metrics"
	"github.com/iho/cashdesk/internal/infrastructure/postgres"
	"github.com/iho/cashdesk/internal/infrastructure/redis"
	"github.com/iho/cashdesk/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.SetGlobal(appLogger)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid timezone")
	}

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	appMetrics := metrics.New(prometheus.DefaultRegisterer)

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	currencyRepo := postgresRepo.NewCurrencyRepository(pool)
	rateRepo := postgresRepo.NewRateRepository(pool)
	customerRepo := postgresRepo.NewCustomerRepository(pool)
	dealRepo := postgresRepo.NewDealRepository(pool)
	reconRepo := postgresRepo.NewReconciliationRepository(pool)
	userRepo := postgresRepo.NewUserRepository(pool)
	retrier := postgresRepo.NewRetrier().WithLogger(appLogger)
	idGen := postgresRepo.NewULIDGenerator()

	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	otpStore := redisRepo.NewOTPStore(redisClient)
	cache := redisRepo.NewCache(redisClient)

	exporter := report.NewExporter(cfg.ReportDir, appLogger)
	mailer := newNotifier(cfg, appLogger)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)

	// Initialize use cases
	currencyUC := usecase.NewCurrencyUseCase(currencyRepo, rateRepo, dealRepo, idGen, cache, appLogger).
		WithBaseCurrency(cfg.BaseCurrency)
	customerUC := usecase.NewCustomerUseCase(customerRepo, idGen, appLogger)
	dealUC := usecase.NewDealUseCase(txManager, dealRepo, customerRepo, currencyUC, idGen, exporter, appLogger).
		WithRetrier(retrier).
		WithMetrics(appMetrics).
		WithLocation(loc)
	reconUC := usecase.NewReconciliationUseCase(txManager, reconRepo, dealRepo, idGen, exporter, appLogger).
		WithMetrics(appMetrics).
		WithLocation(loc)
	userUC := usecase.NewUserUseCase(userRepo, idGen).WithLogger(appLogger)
	authUC := usecase.NewAuthUseCase(userUC, userRepo, otpStore, mailer, jwtManager, appLogger).
		WithOTPTTL(cfg.OTPTTL).
		WithMetrics(appMetrics)

	// Rate limiting of the auth routes
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).OnLimit(appMetrics.RateLimited)
	limiterCtx, stopLimiter := context.WithCancel(ctx)
	defer stopLimiter()
	go rateLimiter.RunCleanup(limiterCtx, time.Minute, 10*time.Minute)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AuthHandler:           handler.NewAuthHandler(authUC),
		UserHandler:           handler.NewUserHandler(userUC),
		CurrencyHandler:       handler.NewCurrencyHandler(currencyUC),
		CustomerHandler:       handler.NewCustomerHandler(customerUC),
		DealHandler:           handler.NewDealHandler(dealUC, loc),
		ReconciliationHandler: handler.NewReconciliationHandler(reconUC, loc),
		HealthHandler: handler.NewHealthHandler(pool, handler.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})),
		TokenVerifier:    jwtManager,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
		MetricsHandler:   promhttp.Handler(),
		Logger:           appLogger,
	})

	// Create server
	server := &http.Server{
		Addr:         listenAddr(cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("timezone", loc.String()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// newNotifier returns the Mailgun notifier, or a logging one when mail is not configured.
func newNotifier(cfg *config.Config, logger zerolog.Logger) usecase.Notifier {
	if !cfg.MailEnabled() {
		logger.Warn().Msg("MAILGUN_DOMAIN not set, login codes will only be logged")
		return notifier.NewLogNotifier(logger)
	}
	return notifier.NewMailgunNotifier(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailSender, logger)
}

func listenAddr(port string) string {
	return fmt.Sprintf(":%s", port)
}
