package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cashdesk/internal/domain"
)

// CurrencyUseCase handles currencies, pair rates and base-currency conversion.
type CurrencyUseCase struct {
	currencyRepo CurrencyRepository
	rateRepo     RateRepository
	dealRepo     DealRepository
	idGen        IDGenerator
	cache        Cache
	logger       zerolog.Logger
	baseCode     string
	now          func() time.Time
}

// NewCurrencyUseCase creates a new CurrencyUseCase. cache may be nil.
func NewCurrencyUseCase(
	currencyRepo CurrencyRepository,
	rateRepo RateRepository,
	dealRepo DealRepository,
	idGen IDGenerator,
	cache Cache,
	logger zerolog.Logger,
) *CurrencyUseCase {
	return &CurrencyUseCase{
		currencyRepo: currencyRepo,
		rateRepo:     rateRepo,
		dealRepo:     dealRepo,
		idGen:        idGen,
		cache:        cache,
		logger:       logger,
		baseCode:     DefaultBaseCurrency,
		now:          time.Now,
	}
}

// WithBaseCurrency sets the reporting currency code.
func (uc *CurrencyUseCase) WithBaseCurrency(code string) *CurrencyUseCase {
	if code != "" {
		uc.baseCode = strings.ToUpper(code)
	}
	return uc
}

// CreateCurrencyInput represents input for creating a currency.
type CreateCurrencyInput struct {
	Code   string
	Name   string
	Symbol string
}

// CreatePairRateInput represents input for recording a pair rate.
type CreatePairRateInput struct {
	BaseCurrencyID  string
	QuoteCurrencyID string
	Rate            decimal.Decimal
	EffectiveAt     *time.Time
	Actor           domain.Actor
}

// Create registers a new currency.
func (uc *CurrencyUseCase) Create(ctx context.Context, input CreateCurrencyInput) (*domain.Currency, error) {
	if err := domain.ValidateCurrencyCode(input.Code); err != nil {
		return nil, err
	}
	if err := domain.ValidateName("name", input.Name); err != nil {
		return nil, err
	}

	code := strings.ToUpper(strings.TrimSpace(input.Code))

	existing, err := uc.currencyRepo.GetByCode(ctx, code)
	if err != nil && !errors.Is(err, domain.ErrCurrencyNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateCurrency
	}

	now := uc.now().UTC()
	currency := &domain.Currency{
		ID:        uc.idGen.Generate(),
		Code:      code,
		Name:      strings.TrimSpace(input.Name),
		Symbol:    strings.TrimSpace(input.Symbol),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.currencyRepo.Create(ctx, currency); err != nil {
		return nil, err
	}

	return currency, nil
}

// Get returns a currency by id, served from cache when possible.
func (uc *CurrencyUseCase) Get(ctx context.Context, id string) (*domain.Currency, error) {
	return uc.cached(ctx, "currency:id:"+id, func() (*domain.Currency, error) {
		return uc.currencyRepo.GetByID(ctx, id)
	})
}

// GetByCode returns a currency by ISO code, served from cache when possible.
func (uc *CurrencyUseCase) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	return uc.cached(ctx, "currency:code:"+code, func() (*domain.Currency, error) {
		return uc.currencyRepo.GetByCode(ctx, code)
	})
}

// List returns all currencies ordered by code.
func (uc *CurrencyUseCase) List(ctx context.Context) ([]*domain.Currency, error) {
	return uc.currencyRepo.List(ctx)
}

// CreatePairRate records a new observation for a currency pair.
func (uc *CurrencyUseCase) CreatePairRate(ctx context.Context, input CreatePairRateInput) (*domain.CurrencyPairRate, error) {
	if input.BaseCurrencyID == "" || input.QuoteCurrencyID == "" {
		return nil, domain.Validationf("base_currency_id and quote_currency_id are required")
	}
	if input.BaseCurrencyID == input.QuoteCurrencyID {
		return nil, domain.Validationf("base and quote currency must differ")
	}
	if !input.Rate.IsPositive() {
		return nil, domain.Validationf("rate must be positive")
	}

	base, err := uc.Get(ctx, input.BaseCurrencyID)
	if err != nil {
		return nil, err
	}
	quote, err := uc.Get(ctx, input.QuoteCurrencyID)
	if err != nil {
		return nil, err
	}

	effectiveAt := uc.now().UTC()
	if input.EffectiveAt != nil {
		effectiveAt = input.EffectiveAt.UTC()
	}

	rate := &domain.CurrencyPairRate{
		ID:              uc.idGen.Generate(),
		BaseCurrencyID:  base.ID,
		QuoteCurrencyID: quote.ID,
		Rate:            input.Rate,
		EffectiveAt:     effectiveAt,
		CreatedBy:       input.Actor.UserID,
		BaseCurrency:    base,
		QuoteCurrency:   quote,
	}

	if err := uc.rateRepo.Create(ctx, rate); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("base", base.Code).
		Str("quote", quote.Code).
		Str("rate", rate.Rate.String()).
		Msg("pair rate recorded")

	return rate, nil
}

// LatestPairRate returns the most recent rate for base/quote.
func (uc *CurrencyUseCase) LatestPairRate(ctx context.Context, baseCurrencyID, quoteCurrencyID string) (*domain.CurrencyPairRate, error) {
	return uc.rateRepo.Latest(ctx, baseCurrencyID, quoteCurrencyID)
}

// LatestDealRate returns the exchange rate of the most recent deal touching currencyID.
func (uc *CurrencyUseCase) LatestDealRate(ctx context.Context, currencyID string) (decimal.Decimal, error) {
	return uc.dealRepo.LatestRate(ctx, currencyID)
}

// ConvertToBase converts amount of currencyID into the base currency. The latest pair rate
// is used first (either direction), then the latest deal rate. When neither exists the
// result is zero.
func (uc *CurrencyUseCase) ConvertToBase(ctx context.Context, amount decimal.Decimal, currencyID string) (decimal.Decimal, error) {
	if amount.IsZero() {
		return decimal.Zero, nil
	}

	base, err := uc.GetByCode(ctx, uc.baseCode)
	if err != nil {
		return decimal.Zero, err
	}
	if currencyID == base.ID {
		return amount, nil
	}

	rate, err := uc.rateRepo.Latest(ctx, base.ID, currencyID)
	switch {
	case err == nil:
		return amount.Mul(rate.Rate), nil
	case !errors.Is(err, domain.ErrRateNotFound):
		return decimal.Zero, err
	}

	rate, err = uc.rateRepo.Latest(ctx, currencyID, base.ID)
	switch {
	case err == nil && rate.Rate.IsPositive():
		return amount.Div(rate.Rate), nil
	case err != nil && !errors.Is(err, domain.ErrRateNotFound):
		return decimal.Zero, err
	}

	dealRate, err := uc.dealRepo.LatestRate(ctx, currencyID)
	switch {
	case err == nil:
		return amount.Mul(dealRate), nil
	case !errors.Is(err, domain.ErrRateNotFound):
		return decimal.Zero, err
	}

	uc.logger.Warn().
		Str("currency_id", currencyID).
		Str("base", uc.baseCode).
		Msg("no rate known, converting to zero")

	return decimal.Zero, nil
}

func (uc *CurrencyUseCase) cached(ctx context.Context, key string, load func() (*domain.Currency, error)) (*domain.Currency, error) {
	if uc.cache != nil {
		if raw, err := uc.cache.Get(ctx, key); err == nil && raw != nil {
			var c domain.Currency
			if err := json.Unmarshal(raw, &c); err == nil {
				return &c, nil
			}
		}
	}

	c, err := load()
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if raw, err := json.Marshal(c); err == nil {
			if err := uc.cache.Set(ctx, key, raw, CurrencyCacheTTL); err != nil {
				uc.logger.Warn().Err(err).Str("key", key).Msg("currency cache write failed")
			}
		}
	}

	return c, nil
}
