package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/cashdesk/internal/domain"
)

// RateRepository implements usecase.RateRepository.
type RateRepository struct {
	pool Querier
}

// NewRateRepository creates a new currency pair rate repository.
func NewRateRepository(pool Querier) *RateRepository {
	return &RateRepository{pool: pool}
}

// Create appends a rate observation. Pairs are not unique.
func (r *RateRepository) Create(ctx context.Context, rate *domain.CurrencyPairRate) error {
	query := `
		INSERT INTO currency_pair_rates (id, base_currency_id, quote_currency_id, rate, effective_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		rate.ID,
		rate.BaseCurrencyID,
		rate.QuoteCurrencyID,
		decimalToNumeric(rate.Rate),
		rate.EffectiveAt,
		nullString(rate.CreatedBy),
	)
	if err != nil {
		return persistenceError("create pair rate", err)
	}
	return nil
}

// Latest returns the rate with the greatest effective_at for the pair, currencies attached.
func (r *RateRepository) Latest(ctx context.Context, baseCurrencyID, quoteCurrencyID string) (*domain.CurrencyPairRate, error) {
	query := `
		SELECT r.id, r.base_currency_id, r.quote_currency_id, r.rate, r.effective_at, r.created_by,
		       b.code, b.name, b.symbol, q.code, q.name, q.symbol
		FROM currency_pair_rates r
		JOIN currencies b ON b.id = r.base_currency_id
		JOIN currencies q ON q.id = r.quote_currency_id
		WHERE r.base_currency_id = $1 AND r.quote_currency_id = $2
		ORDER BY r.effective_at DESC
		LIMIT 1
	`

	var (
		rate      domain.CurrencyPairRate
		value     pgtype.Numeric
		createdBy pgtype.Text
		base      domain.Currency
		quote     domain.Currency
	)
	err := r.pool.QueryRow(ctx, query, baseCurrencyID, quoteCurrencyID).Scan(
		&rate.ID,
		&rate.BaseCurrencyID,
		&rate.QuoteCurrencyID,
		&value,
		&rate.EffectiveAt,
		&createdBy,
		&base.Code,
		&base.Name,
		&base.Symbol,
		&quote.Code,
		&quote.Name,
		&quote.Symbol,
	)
	if err != nil {
		return nil, notFoundOr("latest pair rate", err, domain.ErrRateNotFound)
	}

	base.ID = rate.BaseCurrencyID
	quote.ID = rate.QuoteCurrencyID
	rate.Rate = numericToDecimal(value)
	rate.CreatedBy = textValue(createdBy)
	rate.BaseCurrency = &base
	rate.QuoteCurrency = &quote

	return &rate, nil
}
