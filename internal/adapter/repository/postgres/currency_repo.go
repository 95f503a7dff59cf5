package postgres

import (
	"context"

	"github.com/iho/cashdesk/internal/domain"
)

const currencyColumns = `id, code, name, symbol, created_at, updated_at`

// CurrencyRepository implements usecase.CurrencyRepository.
type CurrencyRepository struct {
	pool Querier
}

// NewCurrencyRepository creates a new currency repository.
func NewCurrencyRepository(pool Querier) *CurrencyRepository {
	return &CurrencyRepository{pool: pool}
}

// Create inserts a currency.
func (r *CurrencyRepository) Create(ctx context.Context, c *domain.Currency) error {
	query := `
		INSERT INTO currencies (id, code, name, symbol, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query, c.ID, c.Code, c.Name, c.Symbol, c.CreatedAt, c.UpdatedAt)
	if isUniqueViolation(err, "currencies_code_key") {
		return domain.ErrDuplicateCurrency
	}
	if err != nil {
		return persistenceError("create currency", err)
	}
	return nil
}

// GetByID retrieves a currency by ID.
func (r *CurrencyRepository) GetByID(ctx context.Context, id string) (*domain.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies WHERE id = $1`

	var c domain.Currency
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Code, &c.Name, &c.Symbol, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFoundOr("get currency", err, domain.ErrCurrencyNotFound)
	}
	return &c, nil
}

// GetByCode retrieves a currency by its ISO code.
func (r *CurrencyRepository) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies WHERE code = $1`

	var c domain.Currency
	err := r.pool.QueryRow(ctx, query, code).Scan(&c.ID, &c.Code, &c.Name, &c.Symbol, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFoundOr("get currency by code", err, domain.ErrCurrencyNotFound)
	}
	return &c, nil
}

// List returns all currencies ordered by code.
func (r *CurrencyRepository) List(ctx context.Context) ([]*domain.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies ORDER BY code`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, persistenceError("list currencies", err)
	}
	defer rows.Close()

	var currencies []*domain.Currency
	for rows.Next() {
		var c domain.Currency
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Symbol, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, persistenceError("scan currency", err)
		}
		currencies = append(currencies, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("list currencies", err)
	}
	return currencies, nil
}
