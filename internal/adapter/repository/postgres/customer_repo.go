package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/cashdesk/internal/domain"
)

const customerColumns = `id, name, phone_number, email, is_active, created_by, created_at, updated_at`

// CustomerRepository implements usecase.CustomerRepository.
type CustomerRepository struct {
	pool Querier
}

// NewCustomerRepository creates a new customer repository.
func NewCustomerRepository(pool Querier) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

func scanCustomer(row rowScanner) (*domain.Customer, error) {
	var (
		c         domain.Customer
		email     pgtype.Text
		createdBy pgtype.Text
	)
	if err := row.Scan(&c.ID, &c.Name, &c.PhoneNumber, &email, &c.IsActive, &createdBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Email = textValue(email)
	c.CreatedBy = textValue(createdBy)
	return &c, nil
}

// Create inserts a customer.
func (r *CustomerRepository) Create(ctx context.Context, c *domain.Customer) error {
	query := `
		INSERT INTO customers (id, name, phone_number, email, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Name,
		c.PhoneNumber,
		nullString(c.Email),
		c.IsActive,
		nullString(c.CreatedBy),
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return persistenceError("create customer", err)
	}
	return nil
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	c, err := scanCustomer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundOr("get customer", err, domain.ErrCustomerNotFound)
	}
	return c, nil
}

// GetByPhone retrieves the customer registered with phone.
func (r *CustomerRepository) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE phone_number = $1 ORDER BY created_at LIMIT 1`

	c, err := scanCustomer(r.pool.QueryRow(ctx, query, phone))
	if err != nil {
		return nil, notFoundOr("get customer by phone", err, domain.ErrCustomerNotFound)
	}
	return c, nil
}

// Update overwrites the editable fields of a customer.
func (r *CustomerRepository) Update(ctx context.Context, c *domain.Customer) error {
	query := `
		UPDATE customers
		SET name = $2, phone_number = $3, email = $4, is_active = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, c.ID, c.Name, c.PhoneNumber, nullString(c.Email), c.IsActive, c.UpdatedAt)
	if err != nil {
		return persistenceError("update customer", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

// List searches customers by name or phone number, ordered by name.
func (r *CustomerRepository) List(ctx context.Context, search string, page domain.Page) ([]*domain.Customer, int64, error) {
	where := ``
	args := []any{}
	if search != "" {
		where = ` WHERE name ILIKE $1 OR phone_number LIKE $1`
		args = append(args, "%"+search+"%")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers`+where, args...).Scan(&total); err != nil {
		return nil, 0, persistenceError("count customers", err)
	}

	query := `SELECT ` + customerColumns + ` FROM customers` + where + ` ORDER BY name, id`
	if page.Limit > 0 {
		query += sqlLimit(len(args))
		args = append(args, page.Limit, page.Offset())
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, persistenceError("list customers", err)
	}
	defer rows.Close()

	var customers []*domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, persistenceError("scan customer", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, persistenceError("list customers", err)
	}
	return customers, total, nil
}

// DeactivateStale flags active customers whose newest deal, or creation time when they
// have none, is older than cutoff.
func (r *CustomerRepository) DeactivateStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE customers c
		SET is_active = FALSE, updated_at = NOW()
		WHERE c.is_active
		  AND COALESCE(
		        (SELECT MAX(d.created_at) FROM deals d WHERE d.customer_id = c.id),
		        c.created_at
		      ) < $1
	`

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, persistenceError("deactivate stale customers", err)
	}
	return tag.RowsAffected(), nil
}
