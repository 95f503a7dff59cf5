package testutil

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/iho/cashdesk/internal/domain"
	"github.com/iho/cashdesk/internal/infrastructure/postgres"
)

// TestDB provides a migrated database for integration tests.
type TestDB struct {
	Pool *pgxpool.Pool
	t    *testing.T
}

// NewTestDB connects to DATABASE_URL, applies migrations and truncates every table.
// The test is skipped when DATABASE_URL is unset or -short is given.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	if err := postgres.RunMigrations(dbURL, MigrationsPath()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{DatabaseURL: dbURL, MaxConns: 10})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	db := &TestDB{Pool: pool, t: t}
	db.TruncateAll(ctx)
	return db
}

// MigrationsPath locates the migrations directory relative to this file.
func MigrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "infrastructure", "postgres", "migrations")
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE reconciliation_deals, reconciliation_notes, reconciliation_entries,
			reconciliations, deal_items, deals, deal_sequences, customers,
			currency_pair_rates, currencies, users CASCADE
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// CreateCurrency inserts a currency with a fresh id.
func (db *TestDB) CreateCurrency(ctx context.Context, code, name string) *domain.Currency {
	db.t.Helper()

	now := time.Now().UTC()
	c := &domain.Currency{ID: GenerateID(), Code: code, Name: name, CreatedAt: now, UpdatedAt: now}

	_, err := db.Pool.Exec(ctx,
		`INSERT INTO currencies (id, code, name, symbol, created_at, updated_at) VALUES ($1, $2, $3, '', $4, $5)`,
		c.ID, c.Code, c.Name, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		db.t.Fatalf("failed to create test currency: %v", err)
	}
	return c
}

// CreateCustomer inserts an active customer with a fresh id.
func (db *TestDB) CreateCustomer(ctx context.Context, name, phone string, createdAt time.Time) *domain.Customer {
	db.t.Helper()

	c := &domain.Customer{ID: GenerateID(), Name: name, PhoneNumber: phone, IsActive: true, CreatedAt: createdAt, UpdatedAt: createdAt}

	_, err := db.Pool.Exec(ctx,
		`INSERT INTO customers (id, name, phone_number, is_active, created_at, updated_at) VALUES ($1, $2, $3, TRUE, $4, $5)`,
		c.ID, c.Name, c.PhoneNumber, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		db.t.Fatalf("failed to create test customer: %v", err)
	}
	return c
}

// GenerateID generates a new ULID.
func GenerateID() string {
	return ulid.Make().String()
}
