package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashdesk/internal/domain"
)

// CurrencyRepository defines data access for currencies.
type CurrencyRepository interface {
	Create(ctx context.Context, currency *domain.Currency) error
	GetByID(ctx context.Context, id string) (*domain.Currency, error)
	GetByCode(ctx context.Context, code string) (*domain.Currency, error)
	List(ctx context.Context) ([]*domain.Currency, error)
}

// RateRepository defines data access for currency pair rates.
type RateRepository interface {
	Create(ctx context.Context, rate *domain.CurrencyPairRate) error
	// Latest returns the rate with the greatest effective_at for the pair.
	Latest(ctx context.Context, baseCurrencyID, quoteCurrencyID string) (*domain.CurrencyPairRate, error)
}

// CustomerRepository defines data access for customers.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Customer, error)
	Update(ctx context.Context, customer *domain.Customer) error
	List(ctx context.Context, search string, page domain.Page) ([]*domain.Customer, int64, error)
	// DeactivateStale flags active customers whose latest deal, or creation date when
	// they have none, is older than cutoff. Returns the number of rows changed.
	DeactivateStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// DealFilter narrows deal listings. A zero Page.Limit means no limit.
type DealFilter struct {
	Search     string
	Status     string
	CurrencyID string
	Window     *domain.DateRange
	CreatedBy  string
	Sort       domain.DealSort
	Page       domain.Page
}

// SettlementTotal is the sum of AmountToBePaid for one deal type and settlement currency.
type SettlementTotal struct {
	DealType   domain.DealType
	CurrencyID string
	Count      int64
	Amount     decimal.Decimal
}

// DealRepository defines data access for deals and their line items.
type DealRepository interface {
	// NextNumber atomically increments and returns the deal sequence of day.
	NextNumber(ctx context.Context, tx Transaction, day time.Time) (int64, error)
	Create(ctx context.Context, tx Transaction, deal *domain.Deal) error
	GetByID(ctx context.Context, id string) (*domain.Deal, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Deal, error)
	Update(ctx context.Context, tx Transaction, deal *domain.Deal) error
	CreateItems(ctx context.Context, tx Transaction, dealID string, items []domain.DealItem) error
	UpdateItems(ctx context.Context, tx Transaction, items []domain.DealItem) error
	DeleteItems(ctx context.Context, tx Transaction, ids []string) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, filter DealFilter) ([]*domain.Deal, int64, error)
	ListPending(ctx context.Context) ([]*domain.Deal, error)
	ListByReconciliation(ctx context.Context, tx Transaction, reconciliationID string) ([]*domain.Deal, error)
	SettlementTotals(ctx context.Context, window domain.DateRange, createdBy string) ([]SettlementTotal, error)
	// LatestRate returns the exchange rate of the most recent deal touching currencyID.
	LatestRate(ctx context.Context, currencyID string) (decimal.Decimal, error)
}

// ReconciliationFilter narrows reconciliation listings. A zero Page.Limit means no limit.
type ReconciliationFilter struct {
	Window   *domain.DateRange
	Statuses []domain.ReconciliationStatus
	Page     domain.Page
}

// ReconciliationRepository defines data access for reconciliations and their children.
type ReconciliationRepository interface {
	Create(ctx context.Context, tx Transaction, recon *domain.Reconciliation) error
	GetByID(ctx context.Context, id string) (*domain.Reconciliation, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Reconciliation, error)
	ReplaceEntries(ctx context.Context, tx Transaction, reconciliationID string, kind domain.EntryKind, entries []domain.CashEntry) error
	ReplaceNotes(ctx context.Context, tx Transaction, reconciliationID string, notes []domain.ReconciliationNote) error
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.ReconciliationStatus, updatedAt time.Time) error
	// LinkDeals attaches every non-deleted deal created inside window that no reconciliation
	// holds yet. Deals already linked are skipped. Returns the number of new links.
	LinkDeals(ctx context.Context, tx Transaction, reconciliationID string, window domain.DateRange) (int64, error)
	List(ctx context.Context, filter ReconciliationFilter) ([]*domain.Reconciliation, int64, error)
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}

// OTPStore keeps one-time passwords with a TTL.
type OTPStore interface {
	Save(ctx context.Context, email, code string, ttl time.Duration) error
	// Consume deletes the stored code when it matches and reports whether it did.
	Consume(ctx context.Context, email, code string) (bool, error)
}

// Notifier delivers email.
type Notifier interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// ReportExporter renders a report to disk and returns the file path.
type ReportExporter interface {
	Export(ctx context.Context, report domain.Report, format domain.ReportFormat) (string, error)
}

// MetricsRecorder receives domain counters.
type MetricsRecorder interface {
	ReconciliationClassified(status domain.ReconciliationStatus)
	DealCreated(dealType domain.DealType)
	DealStatusChanged(status string)
	CustomersDeactivated(n int64)
	OTPSent()
	ReportGenerated(kind string, format domain.ReportFormat)
}

type noopMetrics struct{}

func (noopMetrics) ReconciliationClassified(domain.ReconciliationStatus) {}
func (noopMetrics) DealCreated(domain.DealType)                          {}
func (noopMetrics) DealStatusChanged(string)                             {}
func (noopMetrics) CustomersDeactivated(int64)                           {}
func (noopMetrics) OTPSent()                                             {}
func (noopMetrics) ReportGenerated(string, domain.ReportFormat)          {}

type noopRetrier struct{}

func (noopRetrier) Retry(_ context.Context, operation func() error) error {
	return operation()
}
