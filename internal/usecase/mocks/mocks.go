package mocks

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashdesk/internal/domain"
	"github.com/iho/cashdesk/internal/usecase"
)

func cloneDeal(d *domain.Deal) *domain.Deal {
	c := *d
	c.ReceivedItems = slices.Clone(d.ReceivedItems)
	c.PaidItems = slices.Clone(d.PaidItems)
	return &c
}

// sortItems orders each side by position, as the item query does.
func sortItems(d *domain.Deal) {
	byPosition := func(a, b domain.DealItem) int { return a.Position - b.Position }
	slices.SortStableFunc(d.ReceivedItems, byPosition)
	slices.SortStableFunc(d.PaidItems, byPosition)
}

func cloneReconciliation(r *domain.Reconciliation) *domain.Reconciliation {
	c := *r
	c.OpeningEntries = slices.Clone(r.OpeningEntries)
	c.ClosingEntries = slices.Clone(r.ClosingEntries)
	c.Notes = slices.Clone(r.Notes)
	c.Deals = nil
	return &c
}

func paginate[T any](items []T, page domain.Page) []T {
	if page.Limit == 0 {
		return items
	}
	start := page.Offset()
	if start >= len(items) {
		return nil
	}
	end := min(start+page.Limit, len(items))
	return items[start:end]
}

// MockDealRepository is an in-memory implementation of DealRepository.
type MockDealRepository struct {
	mu        sync.RWMutex
	deals     map[string]*domain.Deal
	sequences map[string]int64
	links     map[string]string // deal id -> reconciliation id

	ItemCreates int
	ItemUpdates int
	ItemDeletes int

	// Customers resolves customer names for search when set.
	Customers *MockCustomerRepository

	NextNumberFunc func(ctx context.Context, tx usecase.Transaction, day time.Time) (int64, error)
	CreateFunc     func(ctx context.Context, tx usecase.Transaction, deal *domain.Deal) error
	GetByIDFunc    func(ctx context.Context, id string) (*domain.Deal, error)
	UpdateFunc     func(ctx context.Context, tx usecase.Transaction, deal *domain.Deal) error
	ListFunc       func(ctx context.Context, filter usecase.DealFilter) ([]*domain.Deal, int64, error)
	LatestRateFunc func(ctx context.Context, currencyID string) (decimal.Decimal, error)
}

func NewMockDealRepository() *MockDealRepository {
	return &MockDealRepository{
		deals:     make(map[string]*domain.Deal),
		sequences: make(map[string]int64),
		links:     make(map[string]string),
	}
}

// Put stores a deal as is, bypassing numbering.
func (m *MockDealRepository) Put(deal *domain.Deal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deals[deal.ID] = cloneDeal(deal)
}

// ReconciliationOf returns the reconciliation a deal is linked to.
func (m *MockDealRepository) ReconciliationOf(dealID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.links[dealID]
}

func (m *MockDealRepository) NextNumber(ctx context.Context, tx usecase.Transaction, day time.Time) (int64, error) {
	if m.NextNumberFunc != nil {
		return m.NextNumberFunc(ctx, tx, day)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := day.Format("2006-01-02")
	m.sequences[key]++
	return m.sequences[key], nil
}

func (m *MockDealRepository) Create(ctx context.Context, tx usecase.Transaction, deal *domain.Deal) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, deal)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.deals {
		if d.DealNumber == deal.DealNumber {
			return domain.ErrDuplicateDealNo
		}
	}
	m.deals[deal.ID] = cloneDeal(deal)
	return nil
}

func (m *MockDealRepository) GetByID(ctx context.Context, id string) (*domain.Deal, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.deals[id]
	if !ok || d.DeletedAt != nil {
		return nil, domain.ErrDealNotFound
	}
	return cloneDeal(d), nil
}

func (m *MockDealRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Deal, error) {
	return m.GetByID(ctx, id)
}

func (m *MockDealRepository) Update(ctx context.Context, tx usecase.Transaction, deal *domain.Deal) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, deal)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.deals[deal.ID]
	if !ok {
		return domain.ErrDealNotFound
	}
	updated := cloneDeal(deal)
	updated.ReceivedItems = stored.ReceivedItems
	updated.PaidItems = stored.PaidItems
	m.deals[deal.ID] = updated
	return nil
}

func (m *MockDealRepository) CreateItems(ctx context.Context, tx usecase.Transaction, dealID string, items []domain.DealItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deals[dealID]
	if !ok {
		return domain.ErrDealNotFound
	}
	for _, it := range items {
		it.DealID = dealID
		if it.Side == domain.DealItemPaid {
			d.PaidItems = append(d.PaidItems, it)
		} else {
			d.ReceivedItems = append(d.ReceivedItems, it)
		}
		m.ItemCreates++
	}
	sortItems(d)
	return nil
}

func (m *MockDealRepository) UpdateItems(ctx context.Context, tx usecase.Transaction, items []domain.DealItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		d, ok := m.deals[it.DealID]
		if !ok {
			return domain.ErrDealItemNotFound
		}
		all := d.Items()
		idx := slices.IndexFunc(all, func(o domain.DealItem) bool { return o.ID == it.ID })
		if idx < 0 {
			return domain.ErrDealItemNotFound
		}
		all[idx] = it
		d.SetItems(all)
		sortItems(d)
		m.ItemUpdates++
	}
	return nil
}

func (m *MockDealRepository) DeleteItems(ctx context.Context, tx usecase.Transaction, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.deals {
		all := d.Items()
		kept := slices.DeleteFunc(all, func(it domain.DealItem) bool { return slices.Contains(ids, it.ID) })
		m.ItemDeletes += len(d.ReceivedItems) + len(d.PaidItems) - len(kept)
		d.SetItems(kept)
	}
	return nil
}

func (m *MockDealRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deals[id]
	if !ok || d.DeletedAt != nil {
		return domain.ErrDealNotFound
	}
	d.DeletedAt = &at
	return nil
}

func (m *MockDealRepository) List(ctx context.Context, filter usecase.DealFilter) ([]*domain.Deal, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.Deal
	for _, d := range m.deals {
		switch {
		case d.DeletedAt != nil:
			continue
		case filter.Search != "" && !m.matchesSearch(ctx, d, filter.Search):
			continue
		case filter.Status != "" && d.Status != filter.Status:
			continue
		case filter.CurrencyID != "" && d.BuyCurrencyID != filter.CurrencyID && d.SellCurrencyID != filter.CurrencyID:
			continue
		case filter.Window != nil && !filter.Window.Contains(d.CreatedAt):
			continue
		case filter.CreatedBy != "" && d.CreatedBy != filter.CreatedBy:
			continue
		}
		out = append(out, cloneDeal(d))
	}

	slices.SortFunc(out, func(a, b *domain.Deal) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if filter.Sort.Field == "deal_number" {
			c = strings.Compare(a.DealNumber, b.DealNumber)
		}
		if filter.Sort.Desc {
			return -c
		}
		return c
	})

	return paginate(out, filter.Page), int64(len(out)), nil
}

// matchesSearch mirrors the ILIKE match on deal number or customer name.
func (m *MockDealRepository) matchesSearch(ctx context.Context, d *domain.Deal, search string) bool {
	search = strings.ToLower(search)
	if strings.Contains(strings.ToLower(d.DealNumber), search) {
		return true
	}
	if m.Customers == nil {
		return false
	}
	c, err := m.Customers.GetByID(ctx, d.CustomerID)
	return err == nil && strings.Contains(strings.ToLower(c.Name), search)
}

func (m *MockDealRepository) ListPending(ctx context.Context) ([]*domain.Deal, error) {
	deals, _, err := m.List(ctx, usecase.DealFilter{
		Status: domain.DealStatusPending,
		Sort:   domain.DealSort{Field: "created_at", Desc: true},
	})
	return deals, err
}

func (m *MockDealRepository) ListByReconciliation(ctx context.Context, tx usecase.Transaction, reconciliationID string) ([]*domain.Deal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Deal
	for dealID, reconID := range m.links {
		if reconID != reconciliationID {
			continue
		}
		if d, ok := m.deals[dealID]; ok && d.DeletedAt == nil {
			out = append(out, cloneDeal(d))
		}
	}
	slices.SortFunc(out, func(a, b *domain.Deal) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (m *MockDealRepository) SettlementTotals(ctx context.Context, window domain.DateRange, createdBy string) ([]usecase.SettlementTotal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byKey := map[string]*usecase.SettlementTotal{}
	var keys []string
	for _, d := range m.deals {
		if d.DeletedAt != nil || !window.Contains(d.CreatedAt) {
			continue
		}
		if createdBy != "" && d.CreatedBy != createdBy {
			continue
		}
		key := string(d.DealType) + "/" + d.SettlementCurrencyID()
		t, ok := byKey[key]
		if !ok {
			t = &usecase.SettlementTotal{DealType: d.DealType, CurrencyID: d.SettlementCurrencyID(), Amount: decimal.Zero}
			byKey[key] = t
			keys = append(keys, key)
		}
		t.Count++
		t.Amount = t.Amount.Add(d.AmountToBePaid)
	}
	slices.Sort(keys)
	out := make([]usecase.SettlementTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byKey[k])
	}
	return out, nil
}

func (m *MockDealRepository) LatestRate(ctx context.Context, currencyID string) (decimal.Decimal, error) {
	if m.LatestRateFunc != nil {
		return m.LatestRateFunc(ctx, currencyID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.Deal
	for _, d := range m.deals {
		if d.DeletedAt != nil || (d.BuyCurrencyID != currencyID && d.SellCurrencyID != currencyID) {
			continue
		}
		if latest == nil || d.CreatedAt.After(latest.CreatedAt) {
			latest = d
		}
	}
	if latest == nil {
		return decimal.Zero, domain.ErrRateNotFound
	}
	return latest.ExchangeRate, nil
}

func (m *MockDealRepository) link(reconciliationID string, window domain.DateRange) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, d := range m.deals {
		if d.DeletedAt != nil || !window.Contains(d.CreatedAt) {
			continue
		}
		if _, taken := m.links[id]; taken {
			continue
		}
		m.links[id] = reconciliationID
		n++
	}
	return n
}

// MockReconciliationRepository is an in-memory implementation of ReconciliationRepository.
type MockReconciliationRepository struct {
	mu     sync.RWMutex
	recons map[string]*domain.Reconciliation
	deals  *MockDealRepository

	CreateFunc       func(ctx context.Context, tx usecase.Transaction, recon *domain.Reconciliation) error
	GetByIDFunc      func(ctx context.Context, id string) (*domain.Reconciliation, error)
	UpdateStatusFunc func(ctx context.Context, tx usecase.Transaction, id string, status domain.ReconciliationStatus, updatedAt time.Time) error
	ListFunc         func(ctx context.Context, filter usecase.ReconciliationFilter) ([]*domain.Reconciliation, int64, error)
}

// NewMockReconciliationRepository links deals from the given deal repository.
func NewMockReconciliationRepository(deals *MockDealRepository) *MockReconciliationRepository {
	return &MockReconciliationRepository{
		recons: make(map[string]*domain.Reconciliation),
		deals:  deals,
	}
}

// Put stores a reconciliation as is.
func (m *MockReconciliationRepository) Put(recon *domain.Reconciliation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recons[recon.ID] = cloneReconciliation(recon)
}

func (m *MockReconciliationRepository) Create(ctx context.Context, tx usecase.Transaction, recon *domain.Reconciliation) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, recon)
	}
	m.Put(recon)
	return nil
}

func (m *MockReconciliationRepository) GetByID(ctx context.Context, id string) (*domain.Reconciliation, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.recons[id]
	if !ok {
		return nil, domain.ErrReconciliationNotFound
	}
	return cloneReconciliation(r), nil
}

func (m *MockReconciliationRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Reconciliation, error) {
	return m.GetByID(ctx, id)
}

func (m *MockReconciliationRepository) ReplaceEntries(ctx context.Context, tx usecase.Transaction, reconciliationID string, kind domain.EntryKind, entries []domain.CashEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recons[reconciliationID]
	if !ok {
		return domain.ErrReconciliationNotFound
	}
	if kind == domain.EntryOpening {
		r.OpeningEntries = slices.Clone(entries)
	} else {
		r.ClosingEntries = slices.Clone(entries)
	}
	return nil
}

func (m *MockReconciliationRepository) ReplaceNotes(ctx context.Context, tx usecase.Transaction, reconciliationID string, notes []domain.ReconciliationNote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recons[reconciliationID]
	if !ok {
		return domain.ErrReconciliationNotFound
	}
	r.Notes = slices.Clone(notes)
	return nil
}

func (m *MockReconciliationRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.ReconciliationStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recons[id]
	if !ok {
		return domain.ErrReconciliationNotFound
	}
	r.Status = status
	r.UpdatedAt = updatedAt
	return nil
}

func (m *MockReconciliationRepository) LinkDeals(ctx context.Context, tx usecase.Transaction, reconciliationID string, window domain.DateRange) (int64, error) {
	if m.deals == nil {
		return 0, nil
	}
	return m.deals.link(reconciliationID, window), nil
}

func (m *MockReconciliationRepository) List(ctx context.Context, filter usecase.ReconciliationFilter) ([]*domain.Reconciliation, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Reconciliation
	for _, r := range m.recons {
		if filter.Window != nil && !filter.Window.Contains(r.CreatedAt) {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, r.Status) {
			continue
		}
		out = append(out, cloneReconciliation(r))
	}
	slices.SortFunc(out, func(a, b *domain.Reconciliation) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return paginate(out, filter.Page), int64(len(out)), nil
}

// MockCustomerRepository is an in-memory implementation of CustomerRepository.
type MockCustomerRepository struct {
	mu        sync.RWMutex
	customers map[string]*domain.Customer

	// Deals supplies last-deal dates for DeactivateStale when set.
	Deals *MockDealRepository

	CreateFunc          func(ctx context.Context, customer *domain.Customer) error
	GetByIDFunc         func(ctx context.Context, id string) (*domain.Customer, error)
	DeactivateStaleFunc func(ctx context.Context, cutoff time.Time) (int64, error)
}

func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{
		customers: make(map[string]*domain.Customer),
	}
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, customer)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *customer
	m.customers[customer.ID] = &c
	return nil
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	out := *c
	return &out, nil
}

func (m *MockCustomerRepository) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.customers {
		if c.PhoneNumber == phone {
			out := *c
			return &out, nil
		}
	}
	return nil, domain.ErrCustomerNotFound
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.customers[customer.ID]; !ok {
		return domain.ErrCustomerNotFound
	}
	c := *customer
	m.customers[customer.ID] = &c
	return nil
}

func (m *MockCustomerRepository) List(ctx context.Context, search string, page domain.Page) ([]*domain.Customer, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Customer
	for _, c := range m.customers {
		if search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(search)) && !strings.Contains(c.PhoneNumber, search) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *domain.Customer) int { return strings.Compare(a.Name, b.Name) })
	return paginate(out, page), int64(len(out)), nil
}

func (m *MockCustomerRepository) DeactivateStale(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.DeactivateStaleFunc != nil {
		return m.DeactivateStaleFunc(ctx, cutoff)
	}

	lastDeal := map[string]time.Time{}
	if m.Deals != nil {
		m.Deals.mu.RLock()
		for _, d := range m.Deals.deals {
			if d.CreatedAt.After(lastDeal[d.CustomerID]) {
				lastDeal[d.CustomerID] = d.CreatedAt
			}
		}
		m.Deals.mu.RUnlock()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.customers {
		if !c.IsActive {
			continue
		}
		var last *time.Time
		if t, ok := lastDeal[c.ID]; ok {
			last = &t
		}
		if c.IsStale(last, cutoff.Add(domain.CustomerInactivityWindow)) {
			c.IsActive = false
			n++
		}
	}
	return n, nil
}

// MockCurrencyRepository is an in-memory implementation of CurrencyRepository.
type MockCurrencyRepository struct {
	mu         sync.RWMutex
	currencies map[string]*domain.Currency

	GetByIDFunc func(ctx context.Context, id string) (*domain.Currency, error)
	GetByIDHits int
}

func NewMockCurrencyRepository(currencies ...*domain.Currency) *MockCurrencyRepository {
	m := &MockCurrencyRepository{currencies: make(map[string]*domain.Currency)}
	for _, c := range currencies {
		m.currencies[c.ID] = c
	}
	return m
}

func (m *MockCurrencyRepository) Create(ctx context.Context, currency *domain.Currency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.currencies {
		if c.Code == currency.Code {
			return domain.ErrDuplicateCurrency
		}
	}
	m.currencies[currency.ID] = currency
	return nil
}

func (m *MockCurrencyRepository) GetByID(ctx context.Context, id string) (*domain.Currency, error) {
	m.mu.Lock()
	m.GetByIDHits++
	m.mu.Unlock()
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.currencies[id]
	if !ok {
		return nil, domain.ErrCurrencyNotFound
	}
	return c, nil
}

func (m *MockCurrencyRepository) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.currencies {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, domain.ErrCurrencyNotFound
}

func (m *MockCurrencyRepository) List(ctx context.Context) ([]*domain.Currency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Currency
	for _, c := range m.currencies {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *domain.Currency) int { return strings.Compare(a.Code, b.Code) })
	return out, nil
}

// MockRateRepository is an in-memory implementation of RateRepository.
type MockRateRepository struct {
	mu    sync.RWMutex
	rates []*domain.CurrencyPairRate
}

func NewMockRateRepository() *MockRateRepository {
	return &MockRateRepository{}
}

func (m *MockRateRepository) Create(ctx context.Context, rate *domain.CurrencyPairRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates = append(m.rates, rate)
	return nil
}

func (m *MockRateRepository) Latest(ctx context.Context, baseCurrencyID, quoteCurrencyID string) (*domain.CurrencyPairRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.CurrencyPairRate
	for _, r := range m.rates {
		if r.BaseCurrencyID != baseCurrencyID || r.QuoteCurrencyID != quoteCurrencyID {
			continue
		}
		if latest == nil || r.EffectiveAt.After(latest.EffectiveAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, domain.ErrRateNotFound
	}
	return latest, nil
}

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*domain.User)}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := *user
	m.users[user.ID] = &u
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	u := *user
	m.users[user.ID] = &u
	return nil
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.User
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *domain.User) int { return strings.Compare(a.Email, b.Email) })
	if offset >= len(out) {
		return nil, nil
	}
	return out[offset:min(offset+limit, len(out))], nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	mu      sync.Mutex
	Begins  int
	Commits int

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	m.Begins++
	m.mu.Unlock()
	return &MockTransaction{CommitFunc: func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.Commits++
		return nil
	}}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
