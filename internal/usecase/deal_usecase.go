package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cashdesk/internal/domain"
)

// BaseConverter converts an amount into the reporting currency.
type BaseConverter interface {
	ConvertToBase(ctx context.Context, amount decimal.Decimal, currencyID string) (decimal.Decimal, error)
}

// DealUseCase handles the deal ledger.
type DealUseCase struct {
	txManager    TransactionManager
	dealRepo     DealRepository
	customerRepo CustomerRepository
	converter    BaseConverter
	idGen        IDGenerator
	exporter     ReportExporter
	retrier      Retrier
	logger       zerolog.Logger
	metrics      MetricsRecorder
	loc          *time.Location
	now          func() time.Time
}

// NewDealUseCase creates a new DealUseCase.
func NewDealUseCase(
	txManager TransactionManager,
	dealRepo DealRepository,
	customerRepo CustomerRepository,
	converter BaseConverter,
	idGen IDGenerator,
	exporter ReportExporter,
	logger zerolog.Logger,
) *DealUseCase {
	return &DealUseCase{
		txManager:    txManager,
		dealRepo:     dealRepo,
		customerRepo: customerRepo,
		converter:    converter,
		idGen:        idGen,
		exporter:     exporter,
		retrier:      noopRetrier{},
		logger:       logger,
		metrics:      noopMetrics{},
		loc:          time.Local,
		now:          time.Now,
	}
}

// WithRetrier sets the retrier used around deal creation.
func (uc *DealUseCase) WithRetrier(r Retrier) *DealUseCase {
	if r != nil {
		uc.retrier = r
	}
	return uc
}

// WithMetrics sets the domain metrics recorder.
func (uc *DealUseCase) WithMetrics(m MetricsRecorder) *DealUseCase {
	if m != nil {
		uc.metrics = m
	}
	return uc
}

// WithLocation sets the time zone used for deal numbering and day windows.
func (uc *DealUseCase) WithLocation(loc *time.Location) *DealUseCase {
	if loc != nil {
		uc.loc = loc
	}
	return uc
}

// WithClock overrides the time source.
func (uc *DealUseCase) WithClock(now func() time.Time) *DealUseCase {
	uc.now = now
	return uc
}

// DealItemInput is one basket line. Items without ID are new.
type DealItemInput struct {
	ID         string
	Price      decimal.Decimal
	Quantity   decimal.Decimal
	Total      decimal.Decimal
	CurrencyID string
}

// CreateDealInput represents input for creating a deal.
type CreateDealInput struct {
	CustomerID      string
	DealType        domain.DealType
	TransactionMode string
	Amount          decimal.Decimal
	ExchangeRate    decimal.Decimal
	AmountToBePaid  decimal.Decimal
	BuyCurrencyID   string
	SellCurrencyID  string
	Status          string
	Remarks         string
	ReceivedItems   []DealItemInput
	PaidItems       []DealItemInput
	Actor           domain.Actor
}

// UpdateDealInput amends a deal. Nil fields are left untouched. When either item list is
// non-nil, the two lists together are the full new basket.
type UpdateDealInput struct {
	ID              string
	CustomerID      *string
	DealType        *domain.DealType
	TransactionMode *string
	Amount          *decimal.Decimal
	ExchangeRate    *decimal.Decimal
	AmountToBePaid  *decimal.Decimal
	BuyCurrencyID   *string
	SellCurrencyID  *string
	Remarks         *string
	ReceivedItems   []DealItemInput
	PaidItems       []DealItemInput
	Actor           domain.Actor
}

// ListDealsInput represents deal listing filters.
type ListDealsInput struct {
	Page          int
	Limit         int
	Search        string
	Status        string
	CurrencyID    string
	DateFilter    domain.DateFilter
	StartDate     *time.Time
	EndDate       *time.Time
	SortField     string
	SortDirection string
	Actor         domain.Actor
}

// DealList is one page of deals with the day-over-day dashboard.
type DealList struct {
	Items []*domain.Deal
	Total int64
	Page  domain.Page
	Stats domain.DealStats
}

// Create records a deal for an active customer and assigns the next deal number of the day.
func (uc *DealUseCase) Create(ctx context.Context, input CreateDealInput) (*domain.Deal, error) {
	customer, err := uc.customerRepo.GetByID(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if !customer.IsActive {
		return nil, domain.ErrInactiveCustomer
	}

	now := uc.now().UTC()

	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = domain.DealStatusPending
	}

	deal := &domain.Deal{
		ID:              uc.idGen.Generate(),
		CustomerID:      input.CustomerID,
		DealType:        input.DealType,
		TransactionMode: input.TransactionMode,
		Amount:          input.Amount,
		ExchangeRate:    input.ExchangeRate,
		AmountToBePaid:  input.AmountToBePaid,
		BuyCurrencyID:   input.BuyCurrencyID,
		SellCurrencyID:  input.SellCurrencyID,
		Status:          status,
		Remarks:         input.Remarks,
		CreatedBy:       input.Actor.UserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	deal.SetItems(domain.NumberItems(append(
		uc.buildItems(deal.ID, domain.DealItemReceived, input.ReceivedItems),
		uc.buildItems(deal.ID, domain.DealItemPaid, input.PaidItems)...,
	)))
	for i := range deal.ReceivedItems {
		deal.ReceivedItems[i].ID = uc.idGen.Generate()
	}
	for i := range deal.PaidItems {
		deal.PaidItems[i].ID = uc.idGen.Generate()
	}

	if deal.AmountToBePaid.IsZero() && deal.ExchangeRate.IsPositive() {
		deal.AmountToBePaid = deal.Amount.Mul(deal.ExchangeRate).Round(2)
	}

	if err := deal.Validate(); err != nil {
		return nil, err
	}

	if status == domain.DealStatusCompleted {
		deal.CompletedAt = &now
	}

	day := domain.DayBounds(now, uc.loc).Start

	err = uc.retrier.Retry(ctx, func() error {
		return uc.insertNumbered(ctx, deal, day)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.DealCreated(deal.DealType)
	uc.logger.Info().
		Str("deal_id", deal.ID).
		Str("deal_number", deal.DealNumber).
		Str("deal_type", string(deal.DealType)).
		Str("customer_id", deal.CustomerID).
		Msg("deal created")

	return uc.dealRepo.GetByID(ctx, deal.ID)
}

func (uc *DealUseCase) insertNumbered(ctx context.Context, deal *domain.Deal, day time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	seq, err := uc.dealRepo.NextNumber(ctx, tx, day)
	if err != nil {
		return err
	}
	deal.DealNumber = domain.FormatDealNumber(day, seq)

	if err := uc.dealRepo.Create(ctx, tx, deal); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// UpdateStatus moves a deal to status, recording who acted and why.
func (uc *DealUseCase) UpdateStatus(ctx context.Context, id, status, reason string, actor domain.Actor) (*domain.Deal, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, domain.Validationf("status is required")
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	deal, err := uc.dealRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	deal.ApplyStatus(status, strings.TrimSpace(reason), actor.UserID, uc.now().UTC())

	if err := uc.dealRepo.Update(ctx, tx, deal); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.metrics.DealStatusChanged(status)
	uc.logger.Info().
		Str("deal_id", id).
		Str("status", status).
		Str("actor", actor.UserID).
		Msg("deal status changed")

	return uc.dealRepo.GetByID(ctx, id)
}

// Update amends scalar fields and reconciles line items by diff: items keep their
// identity, new items are created and omitted ones deleted.
func (uc *DealUseCase) Update(ctx context.Context, input UpdateDealInput) (*domain.Deal, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	deal, err := uc.dealRepo.GetByIDForUpdate(ctx, tx, input.ID)
	if err != nil {
		return nil, err
	}
	if input.Actor.Role.SeesOnlyOwnDeals() && deal.CreatedBy != input.Actor.UserID {
		return nil, domain.ErrDealNotFound
	}

	if input.CustomerID != nil && *input.CustomerID != deal.CustomerID {
		customer, err := uc.customerRepo.GetByID(ctx, *input.CustomerID)
		if err != nil {
			return nil, err
		}
		if !customer.IsActive {
			return nil, domain.ErrInactiveCustomer
		}
		deal.CustomerID = customer.ID
	}

	applyDealFields(deal, input)

	var diff domain.ItemDiff
	if input.ReceivedItems != nil || input.PaidItems != nil {
		incoming := domain.NumberItems(append(
			uc.buildItems(deal.ID, domain.DealItemReceived, input.ReceivedItems),
			uc.buildItems(deal.ID, domain.DealItemPaid, input.PaidItems)...,
		))

		diff, err = domain.DiffItems(deal.Items(), incoming)
		if err != nil {
			return nil, err
		}

		created := 0
		for i := range incoming {
			if incoming[i].ID != "" {
				continue
			}
			incoming[i].ID = uc.idGen.Generate()
			diff.Create[created].ID = incoming[i].ID
			created++
		}

		deal.SetItems(incoming)
	}

	if err := deal.Validate(); err != nil {
		return nil, err
	}

	deal.UpdatedAt = uc.now().UTC()

	if err := uc.dealRepo.Update(ctx, tx, deal); err != nil {
		return nil, err
	}

	if len(diff.Delete) > 0 {
		if err := uc.dealRepo.DeleteItems(ctx, tx, diff.Delete); err != nil {
			return nil, err
		}
	}
	if len(diff.Update) > 0 {
		if err := uc.dealRepo.UpdateItems(ctx, tx, diff.Update); err != nil {
			return nil, err
		}
	}
	if len(diff.Create) > 0 {
		if err := uc.dealRepo.CreateItems(ctx, tx, deal.ID, diff.Create); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("deal_id", deal.ID).
		Str("actor", input.Actor.UserID).
		Int("items_created", len(diff.Create)).
		Int("items_updated", len(diff.Update)).
		Int("items_deleted", len(diff.Delete)).
		Msg("deal updated")

	return uc.dealRepo.GetByID(ctx, deal.ID)
}

func applyDealFields(deal *domain.Deal, input UpdateDealInput) {
	if input.DealType != nil {
		deal.DealType = *input.DealType
	}
	if input.TransactionMode != nil {
		deal.TransactionMode = *input.TransactionMode
	}
	if input.Amount != nil {
		deal.Amount = *input.Amount
	}
	if input.ExchangeRate != nil {
		deal.ExchangeRate = *input.ExchangeRate
	}
	if input.AmountToBePaid != nil {
		deal.AmountToBePaid = *input.AmountToBePaid
	}
	if input.BuyCurrencyID != nil {
		deal.BuyCurrencyID = *input.BuyCurrencyID
	}
	if input.SellCurrencyID != nil {
		deal.SellCurrencyID = *input.SellCurrencyID
	}
	if input.Remarks != nil {
		deal.Remarks = *input.Remarks
	}
}

// Get returns a deal. Makers only see their own deals.
func (uc *DealUseCase) Get(ctx context.Context, id string, actor domain.Actor) (*domain.Deal, error) {
	deal, err := uc.dealRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role.SeesOnlyOwnDeals() && deal.CreatedBy != actor.UserID {
		return nil, domain.ErrDealNotFound
	}
	return deal, nil
}

// Delete soft-deletes a deal.
func (uc *DealUseCase) Delete(ctx context.Context, id string, actor domain.Actor) error {
	if _, err := uc.Get(ctx, id, actor); err != nil {
		return err
	}

	if err := uc.dealRepo.SoftDelete(ctx, id, uc.now().UTC()); err != nil {
		return err
	}

	uc.logger.Info().Str("deal_id", id).Str("actor", actor.UserID).Msg("deal deleted")
	return nil
}

// List returns a page of deals with stats. Every call also deactivates customers that
// had no deal within the inactivity window.
func (uc *DealUseCase) List(ctx context.Context, input ListDealsInput) (*DealList, error) {
	filter, err := uc.resolveFilter(input)
	if err != nil {
		return nil, err
	}

	now := uc.now()

	deactivated, err := uc.customerRepo.DeactivateStale(ctx, domain.InactivityCutoff(now.UTC()))
	if err != nil {
		return nil, err
	}
	if deactivated > 0 {
		uc.metrics.CustomersDeactivated(deactivated)
		uc.logger.Info().Int64("customers", deactivated).Msg("inactive customers deactivated")
	}

	items, total, err := uc.dealRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	stats, err := uc.stats(ctx, now, filter.CreatedBy)
	if err != nil {
		return nil, err
	}

	return &DealList{Items: items, Total: total, Page: filter.Page, Stats: stats}, nil
}

func (uc *DealUseCase) stats(ctx context.Context, now time.Time, createdBy string) (domain.DealStats, error) {
	today := domain.DayBounds(now, uc.loc)
	yesterday := domain.DayBounds(today.Start.Add(-time.Nanosecond), uc.loc)

	todayTotals, err := uc.dayTotals(ctx, today, createdBy)
	if err != nil {
		return domain.DealStats{}, err
	}

	yesterdayTotals, err := uc.dayTotals(ctx, yesterday, createdBy)
	if err != nil {
		return domain.DealStats{}, err
	}

	return domain.CompareDays(todayTotals, yesterdayTotals), nil
}

func (uc *DealUseCase) dayTotals(ctx context.Context, window domain.DateRange, createdBy string) (domain.DayTotals, error) {
	rows, err := uc.dealRepo.SettlementTotals(ctx, window, createdBy)
	if err != nil {
		return domain.DayTotals{}, err
	}

	totals := domain.DayTotals{BuyTotal: decimal.Zero, SellTotal: decimal.Zero}
	for _, row := range rows {
		converted, err := uc.converter.ConvertToBase(ctx, row.Amount, row.CurrencyID)
		if err != nil {
			return domain.DayTotals{}, err
		}

		totals.Count += row.Count
		switch row.DealType {
		case domain.DealTypeBuy:
			totals.BuyTotal = totals.BuyTotal.Add(converted)
		case domain.DealTypeSell:
			totals.SellTotal = totals.SellTotal.Add(converted)
		}
	}
	return totals, nil
}

// Export renders every deal matching input and returns the file path.
func (uc *DealUseCase) Export(ctx context.Context, input ListDealsInput, format string) (string, error) {
	f, err := domain.ParseReportFormat(format)
	if err != nil {
		return "", err
	}

	filter, err := uc.resolveFilter(input)
	if err != nil {
		return "", err
	}
	filter.Page = domain.Page{}

	deals, _, err := uc.dealRepo.List(ctx, filter)
	if err != nil {
		return "", err
	}

	path, err := uc.exporter.Export(ctx, dealReport(deals, uc.loc), f)
	if err != nil {
		return "", err
	}

	uc.metrics.ReportGenerated("deals", f)
	uc.logger.Info().Str("path", path).Int("rows", len(deals)).Msg("deal report exported")

	return path, nil
}

func (uc *DealUseCase) resolveFilter(input ListDealsInput) (DealFilter, error) {
	sort, err := domain.ParseDealSort(input.SortField, input.SortDirection)
	if err != nil {
		return DealFilter{}, err
	}

	filter := DealFilter{
		Search:     strings.TrimSpace(input.Search),
		Status:     strings.TrimSpace(input.Status),
		CurrencyID: input.CurrencyID,
		Sort:       sort,
		Page:       domain.NewPage(input.Page, input.Limit),
	}

	if input.DateFilter != "" {
		window, err := domain.ResolveDateFilter(input.DateFilter, input.StartDate, input.EndDate, uc.now(), uc.loc)
		if err != nil {
			return DealFilter{}, err
		}
		filter.Window = &window
	}

	if input.Actor.Role.SeesOnlyOwnDeals() {
		filter.CreatedBy = input.Actor.UserID
	}

	return filter, nil
}

func (uc *DealUseCase) buildItems(dealID string, side domain.DealItemSide, in []DealItemInput) []domain.DealItem {
	items := make([]domain.DealItem, 0, len(in))
	for _, it := range in {
		total := it.Total
		if total.IsZero() {
			total = it.Price.Mul(it.Quantity)
		}
		items = append(items, domain.DealItem{
			ID:         it.ID,
			DealID:     dealID,
			Side:       side,
			Price:      it.Price,
			Quantity:   it.Quantity,
			Total:      total,
			CurrencyID: it.CurrencyID,
		})
	}
	return items
}

func dealReport(deals []*domain.Deal, loc *time.Location) domain.Report {
	code := func(ref *domain.CurrencyRef, id string) string {
		if ref != nil && ref.Code != "" {
			return ref.Code
		}
		return id
	}

	rows := make([][]string, 0, len(deals))
	for _, d := range deals {
		customer := d.CustomerID
		if d.Customer != nil {
			customer = d.Customer.Name
		}

		amountCode, payCode := code(d.BuyCurrency, d.BuyCurrencyID), code(d.SellCurrency, d.SellCurrencyID)
		if d.DealType == domain.DealTypeSell {
			amountCode, payCode = payCode, amountCode
		}

		rows = append(rows, []string{
			d.DealNumber,
			d.CreatedAt.In(loc).Format("02 Jan 2006 15:04"),
			customer,
			string(d.DealType),
			d.TransactionMode,
			d.Amount.String() + " " + amountCode,
			d.ExchangeRate.String(),
			d.AmountToBePaid.String() + " " + payCode,
			d.Status,
			d.Remarks,
		})
	}

	return domain.Report{
		Name:  "deals",
		Title: "Deals",
		Columns: []string{
			"Deal No", "Date", "Customer", "Type", "Mode", "Amount", "Rate", "Amount To Be Paid", "Status", "Remarks",
		},
		Rows: rows,
	}
}
