package usecase

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cashdesk/internal/domain"
)

// ReconciliationUseCase handles cash-drawer reconciliation operations
type ReconciliationUseCase struct {
	txManager TransactionManager
	reconRepo ReconciliationRepository
	dealRepo  DealRepository
	idGen     IDGenerator
	exporter  ReportExporter
	logger    zerolog.Logger
	metrics   MetricsRecorder
	loc       *time.Location
	now       func() time.Time
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	txManager TransactionManager,
	reconRepo ReconciliationRepository,
	dealRepo DealRepository,
	idGen IDGenerator,
	exporter ReportExporter,
	logger zerolog.Logger,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		txManager: txManager,
		reconRepo: reconRepo,
		dealRepo:  dealRepo,
		idGen:     idGen,
		exporter:  exporter,
		logger:    logger,
		metrics:   noopMetrics{},
		loc:       time.Local,
		now:       time.Now,
	}
}

// WithMetrics sets the domain metrics recorder.
func (uc *ReconciliationUseCase) WithMetrics(m MetricsRecorder) *ReconciliationUseCase {
	if m != nil {
		uc.metrics = m
	}
	return uc
}

// WithLocation sets the time zone used for calendar-day boundaries.
func (uc *ReconciliationUseCase) WithLocation(loc *time.Location) *ReconciliationUseCase {
	if loc != nil {
		uc.loc = loc
	}
	return uc
}

// WithClock overrides the time source.
func (uc *ReconciliationUseCase) WithClock(now func() time.Time) *ReconciliationUseCase {
	uc.now = now
	return uc
}

// CashEntryInput is one cash-count line as submitted by the caller.
type CashEntryInput struct {
	Denomination decimal.Decimal
	Quantity     int64
	Amount       decimal.Decimal
	ExchangeRate decimal.Decimal
	CurrencyID   string
}

// CreateReconciliationInput represents input for creating a reconciliation.
type CreateReconciliationInput struct {
	OpeningEntries []CashEntryInput
	ClosingEntries []CashEntryInput
	Notes          []string
	Actor          domain.Actor
}

// UpdateReconciliationInput amends a reconciliation. A nil slice or pointer means the
// field was not supplied and is left untouched.
type UpdateReconciliationInput struct {
	ID             string
	OpeningEntries []CashEntryInput
	ClosingEntries []CashEntryInput
	Notes          []string
	Status         *domain.ReconciliationStatus
	Actor          domain.Actor
}

// ReconciliationDetail is a reconciliation with its display aggregates.
type ReconciliationDetail struct {
	*domain.Reconciliation
	TotalBuy  decimal.Decimal
	TotalSell decimal.Decimal
	Balances  []domain.CurrencyBalance
}

// ListReconciliationsInput represents listing filters.
type ListReconciliationsInput struct {
	Page       int
	Limit      int
	DateFilter domain.DateFilter
	StartDate  *time.Time
	EndDate    *time.Time
	Status     string
}

// ReconciliationList is one page of reconciliations.
type ReconciliationList struct {
	Items []*domain.Reconciliation
	Total int64
	Page  domain.Page
}

// Create records opening and optional closing counts. Without closing entries the
// reconciliation stays In_Progress; otherwise raw totals are classified exactly.
func (uc *ReconciliationUseCase) Create(ctx context.Context, input CreateReconciliationInput) (*domain.Reconciliation, error) {
	if len(input.OpeningEntries) == 0 {
		return nil, domain.ErrOpeningEntriesRequired
	}

	now := uc.now().UTC()
	id := uc.idGen.Generate()

	opening, err := uc.buildEntries(id, input.OpeningEntries)
	if err != nil {
		return nil, err
	}

	closing, err := uc.buildEntries(id, input.ClosingEntries)
	if err != nil {
		return nil, err
	}

	recon := &domain.Reconciliation{
		ID:             id,
		Status:         domain.InitialStatus(opening, closing),
		CreatedBy:      input.Actor.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
		OpeningEntries: opening,
		ClosingEntries: closing,
		Notes:          uc.buildNotes(id, input.Notes, now),
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.reconRepo.Create(ctx, tx, recon); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.metrics.ReconciliationClassified(recon.Status)
	uc.logger.Info().
		Str("reconciliation_id", id).
		Str("status", string(recon.Status)).
		Int("opening_entries", len(opening)).
		Int("closing_entries", len(closing)).
		Msg("reconciliation created")

	return uc.reconRepo.GetByID(ctx, id)
}

// Start links every unreconciled deal created on the reconciliation's calendar day and
// classifies the reconciliation from its per-currency ledger.
func (uc *ReconciliationUseCase) Start(ctx context.Context, id string, actor domain.Actor) (*ReconciliationDetail, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(txCtx)

	recon, err := uc.reconRepo.GetByIDForUpdate(txCtx, tx, id)
	if err != nil {
		return nil, err
	}

	day := domain.DayBounds(recon.CreatedAt, uc.loc)

	linked, err := uc.reconRepo.LinkDeals(txCtx, tx, id, day)
	if err != nil {
		return nil, err
	}

	deals, err := uc.dealRepo.ListByReconciliation(txCtx, tx, id)
	if err != nil {
		return nil, err
	}

	ledger := domain.BuildLedger(recon.OpeningEntries, recon.ClosingEntries, deals)
	status := ledger.Status()

	if err := uc.reconRepo.UpdateStatus(txCtx, tx, id, status, uc.now().UTC()); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.metrics.ReconciliationClassified(status)
	uc.logger.Info().
		Str("reconciliation_id", id).
		Str("actor", actor.UserID).
		Int64("linked_deals", linked).
		Int("deals", len(deals)).
		Str("status", string(status)).
		Msg("reconciliation started")

	return uc.GetByID(ctx, id)
}

// Update replaces whichever entry sets and notes are supplied. Status is only changed when
// given explicitly; entries are never re-classified here.
func (uc *ReconciliationUseCase) Update(ctx context.Context, input UpdateReconciliationInput) (*domain.Reconciliation, error) {
	if input.OpeningEntries == nil && input.ClosingEntries == nil && input.Notes == nil && input.Status == nil {
		return nil, domain.ErrNothingToUpdate
	}

	if input.OpeningEntries != nil && len(input.OpeningEntries) == 0 {
		return nil, domain.ErrOpeningEntriesRequired
	}

	if input.Status != nil && !input.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidReconStatus, *input.Status)
	}

	now := uc.now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	recon, err := uc.reconRepo.GetByIDForUpdate(ctx, tx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.OpeningEntries != nil {
		entries, err := uc.buildEntries(recon.ID, input.OpeningEntries)
		if err != nil {
			return nil, err
		}
		if err := uc.reconRepo.ReplaceEntries(ctx, tx, recon.ID, domain.EntryOpening, entries); err != nil {
			return nil, err
		}
	}

	if input.ClosingEntries != nil {
		entries, err := uc.buildEntries(recon.ID, input.ClosingEntries)
		if err != nil {
			return nil, err
		}
		if err := uc.reconRepo.ReplaceEntries(ctx, tx, recon.ID, domain.EntryClosing, entries); err != nil {
			return nil, err
		}
	}

	if input.Notes != nil {
		if err := uc.reconRepo.ReplaceNotes(ctx, tx, recon.ID, uc.buildNotes(recon.ID, input.Notes, now)); err != nil {
			return nil, err
		}
	}

	status := recon.Status
	if input.Status != nil {
		status = *input.Status
	}

	if err := uc.reconRepo.UpdateStatus(ctx, tx, recon.ID, status, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("reconciliation_id", recon.ID).
		Str("actor", input.Actor.UserID).
		Str("status", string(status)).
		Msg("reconciliation updated")

	return uc.reconRepo.GetByID(ctx, recon.ID)
}

// GetByID returns a reconciliation with its linked deals and computed totals.
func (uc *ReconciliationUseCase) GetByID(ctx context.Context, id string) (*ReconciliationDetail, error) {
	recon, err := uc.reconRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	deals, err := uc.dealRepo.ListByReconciliation(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	recon.Deals = deals

	totalBuy, totalSell := recon.DealTotals()

	return &ReconciliationDetail{
		Reconciliation: recon,
		TotalBuy:       totalBuy,
		TotalSell:      totalSell,
		Balances:       domain.BuildLedger(recon.OpeningEntries, recon.ClosingEntries, deals).Balances(),
	}, nil
}

// List returns reconciliations newest first. Without a status filter, windows reaching
// beyond today only show Short and Excess reconciliations.
func (uc *ReconciliationUseCase) List(ctx context.Context, input ListReconciliationsInput) (*ReconciliationList, error) {
	filter, err := uc.resolveFilter(input)
	if err != nil {
		return nil, err
	}

	items, total, err := uc.reconRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ReconciliationList{Items: items, Total: total, Page: filter.Page}, nil
}

// Alerts lists Short/Excess reconciliations followed by pending deals.
func (uc *ReconciliationUseCase) Alerts(ctx context.Context) ([]domain.Alert, error) {
	recons, _, err := uc.reconRepo.List(ctx, ReconciliationFilter{
		Statuses: []domain.ReconciliationStatus{domain.ReconShort, domain.ReconExcess},
	})
	if err != nil {
		return nil, err
	}

	deals, err := uc.dealRepo.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	return slices.Collect(alertFeed(recons, deals, uc.now(), uc.loc)), nil
}

func alertFeed(recons []*domain.Reconciliation, deals []*domain.Deal, now time.Time, loc *time.Location) iter.Seq[domain.Alert] {
	return func(yield func(domain.Alert) bool) {
		for _, r := range recons {
			if !r.Status.IsDiscrepancy() {
				continue
			}
			if !yield(domain.ReconciliationAlert(r, now, loc)) {
				return
			}
		}
		for _, d := range deals {
			if !d.IsPending() {
				continue
			}
			if !yield(domain.PendingDealAlert(d, now, loc)) {
				return
			}
		}
	}
}

// Export renders every reconciliation matching input and returns the file path.
func (uc *ReconciliationUseCase) Export(ctx context.Context, input ListReconciliationsInput, format string) (string, error) {
	f, err := domain.ParseReportFormat(format)
	if err != nil {
		return "", err
	}

	filter, err := uc.resolveFilter(input)
	if err != nil {
		return "", err
	}
	filter.Page = domain.Page{}

	recons, _, err := uc.reconRepo.List(ctx, filter)
	if err != nil {
		return "", err
	}

	path, err := uc.exporter.Export(ctx, reconciliationReport(recons, uc.loc), f)
	if err != nil {
		return "", err
	}

	uc.metrics.ReportGenerated("reconciliations", f)
	uc.logger.Info().Str("path", path).Int("rows", len(recons)).Msg("reconciliation report exported")

	return path, nil
}

func (uc *ReconciliationUseCase) resolveFilter(input ListReconciliationsInput) (ReconciliationFilter, error) {
	now := uc.now()

	window, err := domain.ResolveDateFilter(input.DateFilter, input.StartDate, input.EndDate, now, uc.loc)
	if err != nil {
		return ReconciliationFilter{}, err
	}

	filter := ReconciliationFilter{Window: &window, Page: domain.NewPage(input.Page, input.Limit)}

	switch {
	case input.Status != "":
		status := domain.ReconciliationStatus(input.Status)
		if !status.IsValid() {
			return ReconciliationFilter{}, fmt.Errorf("%w: %q", domain.ErrInvalidReconStatus, input.Status)
		}
		filter.Statuses = []domain.ReconciliationStatus{status}
	case !window.Within(domain.DayBounds(now, uc.loc)):
		filter.Statuses = []domain.ReconciliationStatus{domain.ReconShort, domain.ReconExcess}
	}

	return filter, nil
}

func (uc *ReconciliationUseCase) buildEntries(reconID string, in []CashEntryInput) ([]domain.CashEntry, error) {
	entries := make([]domain.CashEntry, 0, len(in))
	for i, e := range in {
		if e.CurrencyID == "" {
			return nil, domain.Validationf("entry %d: currency_id is required", i+1)
		}
		if e.Amount.IsNegative() || e.Denomination.IsNegative() || e.Quantity < 0 {
			return nil, domain.Validationf("entry %d: amounts must not be negative", i+1)
		}

		amount := e.Amount
		if amount.IsZero() && e.Quantity > 0 {
			amount = e.Denomination.Mul(decimal.NewFromInt(e.Quantity))
		}

		entries = append(entries, domain.CashEntry{
			ID:               uc.idGen.Generate(),
			ReconciliationID: reconID,
			Denomination:     e.Denomination,
			Quantity:         e.Quantity,
			Amount:           amount,
			ExchangeRate:     e.ExchangeRate,
			CurrencyID:       e.CurrencyID,
		})
	}
	return entries, nil
}

func (uc *ReconciliationUseCase) buildNotes(reconID string, notes []string, now time.Time) []domain.ReconciliationNote {
	out := make([]domain.ReconciliationNote, 0, len(notes))
	for _, n := range notes {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		out = append(out, domain.ReconciliationNote{
			ID:               uc.idGen.Generate(),
			ReconciliationID: reconID,
			Note:             n,
			CreatedAt:        now,
		})
	}
	return out
}

func reconciliationReport(recons []*domain.Reconciliation, loc *time.Location) domain.Report {
	rows := make([][]string, 0, len(recons))
	for _, r := range recons {
		creator := r.CreatedBy
		if r.Creator != nil && r.Creator.Name != "" {
			creator = r.Creator.Name
		}

		notes := make([]string, 0, len(r.Notes))
		for _, n := range r.Notes {
			notes = append(notes, n.Note)
		}

		rows = append(rows, []string{
			r.ID,
			r.CreatedAt.In(loc).Format("02 Jan 2006 15:04"),
			string(r.Status),
			formatEntries(r.OpeningEntries),
			formatEntries(r.ClosingEntries),
			creator,
			strings.Join(notes, "; "),
		})
	}

	return domain.Report{
		Name:    "reconciliations",
		Title:   "Reconciliations",
		Columns: []string{"ID", "Date", "Status", "Opening", "Closing", "Created By", "Notes"},
		Rows:    rows,
	}
}

// formatEntries sums entries per currency, e.g. "1000 INR, 50 USD".
func formatEntries(entries []domain.CashEntry) string {
	totals := map[string]decimal.Decimal{}
	var order []string
	for _, e := range entries {
		code := e.CurrencyID
		if e.Currency != nil && e.Currency.Code != "" {
			code = e.Currency.Code
		}
		if _, ok := totals[code]; !ok {
			order = append(order, code)
		}
		totals[code] = totals[code].Add(e.Amount)
	}

	parts := make([]string, 0, len(order))
	for _, code := range order {
		parts = append(parts, totals[code].String()+" "+code)
	}
	return strings.Join(parts, ", ")
}
