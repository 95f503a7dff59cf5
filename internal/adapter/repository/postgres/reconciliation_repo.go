package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/cashdesk/internal/domain"
	"github.com/iho/cashdesk/internal/usecase"
)

const reconSelect = `
	SELECT r.id, r.status, r.created_by, r.created_at, r.updated_at,
	       u.id, u.email, u.name, u.role
	FROM reconciliations r
	LEFT JOIN users u ON u.id = r.created_by
`

// ReconciliationRepository implements usecase.ReconciliationRepository.
type ReconciliationRepository struct {
	pool Querier
}

// NewReconciliationRepository creates a new reconciliation repository.
func NewReconciliationRepository(pool Querier) *ReconciliationRepository {
	return &ReconciliationRepository{pool: pool}
}

func scanReconciliation(row rowScanner) (*domain.Reconciliation, error) {
	var (
		rec                           domain.Reconciliation
		userID, email, name, role, by pgtype.Text
	)
	if err := row.Scan(&rec.ID, &rec.Status, &by, &rec.CreatedAt, &rec.UpdatedAt, &userID, &email, &name, &role); err != nil {
		return nil, err
	}
	rec.CreatedBy = textValue(by)
	if userID.Valid {
		rec.Creator = &domain.User{
			ID:    userID.String,
			Email: textValue(email),
			Name:  textValue(name),
			Role:  domain.Role(textValue(role)),
		}
	}
	return &rec, nil
}

// Create inserts a reconciliation with its opening and closing counts and notes.
func (r *ReconciliationRepository) Create(ctx context.Context, tx usecase.Transaction, rec *domain.Reconciliation) error {
	query := `
		INSERT INTO reconciliations (id, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := conn(r.pool, tx).Exec(ctx, query, rec.ID, rec.Status, nullString(rec.CreatedBy), rec.CreatedAt, rec.UpdatedAt); err != nil {
		return persistenceError("create reconciliation", err)
	}

	if err := r.insertEntries(ctx, tx, rec.ID, domain.EntryOpening, rec.OpeningEntries); err != nil {
		return err
	}
	if err := r.insertEntries(ctx, tx, rec.ID, domain.EntryClosing, rec.ClosingEntries); err != nil {
		return err
	}
	return r.insertNotes(ctx, tx, rec.ID, rec.Notes)
}

// GetByID returns a reconciliation with entries, notes and creator resolved.
func (r *ReconciliationRepository) GetByID(ctx context.Context, id string) (*domain.Reconciliation, error) {
	return r.get(ctx, r.pool, id, "")
}

// GetByIDForUpdate locks the reconciliation row for the rest of tx.
func (r *ReconciliationRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Reconciliation, error) {
	return r.get(ctx, conn(r.pool, tx), id, " FOR UPDATE OF r")
}

func (r *ReconciliationRepository) get(ctx context.Context, q Querier, id, lock string) (*domain.Reconciliation, error) {
	rec, err := scanReconciliation(q.QueryRow(ctx, reconSelect+` WHERE r.id = $1`+lock, id))
	if err != nil {
		return nil, notFoundOr("get reconciliation", err, domain.ErrReconciliationNotFound)
	}
	if err := r.loadChildren(ctx, q, []*domain.Reconciliation{rec}); err != nil {
		return nil, err
	}
	return rec, nil
}

// loadChildren attaches entries and notes to recs.
func (r *ReconciliationRepository) loadChildren(ctx context.Context, q Querier, recs []*domain.Reconciliation) error {
	if len(recs) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Reconciliation, len(recs))
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		byID[rec.ID] = rec
		ids = append(ids, rec.ID)
	}

	entries := `
		SELECT e.id, e.reconciliation_id, e.kind, e.denomination, e.quantity, e.amount,
		       e.exchange_rate, e.currency_id, c.code, c.name
		FROM reconciliation_entries e
		JOIN currencies c ON c.id = e.currency_id
		WHERE e.reconciliation_id = ANY($1)
		ORDER BY e.reconciliation_id, e.kind, e.position
	`

	rows, err := q.Query(ctx, entries, ids)
	if err != nil {
		return persistenceError("load reconciliation entries", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e                   domain.CashEntry
			kind                domain.EntryKind
			denom, amount, rate pgtype.Numeric
			ref                 domain.CurrencyRef
		)
		if err := rows.Scan(&e.ID, &e.ReconciliationID, &kind, &denom, &e.Quantity, &amount, &rate, &e.CurrencyID, &ref.Code, &ref.Name); err != nil {
			return persistenceError("scan reconciliation entry", err)
		}
		e.Denomination = numericToDecimal(denom)
		e.Amount = numericToDecimal(amount)
		e.ExchangeRate = numericToDecimal(rate)
		ref.ID = e.CurrencyID
		e.Currency = &ref

		rec := byID[e.ReconciliationID]
		if kind == domain.EntryClosing {
			rec.ClosingEntries = append(rec.ClosingEntries, e)
		} else {
			rec.OpeningEntries = append(rec.OpeningEntries, e)
		}
	}
	if err := rows.Err(); err != nil {
		return persistenceError("load reconciliation entries", err)
	}
	rows.Close()

	notes := `
		SELECT id, reconciliation_id, note, created_at
		FROM reconciliation_notes
		WHERE reconciliation_id = ANY($1)
		ORDER BY reconciliation_id, created_at, position
	`

	noteRows, err := q.Query(ctx, notes, ids)
	if err != nil {
		return persistenceError("load reconciliation notes", err)
	}
	defer noteRows.Close()

	for noteRows.Next() {
		var n domain.ReconciliationNote
		if err := noteRows.Scan(&n.ID, &n.ReconciliationID, &n.Note, &n.CreatedAt); err != nil {
			return persistenceError("scan reconciliation note", err)
		}
		rec := byID[n.ReconciliationID]
		rec.Notes = append(rec.Notes, n)
	}
	if err := noteRows.Err(); err != nil {
		return persistenceError("load reconciliation notes", err)
	}
	return nil
}

func (r *ReconciliationRepository) insertEntries(ctx context.Context, tx usecase.Transaction, reconciliationID string, kind domain.EntryKind, entries []domain.CashEntry) error {
	query := `
		INSERT INTO reconciliation_entries
			(id, reconciliation_id, kind, denomination, quantity, amount, exchange_rate, currency_id, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	q := conn(r.pool, tx)
	for i, e := range entries {
		_, err := q.Exec(ctx, query,
			e.ID,
			reconciliationID,
			kind,
			decimalToNumeric(e.Denomination),
			e.Quantity,
			decimalToNumeric(e.Amount),
			decimalToNumeric(e.ExchangeRate),
			e.CurrencyID,
			i,
		)
		if err != nil {
			return persistenceError("create reconciliation entry", err)
		}
	}
	return nil
}

func (r *ReconciliationRepository) insertNotes(ctx context.Context, tx usecase.Transaction, reconciliationID string, notes []domain.ReconciliationNote) error {
	query := `
		INSERT INTO reconciliation_notes (id, reconciliation_id, note, created_at, position)
		VALUES ($1, $2, $3, $4, $5)
	`

	q := conn(r.pool, tx)
	for i, n := range notes {
		if _, err := q.Exec(ctx, query, n.ID, reconciliationID, n.Note, n.CreatedAt, i); err != nil {
			return persistenceError("create reconciliation note", err)
		}
	}
	return nil
}

// ReplaceEntries deletes every entry of kind and inserts entries in their place.
func (r *ReconciliationRepository) ReplaceEntries(ctx context.Context, tx usecase.Transaction, reconciliationID string, kind domain.EntryKind, entries []domain.CashEntry) error {
	_, err := conn(r.pool, tx).Exec(ctx,
		`DELETE FROM reconciliation_entries WHERE reconciliation_id = $1 AND kind = $2`,
		reconciliationID, kind,
	)
	if err != nil {
		return persistenceError("delete reconciliation entries", err)
	}
	return r.insertEntries(ctx, tx, reconciliationID, kind, entries)
}

// ReplaceNotes deletes every note and inserts notes in their place.
func (r *ReconciliationRepository) ReplaceNotes(ctx context.Context, tx usecase.Transaction, reconciliationID string, notes []domain.ReconciliationNote) error {
	if _, err := conn(r.pool, tx).Exec(ctx, `DELETE FROM reconciliation_notes WHERE reconciliation_id = $1`, reconciliationID); err != nil {
		return persistenceError("delete reconciliation notes", err)
	}
	return r.insertNotes(ctx, tx, reconciliationID, notes)
}

// UpdateStatus sets the status and updated_at of a reconciliation.
func (r *ReconciliationRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.ReconciliationStatus, updatedAt time.Time) error {
	tag, err := conn(r.pool, tx).Exec(ctx,
		`UPDATE reconciliations SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, updatedAt,
	)
	if err != nil {
		return persistenceError("update reconciliation status", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReconciliationNotFound
	}
	return nil
}

// LinkDeals claims unlinked live deals created inside window. deal_id is unique in
// reconciliation_deals, so a deal already claimed elsewhere is skipped.
func (r *ReconciliationRepository) LinkDeals(ctx context.Context, tx usecase.Transaction, reconciliationID string, window domain.DateRange) (int64, error) {
	query := `
		INSERT INTO reconciliation_deals (reconciliation_id, deal_id)
		SELECT $1, d.id
		FROM deals d
		WHERE d.deleted_at IS NULL AND d.created_at BETWEEN $2 AND $3
		ON CONFLICT (deal_id) DO NOTHING
	`

	tag, err := conn(r.pool, tx).Exec(ctx, query, reconciliationID, window.Start, window.End)
	if err != nil {
		return 0, persistenceError("link reconciliation deals", err)
	}
	return tag.RowsAffected(), nil
}

// List returns a page of reconciliations, newest first.
func (r *ReconciliationRepository) List(ctx context.Context, filter usecase.ReconciliationFilter) ([]*domain.Reconciliation, int64, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Window != nil {
		conds = append(conds, "r.created_at BETWEEN "+arg(filter.Window.Start)+" AND "+arg(filter.Window.End))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conds = append(conds, "r.status = ANY("+arg(statuses)+")")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reconciliations r`+where, args...).Scan(&total); err != nil {
		return nil, 0, persistenceError("count reconciliations", err)
	}

	query := reconSelect + where + ` ORDER BY r.created_at DESC, r.id DESC`
	if filter.Page.Limit > 0 {
		query += sqlLimit(len(args))
		args = append(args, filter.Page.Limit, filter.Page.Offset())
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, persistenceError("list reconciliations", err)
	}
	defer rows.Close()

	var recs []*domain.Reconciliation
	for rows.Next() {
		rec, err := scanReconciliation(rows)
		if err != nil {
			return nil, 0, persistenceError("scan reconciliation", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, persistenceError("list reconciliations", err)
	}
	rows.Close()

	if err := r.loadChildren(ctx, r.pool, recs); err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}
