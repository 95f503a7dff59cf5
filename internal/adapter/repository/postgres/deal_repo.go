package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/cashdesk/internal/domain"
	"github.com/iho/cashdesk/internal/usecase"
)

const dealSelect = `
	SELECT d.id, d.deal_number, d.customer_id, d.deal_type, d.transaction_mode,
	       d.amount, d.exchange_rate, d.amount_to_be_paid, d.buy_currency_id, d.sell_currency_id,
	       d.status, d.remarks, d.created_by, d.action_by, d.action_at, d.action_reason,
	       d.completed_at, d.created_at, d.updated_at, d.deleted_at,
	       c.name, c.phone_number, c.email, c.is_active,
	       bc.code, bc.name, sc.code, sc.name
	FROM deals d
	JOIN customers c ON c.id = d.customer_id
	LEFT JOIN currencies bc ON bc.id = d.buy_currency_id
	LEFT JOIN currencies sc ON sc.id = d.sell_currency_id
`

// DealRepository implements usecase.DealRepository.
type DealRepository struct {
	pool Querier
}

// NewDealRepository creates a new deal repository.
func NewDealRepository(pool Querier) *DealRepository {
	return &DealRepository{pool: pool}
}

func scanDeal(row rowScanner) (*domain.Deal, error) {
	var (
		d                                    domain.Deal
		amount, rate, toBePaid               pgtype.Numeric
		buyID, sellID                        pgtype.Text
		actionBy, actionReason               pgtype.Text
		actionAt, completedAt, deletedAt     pgtype.Timestamptz
		customer                             domain.Customer
		customerEmail                        pgtype.Text
		buyCode, buyName, sellCode, sellName pgtype.Text
	)

	err := row.Scan(
		&d.ID, &d.DealNumber, &d.CustomerID, &d.DealType, &d.TransactionMode,
		&amount, &rate, &toBePaid, &buyID, &sellID,
		&d.Status, &d.Remarks, &d.CreatedBy, &actionBy, &actionAt, &actionReason,
		&completedAt, &d.CreatedAt, &d.UpdatedAt, &deletedAt,
		&customer.Name, &customer.PhoneNumber, &customerEmail, &customer.IsActive,
		&buyCode, &buyName, &sellCode, &sellName,
	)
	if err != nil {
		return nil, err
	}

	d.Amount = numericToDecimal(amount)
	d.ExchangeRate = numericToDecimal(rate)
	d.AmountToBePaid = numericToDecimal(toBePaid)
	d.BuyCurrencyID = textValue(buyID)
	d.SellCurrencyID = textValue(sellID)
	d.ActionBy = stringPtr(actionBy)
	d.ActionReason = stringPtr(actionReason)
	d.ActionAt = timePtr(actionAt)
	d.CompletedAt = timePtr(completedAt)
	d.DeletedAt = timePtr(deletedAt)

	customer.ID = d.CustomerID
	customer.Email = textValue(customerEmail)
	d.Customer = &customer

	if buyID.Valid {
		d.BuyCurrency = &domain.CurrencyRef{ID: buyID.String, Code: textValue(buyCode), Name: textValue(buyName)}
	}
	if sellID.Valid {
		d.SellCurrency = &domain.CurrencyRef{ID: sellID.String, Code: textValue(sellCode), Name: textValue(sellName)}
	}

	return &d, nil
}

func (r *DealRepository) queryDeals(ctx context.Context, q Querier, op, query string, args ...any) ([]*domain.Deal, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, persistenceError(op, err)
	}
	defer rows.Close()

	var deals []*domain.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, persistenceError("scan deal", err)
		}
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError(op, err)
	}
	rows.Close()

	if err := r.loadItems(ctx, q, deals); err != nil {
		return nil, err
	}
	return deals, nil
}

// loadItems attaches basket items to deals in one round trip.
func (r *DealRepository) loadItems(ctx context.Context, q Querier, deals []*domain.Deal) error {
	if len(deals) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Deal, len(deals))
	ids := make([]string, 0, len(deals))
	for _, d := range deals {
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}

	query := `
		SELECT i.id, i.deal_id, i.side, i.price, i.quantity, i.total, i.currency_id, i.position, c.code, c.name
		FROM deal_items i
		JOIN currencies c ON c.id = i.currency_id
		WHERE i.deal_id = ANY($1)
		ORDER BY i.deal_id, i.position
	`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return persistenceError("load deal items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it                     domain.DealItem
			price, quantity, total pgtype.Numeric
			ref                    domain.CurrencyRef
		)
		if err := rows.Scan(&it.ID, &it.DealID, &it.Side, &price, &quantity, &total, &it.CurrencyID, &it.Position, &ref.Code, &ref.Name); err != nil {
			return persistenceError("scan deal item", err)
		}
		it.Price = numericToDecimal(price)
		it.Quantity = numericToDecimal(quantity)
		it.Total = numericToDecimal(total)
		ref.ID = it.CurrencyID
		it.Currency = &ref

		d := byID[it.DealID]
		if it.Side == domain.DealItemPaid {
			d.PaidItems = append(d.PaidItems, it)
		} else {
			d.ReceivedItems = append(d.ReceivedItems, it)
		}
	}
	if err := rows.Err(); err != nil {
		return persistenceError("load deal items", err)
	}
	return nil
}

// NextNumber bumps the per-day counter row and returns the new value.
func (r *DealRepository) NextNumber(ctx context.Context, tx usecase.Transaction, day time.Time) (int64, error) {
	query := `
		INSERT INTO deal_sequences (day, last_value)
		VALUES ($1::date, 1)
		ON CONFLICT (day) DO UPDATE SET last_value = deal_sequences.last_value + 1
		RETURNING last_value
	`

	var seq int64
	if err := conn(r.pool, tx).QueryRow(ctx, query, day.Format("2006-01-02")).Scan(&seq); err != nil {
		return 0, persistenceError("next deal number", err)
	}
	return seq, nil
}

// Create inserts a deal together with its basket items.
func (r *DealRepository) Create(ctx context.Context, tx usecase.Transaction, d *domain.Deal) error {
	query := `
		INSERT INTO deals (
			id, deal_number, customer_id, deal_type, transaction_mode,
			amount, exchange_rate, amount_to_be_paid, buy_currency_id, sell_currency_id,
			status, remarks, created_by, action_by, action_at, action_reason,
			completed_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := conn(r.pool, tx).Exec(ctx, query,
		d.ID,
		d.DealNumber,
		d.CustomerID,
		d.DealType,
		d.TransactionMode,
		decimalToNumeric(d.Amount),
		decimalToNumeric(d.ExchangeRate),
		decimalToNumeric(d.AmountToBePaid),
		nullString(d.BuyCurrencyID),
		nullString(d.SellCurrencyID),
		d.Status,
		d.Remarks,
		d.CreatedBy,
		textPtr(d.ActionBy),
		timestamptz(d.ActionAt),
		textPtr(d.ActionReason),
		timestamptz(d.CompletedAt),
		d.CreatedAt,
		d.UpdatedAt,
	)
	if isUniqueViolation(err, "deals_deal_number_key") {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateDealNo, d.DealNumber)
	}
	if err != nil {
		return persistenceError("create deal", err)
	}

	return r.CreateItems(ctx, tx, d.ID, d.Items())
}

// GetByID returns a live deal with customer, currencies and items resolved.
func (r *DealRepository) GetByID(ctx context.Context, id string) (*domain.Deal, error) {
	return r.get(ctx, r.pool, id, "")
}

// GetByIDForUpdate locks the deal row for the rest of tx.
func (r *DealRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Deal, error) {
	return r.get(ctx, conn(r.pool, tx), id, " FOR UPDATE OF d")
}

func (r *DealRepository) get(ctx context.Context, q Querier, id, lock string) (*domain.Deal, error) {
	query := dealSelect + ` WHERE d.id = $1 AND d.deleted_at IS NULL` + lock

	d, err := scanDeal(q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundOr("get deal", err, domain.ErrDealNotFound)
	}
	if err := r.loadItems(ctx, q, []*domain.Deal{d}); err != nil {
		return nil, err
	}
	return d, nil
}

// Update overwrites the scalar fields of a deal. Items are handled separately.
func (r *DealRepository) Update(ctx context.Context, tx usecase.Transaction, d *domain.Deal) error {
	query := `
		UPDATE deals
		SET customer_id = $2, deal_type = $3, transaction_mode = $4,
		    amount = $5, exchange_rate = $6, amount_to_be_paid = $7,
		    buy_currency_id = $8, sell_currency_id = $9, status = $10, remarks = $11,
		    action_by = $12, action_at = $13, action_reason = $14, completed_at = $15, updated_at = $16
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := conn(r.pool, tx).Exec(ctx, query,
		d.ID,
		d.CustomerID,
		d.DealType,
		d.TransactionMode,
		decimalToNumeric(d.Amount),
		decimalToNumeric(d.ExchangeRate),
		decimalToNumeric(d.AmountToBePaid),
		nullString(d.BuyCurrencyID),
		nullString(d.SellCurrencyID),
		d.Status,
		d.Remarks,
		textPtr(d.ActionBy),
		timestamptz(d.ActionAt),
		textPtr(d.ActionReason),
		timestamptz(d.CompletedAt),
		d.UpdatedAt,
	)
	if err != nil {
		return persistenceError("update deal", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDealNotFound
	}
	return nil
}

// CreateItems inserts basket items for dealID at their positions.
func (r *DealRepository) CreateItems(ctx context.Context, tx usecase.Transaction, dealID string, items []domain.DealItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO deal_items (id, deal_id, side, price, quantity, total, currency_id, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	q := conn(r.pool, tx)
	for _, it := range items {
		_, err := q.Exec(ctx, query,
			it.ID,
			dealID,
			it.Side,
			decimalToNumeric(it.Price),
			decimalToNumeric(it.Quantity),
			decimalToNumeric(it.Total),
			it.CurrencyID,
			it.Position,
		)
		if err != nil {
			return persistenceError("create deal item", err)
		}
	}
	return nil
}

// UpdateItems rewrites the content of existing items.
func (r *DealRepository) UpdateItems(ctx context.Context, tx usecase.Transaction, items []domain.DealItem) error {
	query := `
		UPDATE deal_items
		SET side = $2, price = $3, quantity = $4, total = $5, currency_id = $6, position = $7
		WHERE id = $1
	`

	q := conn(r.pool, tx)
	for _, it := range items {
		tag, err := q.Exec(ctx, query,
			it.ID,
			it.Side,
			decimalToNumeric(it.Price),
			decimalToNumeric(it.Quantity),
			decimalToNumeric(it.Total),
			it.CurrencyID,
			it.Position,
		)
		if err != nil {
			return persistenceError("update deal item", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", domain.ErrDealItemNotFound, it.ID)
		}
	}
	return nil
}

// DeleteItems removes items by id.
func (r *DealRepository) DeleteItems(ctx context.Context, tx usecase.Transaction, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := conn(r.pool, tx).Exec(ctx, `DELETE FROM deal_items WHERE id = ANY($1)`, ids); err != nil {
		return persistenceError("delete deal items", err)
	}
	return nil
}

// SoftDelete stamps deleted_at on a live deal.
func (r *DealRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE deals SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, at)
	if err != nil {
		return persistenceError("delete deal", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDealNotFound
	}
	return nil
}

// dealWhere builds the filter clause shared by the listing and its count.
func dealWhere(filter usecase.DealFilter) (string, []any) {
	conds := []string{"d.deleted_at IS NULL"}
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, "(d.deal_number ILIKE "+p+" OR c.name ILIKE "+p+")")
	}
	if filter.Status != "" {
		conds = append(conds, "d.status = "+arg(filter.Status))
	}
	if filter.CurrencyID != "" {
		p := arg(filter.CurrencyID)
		conds = append(conds, "(d.buy_currency_id = "+p+" OR d.sell_currency_id = "+p+")")
	}
	if filter.Window != nil {
		conds = append(conds, "d.created_at BETWEEN "+arg(filter.Window.Start)+" AND "+arg(filter.Window.End))
	}
	if filter.CreatedBy != "" {
		conds = append(conds, "d.created_by = "+arg(filter.CreatedBy))
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func dealOrder(sort domain.DealSort) string {
	field := sort.Field
	if !domain.SortableDealColumns[field] {
		field = "created_at"
	}
	dir := "ASC"
	if sort.Desc {
		dir = "DESC"
	}
	return " ORDER BY d." + field + " " + dir + ", d.id " + dir
}

// List returns a page of live deals and the total number of matches.
func (r *DealRepository) List(ctx context.Context, filter usecase.DealFilter) ([]*domain.Deal, int64, error) {
	where, args := dealWhere(filter)

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM deals d JOIN customers c ON c.id = d.customer_id`+where, args...).Scan(&total); err != nil {
		return nil, 0, persistenceError("count deals", err)
	}

	query := dealSelect + where + dealOrder(filter.Sort)
	if filter.Page.Limit > 0 {
		query += sqlLimit(len(args))
		args = append(args, filter.Page.Limit, filter.Page.Offset())
	}

	deals, err := r.queryDeals(ctx, r.pool, "list deals", query, args...)
	if err != nil {
		return nil, 0, err
	}
	return deals, total, nil
}

// ListPending returns every live deal still awaiting action, newest first.
func (r *DealRepository) ListPending(ctx context.Context) ([]*domain.Deal, error) {
	query := dealSelect + ` WHERE d.status = $1 AND d.deleted_at IS NULL ORDER BY d.created_at DESC`
	return r.queryDeals(ctx, r.pool, "list pending deals", query, domain.DealStatusPending)
}

// ListByReconciliation returns the live deals linked to a reconciliation.
func (r *DealRepository) ListByReconciliation(ctx context.Context, tx usecase.Transaction, reconciliationID string) ([]*domain.Deal, error) {
	query := dealSelect + `
		JOIN reconciliation_deals rd ON rd.deal_id = d.id
		WHERE rd.reconciliation_id = $1 AND d.deleted_at IS NULL
		ORDER BY d.created_at, d.id
	`
	return r.queryDeals(ctx, conn(r.pool, tx), "list reconciliation deals", query, reconciliationID)
}

// SettlementTotals sums amount_to_be_paid per deal type and settlement currency.
func (r *DealRepository) SettlementTotals(ctx context.Context, window domain.DateRange, createdBy string) ([]usecase.SettlementTotal, error) {
	query := `
		SELECT deal_type,
		       CASE WHEN deal_type = 'sell' THEN buy_currency_id ELSE sell_currency_id END AS currency_id,
		       COUNT(*),
		       COALESCE(SUM(amount_to_be_paid), 0)
		FROM deals
		WHERE deleted_at IS NULL AND created_at BETWEEN $1 AND $2
	`
	args := []any{window.Start, window.End}
	if createdBy != "" {
		query += ` AND created_by = $3`
		args = append(args, createdBy)
	}
	query += ` GROUP BY 1, 2 ORDER BY 1, 2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, persistenceError("settlement totals", err)
	}
	defer rows.Close()

	var totals []usecase.SettlementTotal
	for rows.Next() {
		var (
			t        usecase.SettlementTotal
			currency pgtype.Text
			amount   pgtype.Numeric
		)
		if err := rows.Scan(&t.DealType, &currency, &t.Count, &amount); err != nil {
			return nil, persistenceError("scan settlement total", err)
		}
		t.CurrencyID = textValue(currency)
		t.Amount = numericToDecimal(amount)
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("settlement totals", err)
	}
	return totals, nil
}

// LatestRate returns the exchange rate of the newest live deal touching currencyID.
func (r *DealRepository) LatestRate(ctx context.Context, currencyID string) (decimal.Decimal, error) {
	query := `
		SELECT exchange_rate
		FROM deals
		WHERE deleted_at IS NULL AND (buy_currency_id = $1 OR sell_currency_id = $1)
		ORDER BY created_at DESC
		LIMIT 1
	`

	var rate pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query, currencyID).Scan(&rate); err != nil {
		return decimal.Zero, notFoundOr("latest deal rate", err, domain.ErrRateNotFound)
	}
	return numericToDecimal(rate), nil
}
