// Package document_repo provides PostgreSQL implementations for the
// purchase and sale transaction repositories.
package document_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/purchase"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

const (
	purchasesTable     = "purchase_transactions"
	purchaseLinesTable = "purchase_lines"
)

var purchaseCols = postgres.ExtractDBColumns[purchase.Transaction]()

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	tx      *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ purchase.Repository = (*PurchaseRepo)(nil)

func NewPurchaseRepo(tx *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		tx:      tx,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *PurchaseRepo) querier(ctx context.Context) postgres.Querier {
	return r.tx.GetQuerier(ctx)
}

// Create inserts the header row.
func (r *PurchaseRepo) Create(ctx context.Context, t *purchase.Transaction) error {
	now := time.Now().UTC()
	sql, args, err := r.builder.
		Insert(purchasesTable).
		Columns("id", "invoice_number", "manufacturer_id", "purchase_date",
			"total_cost", "remarks", "created_by", "created_at", "updated_at").
		Values(t.ID, t.InvoiceNumber, t.ManufacturerID, t.PurchaseDate,
			t.TotalCost, t.Remarks, t.CreatedBy, now, now).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate("purchase transaction", "invoiceNumber", t.InvoiceNumber)
		}
		return fmt.Errorf("insert purchase: %w", err)
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

// InsertLines bulk-inserts document lines with COPY. Must run inside the
// document's transaction.
func (r *PurchaseRepo) InsertLines(ctx context.Context, lines []purchase.Line) error {
	if len(lines) == 0 {
		return nil
	}

	columns := []string{"id", "transaction_id", "product_id", "batch_number",
		"quantity", "unit_price", "expiry_date"}
	rows := make([][]any, 0, len(lines))
	for i := range lines {
		l := &lines[i]
		rows = append(rows, []any{l.ID, l.TransactionID, l.ProductID,
			l.BatchNumber, l.Quantity, l.UnitPrice, l.ExpiryDate})
	}

	inserter := postgres.NewBatchInserter(r.tx)
	if _, err := inserter.CopyFromSlice(ctx, purchaseLinesTable, columns, rows); err != nil {
		return fmt.Errorf("copy purchase lines: %w", err)
	}
	return nil
}

// UpdateTotalCost persists the derived header total.
func (r *PurchaseRepo) UpdateTotalCost(ctx context.Context, txID id.ID, total types.Money) error {
	sql, args, err := r.builder.
		Update(purchasesTable).
		Set("total_cost", total).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": txID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update total cost: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase transaction", txID.String())
	}
	return nil
}

// GetByID loads the header with its lines.
func (r *PurchaseRepo) GetByID(ctx context.Context, txID id.ID) (*purchase.Transaction, error) {
	sql, args, err := r.builder.
		Select(purchaseCols...).
		From(purchasesTable).
		Where(squirrel.Eq{"id": txID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var t purchase.Transaction
	if err := pgxscan.Get(ctx, r.querier(ctx), &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase transaction", txID.String())
		}
		return nil, fmt.Errorf("get purchase: %w", err)
	}

	lines, err := r.getLines(ctx, txID)
	if err != nil {
		return nil, err
	}
	t.Lines = lines
	return &t, nil
}

func (r *PurchaseRepo) getLines(ctx context.Context, txID id.ID) ([]purchase.Line, error) {
	sql, args, err := r.builder.
		Select(postgres.ExtractDBColumns[purchase.Line]()...).
		From(purchaseLinesTable).
		Where(squirrel.Eq{"transaction_id": txID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []purchase.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get purchase lines: %w", err)
	}
	return lines, nil
}

// List returns headers matching the filter, newest purchase first.
func (r *PurchaseRepo) List(ctx context.Context, filter purchase.ListFilter) ([]purchase.Transaction, error) {
	q := r.builder.
		Select(purchaseCols...).
		From(purchasesTable).
		OrderBy("purchase_date DESC", "created_at DESC")

	if filter.ManufacturerID != nil {
		q = q.Where(squirrel.Eq{"manufacturer_id": *filter.ManufacturerID})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"purchase_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"purchase_date": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var transactions []purchase.Transaction
	if err := pgxscan.Select(ctx, r.querier(ctx), &transactions, sql, args...); err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return transactions, nil
}

// Delete removes the header; lines cascade through the foreign key.
func (r *PurchaseRepo) Delete(ctx context.Context, txID id.ID) error {
	sql, args, err := r.builder.
		Delete(purchasesTable).
		Where(squirrel.Eq{"id": txID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete purchase: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase transaction", txID.String())
	}
	return nil
}

// ExistsByInvoiceNumber checks invoice uniqueness before insert.
func (r *PurchaseRepo) ExistsByInvoiceNumber(ctx context.Context, invoiceNumber string) (bool, error) {
	sql, args, err := r.builder.
		Select("1").
		From(purchasesTable).
		Where(squirrel.Eq{"invoice_number": invoiceNumber}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists by invoice: %w", err)
	}
	return true, nil
}
