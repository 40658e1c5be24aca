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
	"pharmaledger/internal/domain/sale"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

const (
	salesTable     = "sale_transactions"
	saleLinesTable = "sale_lines"
)

var saleCols = postgres.ExtractDBColumns[sale.Transaction]()

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	tx      *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ sale.Repository = (*SaleRepo)(nil)

func NewSaleRepo(tx *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		tx:      tx,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *SaleRepo) querier(ctx context.Context) postgres.Querier {
	return r.tx.GetQuerier(ctx)
}

// Create inserts the header row with its final totals.
func (r *SaleRepo) Create(ctx context.Context, t *sale.Transaction) error {
	now := time.Now().UTC()
	sql, args, err := r.builder.
		Insert(salesTable).
		Columns("id", "transaction_number", "customer_id", "transaction_date",
			"gross_price", "discount", "net_total", "cash_received",
			"payment_method", "remarks", "created_by", "created_at", "updated_at").
		Values(t.ID, t.TransactionNumber, t.CustomerID, t.TransactionDate,
			t.GrossPrice, t.Discount, t.NetTotal, t.CashReceived,
			t.PaymentMethod, t.Remarks, t.CreatedBy, now, now).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate("sale transaction", "transactionNumber", t.TransactionNumber)
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

// InsertLines bulk-inserts document lines with COPY. Must run inside the
// document's transaction.
func (r *SaleRepo) InsertLines(ctx context.Context, lines []sale.Line) error {
	if len(lines) == 0 {
		return nil
	}

	columns := []string{"id", "transaction_id", "lot_id", "quantity", "sale_price"}
	rows := make([][]any, 0, len(lines))
	for i := range lines {
		l := &lines[i]
		rows = append(rows, []any{l.ID, l.TransactionID, l.LotID, l.Quantity, l.SalePrice})
	}

	inserter := postgres.NewBatchInserter(r.tx)
	if _, err := inserter.CopyFromSlice(ctx, saleLinesTable, columns, rows); err != nil {
		return fmt.Errorf("copy sale lines: %w", err)
	}
	return nil
}

// GetByID loads the header with its lines.
func (r *SaleRepo) GetByID(ctx context.Context, txID id.ID) (*sale.Transaction, error) {
	sql, args, err := r.builder.
		Select(saleCols...).
		From(salesTable).
		Where(squirrel.Eq{"id": txID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var t sale.Transaction
	if err := pgxscan.Get(ctx, r.querier(ctx), &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale transaction", txID.String())
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	lines, err := r.getLines(ctx, txID)
	if err != nil {
		return nil, err
	}
	t.Lines = lines
	return &t, nil
}

func (r *SaleRepo) getLines(ctx context.Context, txID id.ID) ([]sale.Line, error) {
	sql, args, err := r.builder.
		Select(postgres.ExtractDBColumns[sale.Line]()...).
		From(saleLinesTable).
		Where(squirrel.Eq{"transaction_id": txID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []sale.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get sale lines: %w", err)
	}
	return lines, nil
}

// List returns headers matching the filter, newest first.
func (r *SaleRepo) List(ctx context.Context, filter sale.ListFilter) ([]sale.Transaction, error) {
	q := r.builder.
		Select(saleCols...).
		From(salesTable).
		OrderBy("transaction_date DESC", "created_at DESC")

	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"transaction_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"transaction_date": *filter.ToDate})
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

	var transactions []sale.Transaction
	if err := pgxscan.Select(ctx, r.querier(ctx), &transactions, sql, args...); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return transactions, nil
}

// Delete removes the header; lines cascade through the foreign key.
func (r *SaleRepo) Delete(ctx context.Context, txID id.ID) error {
	sql, args, err := r.builder.
		Delete(salesTable).
		Where(squirrel.Eq{"id": txID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("sale transaction", txID.String())
	}
	return nil
}

// ExistsByTransactionNumber checks number uniqueness before insert.
func (r *SaleRepo) ExistsByTransactionNumber(ctx context.Context, number string) (bool, error) {
	sql, args, err := r.builder.
		Select("1").
		From(salesTable).
		Where(squirrel.Eq{"transaction_number": number}).
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
		return false, fmt.Errorf("exists by number: %w", err)
	}
	return true, nil
}
