// Package stock_repo provides the PostgreSQL implementation of the stock
// lot repository. Lot rows are the only rows the ledger locks explicitly.
package stock_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/stock"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

const lotsTable = "stock_lots"

var lotCols = postgres.ExtractDBColumns[stock.Lot]()

// StockRepo implements stock.Repository.
type StockRepo struct {
	tx      *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ stock.Repository = (*StockRepo)(nil)

func NewStockRepo(tx *postgres.TxManager) *StockRepo {
	return &StockRepo{
		tx:      tx,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *StockRepo) querier(ctx context.Context) postgres.Querier {
	return r.tx.GetQuerier(ctx)
}

// Create inserts a new lot.
func (r *StockRepo) Create(ctx context.Context, lot *stock.Lot) error {
	now := time.Now().UTC()
	sql, args, err := r.builder.
		Insert(lotsTable).
		Columns("id", "product_id", "expiry_date", "quantity", "created_at", "updated_at").
		Values(lot.ID, lot.ProductID, lot.ExpiryDate, lot.Quantity, now, now).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lot: %w", err)
	}
	lot.CreatedAt = now
	lot.UpdatedAt = now
	return nil
}

// GetByID retrieves a lot without locking it.
func (r *StockRepo) GetByID(ctx context.Context, lotID id.ID) (*stock.Lot, error) {
	return r.getOne(ctx, squirrel.Eq{"id": lotID}, false, lotID.String())
}

// GetByIDForUpdate retrieves a lot holding its row lock until the
// enclosing transaction ends. Concurrent sales against the same lot queue
// here.
func (r *StockRepo) GetByIDForUpdate(ctx context.Context, lotID id.ID) (*stock.Lot, error) {
	return r.getOne(ctx, squirrel.Eq{"id": lotID}, true, lotID.String())
}

// FindByProductExpiry retrieves the lot of a (product, expiry) pair.
func (r *StockRepo) FindByProductExpiry(ctx context.Context, productID id.ID, expiry time.Time) (*stock.Lot, error) {
	return r.getOne(ctx, squirrel.Eq{"product_id": productID, "expiry_date": expiry}, false, productID.String())
}

// FindByProductExpiryForUpdate is FindByProductExpiry with a row lock.
func (r *StockRepo) FindByProductExpiryForUpdate(ctx context.Context, productID id.ID, expiry time.Time) (*stock.Lot, error) {
	return r.getOne(ctx, squirrel.Eq{"product_id": productID, "expiry_date": expiry}, true, productID.String())
}

func (r *StockRepo) getOne(ctx context.Context, where squirrel.Eq, forUpdate bool, key string) (*stock.Lot, error) {
	q := r.builder.
		Select(lotCols...).
		From(lotsTable).
		Where(where)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lot stock.Lot
	if err := pgxscan.Get(ctx, r.querier(ctx), &lot, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("stock lot", key)
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return &lot, nil
}

// AddQuantity applies a signed delta. The non-negative CHECK on the table
// backs up what the caller already verified under the row lock.
func (r *StockRepo) AddQuantity(ctx context.Context, lotID id.ID, delta int64) error {
	sql, args, err := r.builder.
		Update(lotsTable).
		Set("quantity", squirrel.Expr("quantity + ?", delta)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": lotID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("adjust lot quantity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("stock lot", lotID.String())
	}
	return nil
}

// List retrieves lot views joined with catalog names.
func (r *StockRepo) List(ctx context.Context, filter stock.ListFilter) ([]stock.LotView, error) {
	q := r.builder.
		Select(
			"l.id", "l.product_id", "l.expiry_date", "l.quantity",
			"l.created_at", "l.updated_at",
			"p.name AS product_name",
			"m.name AS manufacturer_name",
		).
		From(lotsTable + " l").
		Join("products p ON p.id = l.product_id").
		Join("manufacturers m ON m.id = p.manufacturer_id").
		OrderBy("l.expiry_date ASC", "p.name ASC")

	if !filter.IncludeEmpty {
		q = q.Where(squirrel.Gt{"l.quantity": 0})
	}
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"l.product_id": *filter.ProductID})
	}
	if filter.ManufacturerID != nil {
		q = q.Where(squirrel.Eq{"p.manufacturer_id": *filter.ManufacturerID})
	}
	if filter.ExpiringBefore != nil {
		q = q.Where(squirrel.Lt{"l.expiry_date": *filter.ExpiringBefore})
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

	var views []stock.LotView
	if err := pgxscan.Select(ctx, r.querier(ctx), &views, sql, args...); err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	return views, nil
}

// ListByProduct returns all lots of one product, oldest expiry first.
func (r *StockRepo) ListByProduct(ctx context.Context, productID id.ID) ([]stock.Lot, error) {
	sql, args, err := r.builder.
		Select(lotCols...).
		From(lotsTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("expiry_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lots []stock.Lot
	if err := pgxscan.Select(ctx, r.querier(ctx), &lots, sql, args...); err != nil {
		return nil, fmt.Errorf("list lots by product: %w", err)
	}
	return lots, nil
}

// TotalQuantity sums a product's quantity across lots.
func (r *StockRepo) TotalQuantity(ctx context.Context, productID id.ID) (int64, error) {
	sql, args, err := r.builder.
		Select("COALESCE(SUM(quantity), 0)").
		From(lotsTable).
		Where(squirrel.Eq{"product_id": productID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var total int64
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("total quantity: %w", err)
	}
	return total, nil
}

// LowStock reports products whose summed quantity fell below their
// category's threshold.
func (r *StockRepo) LowStock(ctx context.Context) ([]stock.LowStockItem, error) {
	const query = `
		SELECT p.id AS product_id,
		       p.name AS product_name,
		       COALESCE(SUM(l.quantity), 0) AS total_quantity,
		       c.low_stock_threshold AS threshold
		FROM products p
		JOIN categories c ON c.id = p.category_id
		LEFT JOIN stock_lots l ON l.product_id = p.id
		WHERE c.low_stock_threshold > 0
		GROUP BY p.id, p.name, c.low_stock_threshold
		HAVING COALESCE(SUM(l.quantity), 0) < c.low_stock_threshold
		ORDER BY COALESCE(SUM(l.quantity), 0) ASC`

	var items []stock.LowStockItem
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, query); err != nil {
		return nil, fmt.Errorf("low stock: %w", err)
	}
	return items, nil
}
