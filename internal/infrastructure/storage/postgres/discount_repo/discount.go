// Package discount_repo provides the PostgreSQL implementation of the
// discount campaign repository. Product coverage lives in a join table.
package discount_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/discount"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

const (
	discountsTable        = "discounts"
	discountProductsTable = "discount_products"
)

var discountCols = postgres.ExtractDBColumns[discount.Discount]()

// DiscountRepo implements discount.Repository.
type DiscountRepo struct {
	tx      *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ discount.Repository = (*DiscountRepo)(nil)

func NewDiscountRepo(tx *postgres.TxManager) *DiscountRepo {
	return &DiscountRepo{
		tx:      tx,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *DiscountRepo) querier(ctx context.Context) postgres.Querier {
	return r.tx.GetQuerier(ctx)
}

// Create inserts the campaign and its product links.
func (r *DiscountRepo) Create(ctx context.Context, d *discount.Discount) error {
	now := time.Now().UTC()
	sql, args, err := r.builder.
		Insert(discountsTable).
		Columns("id", "name", "percentage", "from_date", "to_date", "created_at", "updated_at").
		Values(d.ID, d.Name, d.Percentage, d.FromDate, d.ToDate, now, now).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert discount: %w", err)
	}
	if err := r.insertProducts(ctx, d.ID, d.ProductIDs); err != nil {
		return err
	}
	d.CreatedAt = now
	d.UpdatedAt = now
	return nil
}

// Update rewrites the campaign and replaces its product links.
func (r *DiscountRepo) Update(ctx context.Context, d *discount.Discount) error {
	sql, args, err := r.builder.
		Update(discountsTable).
		Set("name", d.Name).
		Set("percentage", d.Percentage).
		Set("from_date", d.FromDate).
		Set("to_date", d.ToDate).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": d.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update discount: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("discount", d.ID.String())
	}

	delSQL, delArgs, err := r.builder.
		Delete(discountProductsTable).
		Where(squirrel.Eq{"discount_id": d.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete links: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, delSQL, delArgs...); err != nil {
		return fmt.Errorf("delete discount links: %w", err)
	}
	return r.insertProducts(ctx, d.ID, d.ProductIDs)
}

func (r *DiscountRepo) insertProducts(ctx context.Context, discountID id.ID, productIDs []id.ID) error {
	if len(productIDs) == 0 {
		return nil
	}
	q := r.builder.
		Insert(discountProductsTable).
		Columns("discount_id", "product_id")
	for _, productID := range productIDs {
		q = q.Values(discountID, productID)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert links: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert discount links: %w", err)
	}
	return nil
}

// Delete removes the campaign; links cascade.
func (r *DiscountRepo) Delete(ctx context.Context, discountID id.ID) error {
	sql, args, err := r.builder.
		Delete(discountsTable).
		Where(squirrel.Eq{"id": discountID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete discount: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("discount", discountID.String())
	}
	return nil
}

// GetByID loads the campaign with its product coverage.
func (r *DiscountRepo) GetByID(ctx context.Context, discountID id.ID) (*discount.Discount, error) {
	sql, args, err := r.builder.
		Select(discountCols...).
		From(discountsTable).
		Where(squirrel.Eq{"id": discountID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var d discount.Discount
	if err := pgxscan.Get(ctx, r.querier(ctx), &d, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("discount", discountID.String())
		}
		return nil, fmt.Errorf("get discount: %w", err)
	}

	productIDs, err := r.productIDs(ctx, discountID)
	if err != nil {
		return nil, err
	}
	d.ProductIDs = productIDs
	return &d, nil
}

func (r *DiscountRepo) productIDs(ctx context.Context, discountID id.ID) ([]id.ID, error) {
	sql, args, err := r.builder.
		Select("product_id").
		From(discountProductsTable).
		Where(squirrel.Eq{"discount_id": discountID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var productIDs []id.ID
	if err := pgxscan.Select(ctx, r.querier(ctx), &productIDs, sql, args...); err != nil {
		return nil, fmt.Errorf("get discount products: %w", err)
	}
	return productIDs, nil
}

// List returns campaigns, optionally only those active on a date.
func (r *DiscountRepo) List(ctx context.Context, filter discount.ListFilter) ([]discount.Discount, error) {
	q := r.builder.
		Select(discountCols...).
		From(discountsTable).
		OrderBy("from_date DESC")

	if filter.ActiveAt != nil {
		q = q.Where(squirrel.LtOrEq{"from_date": *filter.ActiveAt}).
			Where(squirrel.GtOrEq{"to_date": *filter.ActiveAt})
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

	var discounts []discount.Discount
	if err := pgxscan.Select(ctx, r.querier(ctx), &discounts, sql, args...); err != nil {
		return nil, fmt.Errorf("list discounts: %w", err)
	}
	for i := range discounts {
		productIDs, err := r.productIDs(ctx, discounts[i].ID)
		if err != nil {
			return nil, err
		}
		discounts[i].ProductIDs = productIDs
	}
	return discounts, nil
}

// ActiveForProduct returns campaigns covering the product on a date, both
// window boundaries inclusive.
func (r *DiscountRepo) ActiveForProduct(ctx context.Context, productID id.ID, at time.Time) ([]discount.Discount, error) {
	q := r.builder.
		Select(
			"d.id", "d.name", "d.percentage", "d.from_date", "d.to_date",
			"d.created_at", "d.updated_at",
		).
		From(discountsTable + " d").
		Join(discountProductsTable + " dp ON dp.discount_id = d.id").
		Where(squirrel.Eq{"dp.product_id": productID}).
		Where(squirrel.LtOrEq{"d.from_date": at}).
		Where(squirrel.GtOrEq{"d.to_date": at})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var discounts []discount.Discount
	if err := pgxscan.Select(ctx, r.querier(ctx), &discounts, sql, args...); err != nil {
		return nil, fmt.Errorf("active discounts: %w", err)
	}
	return discounts, nil
}
