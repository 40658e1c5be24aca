package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/catalog"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

// ProductRepo implements catalog.ProductRepository.
type ProductRepo struct {
	*BaseRepo[*catalog.Product]
}

var _ catalog.ProductRepository = (*ProductRepo)(nil)

func NewProductRepo(tx *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseRepo: NewBaseRepo(tx, "products", "product",
			postgres.ExtractDBColumns[catalog.Product](),
			func() *catalog.Product { return &catalog.Product{} }),
	}
}

// GetByName finds a product by exact name, scoped to a manufacturer when
// one is given. The bulk intake path identifies products this way; sales
// receipts carry no manufacturer, so a nil ID searches the whole catalog.
func (r *ProductRepo) GetByName(ctx context.Context, name string, manufacturerID id.ID) (*catalog.Product, error) {
	q := r.Builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(squirrel.Eq{"name": name}).
		Limit(1)
	if !id.IsNil(manufacturerID) {
		q = q.Where(squirrel.Eq{"manufacturer_id": manufacturerID})
	}
	return r.FindOne(ctx, q)
}

// ListByManufacturer returns all products of a manufacturer.
func (r *ProductRepo) ListByManufacturer(ctx context.Context, manufacturerID id.ID) ([]*catalog.Product, error) {
	sql, args, err := r.Builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(squirrel.Eq{"manufacturer_id": manufacturerID}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []*catalog.Product
	if err := pgxscan.Select(ctx, r.querier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("list products by manufacturer: %w", err)
	}
	return products, nil
}
