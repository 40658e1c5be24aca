package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"pharmaledger/internal/domain/catalog"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

// ManufacturerRepo implements catalog.ManufacturerRepository.
type ManufacturerRepo struct {
	*BaseRepo[*catalog.Manufacturer]
}

var _ catalog.ManufacturerRepository = (*ManufacturerRepo)(nil)

func NewManufacturerRepo(tx *postgres.TxManager) *ManufacturerRepo {
	return &ManufacturerRepo{
		BaseRepo: NewBaseRepo(tx, "manufacturers", "manufacturer",
			postgres.ExtractDBColumns[catalog.Manufacturer](),
			func() *catalog.Manufacturer { return &catalog.Manufacturer{} }),
	}
}

// GetByName finds a manufacturer by exact name.
func (r *ManufacturerRepo) GetByName(ctx context.Context, name string) (*catalog.Manufacturer, error) {
	q := r.Builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(squirrel.Eq{"name": name}).
		Limit(1)
	return r.FindOne(ctx, q)
}
