package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"pharmaledger/internal/domain/catalog"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

// CustomerRepo implements catalog.Repository[*catalog.Customer].
type CustomerRepo struct {
	*BaseRepo[*catalog.Customer]
}

var _ catalog.Repository[*catalog.Customer] = (*CustomerRepo)(nil)

func NewCustomerRepo(tx *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{
		BaseRepo: NewBaseRepo(tx, "customers", "customer",
			postgres.ExtractDBColumns[catalog.Customer](),
			func() *catalog.Customer { return &catalog.Customer{} }),
	}
}

// FindByName finds a customer by exact full name.
func (r *CustomerRepo) FindByName(ctx context.Context, name string) (*catalog.Customer, error) {
	q := r.Builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(squirrel.Eq{"full_name": name}).
		Limit(1)
	return r.FindOne(ctx, q)
}
