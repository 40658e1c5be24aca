package catalog_repo

import (
	"pharmaledger/internal/domain/catalog"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

// CategoryRepo implements catalog.Repository[*catalog.Category].
type CategoryRepo struct {
	*BaseRepo[*catalog.Category]
}

var _ catalog.Repository[*catalog.Category] = (*CategoryRepo)(nil)

func NewCategoryRepo(tx *postgres.TxManager) *CategoryRepo {
	return &CategoryRepo{
		BaseRepo: NewBaseRepo(tx, "categories", "category",
			postgres.ExtractDBColumns[catalog.Category](),
			func() *catalog.Category { return &catalog.Category{} }),
	}
}
