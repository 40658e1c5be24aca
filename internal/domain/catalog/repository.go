package catalog

import (
	"context"

	"pharmaledger/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
type Validatable interface {
	Validate(ctx context.Context) error
}

// ListFilter contains common filtering options for catalog list operations.
type ListFilter struct {
	// Search matches against the entity's name fields (case-insensitive)
	Search string

	// OrderBy specifies sorting (e.g., "name", "updated_at DESC")
	OrderBy string

	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "updated_at DESC",
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// Repository defines CRUD operations shared by all catalog entities.
// T is the pointer type of the entity (e.g., *Product).
type Repository[T Validatable] interface {
	Create(ctx context.Context, entity T) error
	GetByID(ctx context.Context, entityID id.ID) (T, error)
	Update(ctx context.Context, entity T) error

	// Delete removes the row. The store refuses deletion of rows still
	// referenced by transactions or stock lots (foreign keys RESTRICT).
	Delete(ctx context.Context, entityID id.ID) error

	List(ctx context.Context, filter ListFilter) (ListResult[T], error)
	Exists(ctx context.Context, entityID id.ID) (bool, error)
}

// ProductRepository extends Repository with product-specific lookups used
// by the bulk-intake path, which identifies products by name.
type ProductRepository interface {
	Repository[*Product]

	// GetByName finds a product by exact name within a manufacturer.
	GetByName(ctx context.Context, name string, manufacturerID id.ID) (*Product, error)

	// ListByManufacturer returns all products of a manufacturer.
	ListByManufacturer(ctx context.Context, manufacturerID id.ID) ([]*Product, error)
}

// ManufacturerRepository extends Repository with name lookup.
type ManufacturerRepository interface {
	Repository[*Manufacturer]

	// GetByName finds a manufacturer by exact name.
	GetByName(ctx context.Context, name string) (*Manufacturer, error)
}
