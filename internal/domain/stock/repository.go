package stock

import (
	"context"
	"time"

	"pharmaledger/internal/core/id"
)

// ListFilter narrows lot listings.
type ListFilter struct {
	ProductID      *id.ID
	ManufacturerID *id.ID
	// ExpiringBefore keeps only lots whose expiry date is strictly before
	// the given date.
	ExpiringBefore *time.Time
	// IncludeEmpty keeps lots with zero quantity in the listing.
	IncludeEmpty bool
	Limit        int
	Offset       int
}

// DefaultListFilter returns the filter used when a caller passes none.
func DefaultListFilter() ListFilter {
	return ListFilter{Limit: 50}
}

// Repository is the persistence port for stock lots.
//
// The ForUpdate variants acquire a row lock on the lot and must be called
// inside a transaction. Lock acquisition order is the caller's concern.
type Repository interface {
	Create(ctx context.Context, lot *Lot) error
	GetByID(ctx context.Context, lotID id.ID) (*Lot, error)
	GetByIDForUpdate(ctx context.Context, lotID id.ID) (*Lot, error)
	FindByProductExpiry(ctx context.Context, productID id.ID, expiry time.Time) (*Lot, error)
	FindByProductExpiryForUpdate(ctx context.Context, productID id.ID, expiry time.Time) (*Lot, error)

	// AddQuantity applies a signed delta to the lot's quantity.
	// The caller must hold the lot's row lock and must have verified the
	// resulting quantity is non-negative.
	AddQuantity(ctx context.Context, lotID id.ID, delta int64) error

	List(ctx context.Context, filter ListFilter) ([]LotView, error)
	ListByProduct(ctx context.Context, productID id.ID) ([]Lot, error)

	// TotalQuantity sums quantities across all lots of a product.
	TotalQuantity(ctx context.Context, productID id.ID) (int64, error)

	// LowStock reports products whose total quantity is below their
	// category's low stock threshold.
	LowStock(ctx context.Context) ([]LowStockItem, error)
}
