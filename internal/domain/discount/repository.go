package discount

import (
	"context"
	"time"

	"pharmaledger/internal/core/id"
)

// ListFilter narrows campaign listings.
type ListFilter struct {
	// ActiveAt keeps only campaigns whose window covers the date.
	ActiveAt *time.Time
	Limit    int
	Offset   int
}

// Repository is the persistence port for discount campaigns.
type Repository interface {
	Create(ctx context.Context, d *Discount) error
	Update(ctx context.Context, d *Discount) error
	Delete(ctx context.Context, discountID id.ID) error
	GetByID(ctx context.Context, discountID id.ID) (*Discount, error)
	List(ctx context.Context, filter ListFilter) ([]Discount, error)

	// ActiveForProduct returns every campaign covering the product whose
	// window includes the given date.
	ActiveForProduct(ctx context.Context, productID id.ID, at time.Time) ([]Discount, error)
}
