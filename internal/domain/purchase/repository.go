package purchase

import (
	"context"
	"time"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
)

// ListFilter narrows purchase listings.
type ListFilter struct {
	ManufacturerID *id.ID
	FromDate       *time.Time
	ToDate         *time.Time
	Limit          int
	Offset         int
}

// Repository is the persistence port for purchase transactions.
type Repository interface {
	// Create inserts the header row only.
	Create(ctx context.Context, t *Transaction) error

	// InsertLines bulk-inserts the document lines (COPY).
	InsertLines(ctx context.Context, lines []Line) error

	// UpdateTotalCost persists the derived header total.
	UpdateTotalCost(ctx context.Context, txID id.ID, total types.Money) error

	// GetByID loads the header with its lines.
	GetByID(ctx context.Context, txID id.ID) (*Transaction, error)

	List(ctx context.Context, filter ListFilter) ([]Transaction, error)

	// Delete removes the header; lines cascade.
	Delete(ctx context.Context, txID id.ID) error

	ExistsByInvoiceNumber(ctx context.Context, invoiceNumber string) (bool, error)
}
