package sale

import (
	"context"
	"time"

	"pharmaledger/internal/core/id"
)

// ListFilter narrows sale listings.
type ListFilter struct {
	CustomerID *id.ID
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}

// Repository is the persistence port for sale transactions.
type Repository interface {
	// Create inserts the header row with its final totals.
	Create(ctx context.Context, t *Transaction) error

	// InsertLines bulk-inserts the document lines (COPY).
	InsertLines(ctx context.Context, lines []Line) error

	// GetByID loads the header with its lines.
	GetByID(ctx context.Context, txID id.ID) (*Transaction, error)

	List(ctx context.Context, filter ListFilter) ([]Transaction, error)

	// Delete removes the header; lines cascade.
	Delete(ctx context.Context, txID id.ID) error

	ExistsByTransactionNumber(ctx context.Context, number string) (bool, error)
}
