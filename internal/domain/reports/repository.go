package reports

import (
	"context"
	"time"

	"pharmaledger/internal/core/types"
)

// SalesTotals carries the header-level sale aggregates of a range.
type SalesTotals struct {
	Revenue  types.Money `db:"revenue"`
	Discount types.Money `db:"discount"`
}

// Repository reads aggregates straight off the transaction log.
type Repository interface {
	// TotalPurchaseCost sums purchase header totals over the range.
	TotalPurchaseCost(ctx context.Context, from, to time.Time) (types.Money, error)

	// TotalSales sums sale net totals and discounts over the range.
	TotalSales(ctx context.Context, from, to time.Time) (SalesTotals, error)

	// ProductBreakdown aggregates purchase and sale lines per product over
	// the range. Profit and ordering are the service's concern.
	ProductBreakdown(ctx context.Context, from, to time.Time) ([]ProductSummary, error)
}

// Cache is an optional read-side cache for summaries. Get returns nil on a
// miss; implementations never fail the report over a cache error.
type Cache interface {
	GetSummary(ctx context.Context, from, to time.Time) (*Summary, error)
	SetSummary(ctx context.Context, summary *Summary) error
}
