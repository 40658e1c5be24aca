// Package discount holds promotional campaigns and the pricing engine
// that applies them to sale lines.
package discount

import (
	"context"
	"time"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
)

// Discount is a percentage campaign over a set of products, active on an
// inclusive [FromDate, ToDate] window.
type Discount struct {
	ID         id.ID       `db:"id" json:"id"`
	Name       string      `db:"name" json:"name"`
	Percentage types.Money `db:"percentage" json:"percentage"`
	FromDate   time.Time   `db:"from_date" json:"fromDate"`
	ToDate     time.Time   `db:"to_date" json:"toDate"`
	ProductIDs []id.ID     `db:"-" json:"productIds"`
	CreatedAt  time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time   `db:"updated_at" json:"updatedAt"`
}

// IsActive reports whether the campaign covers the given date. Both
// boundary dates count as active.
func (d *Discount) IsActive(at time.Time) bool {
	day := truncateDate(at)
	return !day.Before(truncateDate(d.FromDate)) && !day.After(truncateDate(d.ToDate))
}

// Validate checks campaign fields before persistence.
func (d *Discount) Validate(_ context.Context) error {
	if d.Name == "" {
		return apperror.NewValidation("discount name is required").
			WithDetail("field", "name")
	}
	if d.Percentage.LessThanOrEqual(types.Zero()) {
		return apperror.NewValidation("discount percentage must be positive").
			WithDetail("field", "percentage")
	}
	if d.Percentage.GreaterThan(types.NewMoneyFromInt(100)) {
		return apperror.NewValidation("discount percentage cannot exceed 100").
			WithDetail("field", "percentage")
	}
	if d.ToDate.Before(d.FromDate) {
		return apperror.NewValidation("discount end date precedes start date").
			WithDetail("field", "toDate")
	}
	if len(d.ProductIDs) == 0 {
		return apperror.NewValidation("discount must cover at least one product").
			WithDetail("field", "productIds")
	}
	return nil
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
