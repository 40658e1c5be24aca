// Package stock provides the stock lot store, the authoritative stock state.
// A lot is the quantity of one product sharing one expiry date.
package stock

import (
	"time"

	"pharmaledger/internal/core/id"
)

// Lot is a batch of one product with one expiry date.
// (ProductID, ExpiryDate) is unique. Quantity never goes below zero.
// Lots are never deleted implicitly: a lot that sells out stays at
// quantity 0 so historical sale lines keep a valid reference.
type Lot struct {
	ID         id.ID     `db:"id" json:"id"`
	ProductID  id.ID     `db:"product_id" json:"productId"`
	ExpiryDate time.Time `db:"expiry_date" json:"expiryDate"`
	Quantity   int64     `db:"quantity" json:"quantity"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// IsExpired reports whether the lot's expiry date is before the given date.
func (l *Lot) IsExpired(at time.Time) bool {
	return l.ExpiryDate.Before(truncateDate(at))
}

// LotView is a lot joined with catalog names for the inventory surface.
type LotView struct {
	Lot

	ProductName      string `db:"product_name" json:"productName"`
	ManufacturerName string `db:"manufacturer_name" json:"manufacturerName"`
}

// LowStockItem reports a product whose total quantity across lots fell
// below its category's threshold.
type LowStockItem struct {
	ProductID     id.ID  `db:"product_id" json:"productId"`
	ProductName   string `db:"product_name" json:"productName"`
	TotalQuantity int64  `db:"total_quantity" json:"totalQuantity"`
	Threshold     int64  `db:"threshold" json:"threshold"`
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
