// Package reports computes period-bounded financial summaries by replaying
// recorded purchase and sale transactions. Read-only.
package reports

import (
	"time"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
)

// ProductSummary is the per-product slice of a financial summary.
type ProductSummary struct {
	ProductID         id.ID       `db:"product_id" json:"productId"`
	ProductName       string      `db:"product_name" json:"productName"`
	PurchasedQuantity int64       `db:"purchased_quantity" json:"purchasedQuantity"`
	TotalSpent        types.Money `db:"total_spent" json:"totalSpent"`
	SoldQuantity      int64       `db:"sold_quantity" json:"soldQuantity"`
	TotalEarned       types.Money `db:"total_earned" json:"totalEarned"`
	Profit            types.Money `db:"profit" json:"profit"`
}

// Summary is the financial picture of a date range, both dates inclusive.
type Summary struct {
	FromDate          time.Time        `json:"fromDate"`
	ToDate            time.Time        `json:"toDate"`
	TotalPurchaseCost types.Money      `json:"totalPurchaseCost"`
	TotalSalesRevenue types.Money      `json:"totalSalesRevenue"`
	TotalDiscount     types.Money      `json:"totalDiscount"`
	Profit            types.Money      `json:"profit"`
	PerProduct        []ProductSummary `json:"perProduct"`
}
