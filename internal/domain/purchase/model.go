// Package purchase implements the purchase side of the transaction ledger.
// A recorded purchase replenishes stock lots; reversing it drains them back.
package purchase

import (
	"context"
	"time"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
)

// Transaction is a supplier delivery. TotalCost is derived from the lines
// and stored on the header after all lines commit.
type Transaction struct {
	ID             id.ID       `db:"id" json:"id"`
	InvoiceNumber  string      `db:"invoice_number" json:"invoiceNumber"`
	ManufacturerID id.ID       `db:"manufacturer_id" json:"manufacturerId"`
	PurchaseDate   time.Time   `db:"purchase_date" json:"purchaseDate"`
	TotalCost      types.Money `db:"total_cost" json:"totalCost"`
	Remarks        string      `db:"remarks" json:"remarks,omitempty"`
	CreatedBy      string      `db:"created_by" json:"createdBy"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updatedAt"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one delivered product batch.
type Line struct {
	ID            id.ID       `db:"id" json:"id"`
	TransactionID id.ID       `db:"transaction_id" json:"transactionId"`
	ProductID     id.ID       `db:"product_id" json:"productId"`
	BatchNumber   string      `db:"batch_number" json:"batchNumber,omitempty"`
	Quantity      int64       `db:"quantity" json:"quantity"`
	UnitPrice     types.Money `db:"unit_price" json:"unitPrice"`
	ExpiryDate    time.Time   `db:"expiry_date" json:"expiryDate"`
}

// Cost is the line's extended cost.
func (l *Line) Cost() types.Money {
	return l.UnitPrice.Mul(types.NewMoneyFromInt(l.Quantity))
}

// AddLine appends a line to the document.
func (t *Transaction) AddLine(productID id.ID, batchNumber string, quantity int64, unitPrice types.Money, expiry time.Time) *Line {
	line := Line{
		ID:            id.New(),
		TransactionID: t.ID,
		ProductID:     productID,
		BatchNumber:   batchNumber,
		Quantity:      quantity,
		UnitPrice:     unitPrice,
		ExpiryDate:    expiry,
	}
	t.Lines = append(t.Lines, line)
	return &t.Lines[len(t.Lines)-1]
}

// ComputeTotal sums the extended costs of all lines.
func (t *Transaction) ComputeTotal() types.Money {
	total := types.Zero()
	for i := range t.Lines {
		total = total.Add(t.Lines[i].Cost())
	}
	return types.RoundCurrency(total)
}

// Validate checks document structure. Referential checks (manufacturer,
// products, invoice uniqueness) belong to the service.
func (t *Transaction) Validate(_ context.Context) error {
	if t.InvoiceNumber == "" {
		return apperror.NewValidation("invoice number is required").
			WithDetail("field", "invoiceNumber")
	}
	if id.IsNil(t.ManufacturerID) {
		return apperror.NewValidation("manufacturer is required").
			WithDetail("field", "manufacturerId")
	}
	if t.PurchaseDate.IsZero() {
		return apperror.NewValidation("purchase date is required").
			WithDetail("field", "purchaseDate")
	}
	if len(t.Lines) == 0 {
		return apperror.NewValidation("purchase must contain at least one line")
	}
	for i := range t.Lines {
		line := &t.Lines[i]
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("line product is required").
				WithDetail("line", i)
		}
		if line.Quantity <= 0 {
			return apperror.NewValidation("line quantity must be positive").
				WithDetail("line", i)
		}
		if line.UnitPrice.LessThanOrEqual(types.Zero()) {
			return apperror.NewValidation("line unit price must be positive").
				WithDetail("line", i)
		}
		if line.ExpiryDate.IsZero() {
			return apperror.NewValidation("line expiry date is required").
				WithDetail("line", i)
		}
	}
	return nil
}
