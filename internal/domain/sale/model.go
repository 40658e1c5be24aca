// Package sale implements the sale side of the transaction ledger.
// Recording a sale allocates quantity from specific stock lots under
// per-lot locks; reversing one puts the quantity back.
package sale

import (
	"context"
	"time"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
)

// PaymentMethod is how the customer settled the sale.
type PaymentMethod string

const (
	PaymentCash      PaymentMethod = "Cash"
	PaymentCard      PaymentMethod = "Card"
	PaymentInsurance PaymentMethod = "Insurance"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentInsurance:
		return true
	}
	return false
}

// Transaction is a sale document. GrossPrice and NetTotal are derived
// during recording; Discount and CashReceived come with the request.
type Transaction struct {
	ID                id.ID         `db:"id" json:"id"`
	TransactionNumber string        `db:"transaction_number" json:"transactionNumber"`
	CustomerID        *id.ID        `db:"customer_id" json:"customerId,omitempty"`
	TransactionDate   time.Time     `db:"transaction_date" json:"transactionDate"`
	GrossPrice        types.Money   `db:"gross_price" json:"grossPrice"`
	Discount          types.Money   `db:"discount" json:"discount"`
	NetTotal          types.Money   `db:"net_total" json:"netTotal"`
	CashReceived      types.Money   `db:"cash_received" json:"cashReceived"`
	PaymentMethod     PaymentMethod `db:"payment_method" json:"paymentMethod"`
	Remarks           string        `db:"remarks" json:"remarks,omitempty"`
	CreatedBy         string        `db:"created_by" json:"createdBy"`
	CreatedAt         time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updatedAt"`

	Lines []Line `db:"-" json:"lines"`
}

// Line allocates quantity from one stock lot at the price effective on the
// transaction date.
type Line struct {
	ID            id.ID       `db:"id" json:"id"`
	TransactionID id.ID       `db:"transaction_id" json:"transactionId"`
	LotID         id.ID       `db:"lot_id" json:"lotId"`
	Quantity      int64       `db:"quantity" json:"quantity"`
	SalePrice     types.Money `db:"sale_price" json:"salePrice"`
}

// AddLine appends a lot allocation request. SalePrice is filled in by the
// processor.
func (t *Transaction) AddLine(lotID id.ID, quantity int64) *Line {
	line := Line{
		ID:            id.New(),
		TransactionID: t.ID,
		LotID:         lotID,
		Quantity:      quantity,
	}
	t.Lines = append(t.Lines, line)
	return &t.Lines[len(t.Lines)-1]
}

// ChangeDue is the cash to hand back, floored at zero.
func (t *Transaction) ChangeDue() types.Money {
	change := t.CashReceived.Sub(t.NetTotal)
	if change.IsNegative() {
		return types.Zero()
	}
	return change
}

// Validate checks document structure before processing.
func (t *Transaction) Validate(_ context.Context) error {
	if t.TransactionDate.IsZero() {
		return apperror.NewValidation("transaction date is required").
			WithDetail("field", "transactionDate")
	}
	if !t.PaymentMethod.Valid() {
		return apperror.NewValidation("unknown payment method").
			WithDetail("field", "paymentMethod")
	}
	if t.Discount.IsNegative() {
		return apperror.NewValidation("discount cannot be negative").
			WithDetail("field", "discount")
	}
	if t.CashReceived.IsNegative() {
		return apperror.NewValidation("cash received cannot be negative").
			WithDetail("field", "cashReceived")
	}
	if len(t.Lines) == 0 {
		return apperror.NewValidation("sale must contain at least one line")
	}
	for i := range t.Lines {
		line := &t.Lines[i]
		if id.IsNil(line.LotID) {
			return apperror.NewValidation("line lot is required").
				WithDetail("line", i)
		}
		if line.Quantity <= 0 {
			return apperror.NewValidation("line quantity must be positive").
				WithDetail("line", i)
		}
	}
	return nil
}
