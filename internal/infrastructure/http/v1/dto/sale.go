package dto

import (
	"time"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/sale"
)

// CreateSaleRequest represents a request to record a sale.
type CreateSaleRequest struct {
	TransactionNumber string            `json:"transactionNumber,omitempty"`
	CustomerID        string            `json:"customerId,omitempty"`
	TransactionDate   time.Time         `json:"transactionDate" binding:"required"`
	Discount          types.Money       `json:"discount,omitempty"`
	CashReceived      types.Money       `json:"cashReceived"`
	PaymentMethod     string            `json:"paymentMethod" binding:"required"`
	Remarks           string            `json:"remarks,omitempty"`
	Lines             []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// SaleLineRequest allocates quantity from one stock lot.
type SaleLineRequest struct {
	LotID    string `json:"lotId" binding:"required"`
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
}

// ToEntity converts request to domain entity. Prices and totals are left
// zero; the processor derives them.
func (r *CreateSaleRequest) ToEntity(actor string) *sale.Transaction {
	doc := &sale.Transaction{
		ID:                id.New(),
		TransactionNumber: r.TransactionNumber,
		TransactionDate:   r.TransactionDate,
		Discount:          r.Discount,
		CashReceived:      r.CashReceived,
		PaymentMethod:     sale.PaymentMethod(r.PaymentMethod),
		Remarks:           r.Remarks,
		CreatedBy:         actor,
	}
	if r.CustomerID != "" {
		if customerID, err := id.Parse(r.CustomerID); err == nil {
			doc.CustomerID = &customerID
		}
	}
	for _, line := range r.Lines {
		lotID, _ := id.Parse(line.LotID)
		doc.AddLine(lotID, line.Quantity)
	}
	return doc
}

// SaleReceiptResponse is the recorded sale plus derived change due.
type SaleReceiptResponse struct {
	*sale.Transaction
	ChangeDue types.Money `json:"changeDue"`
}

// FromSale converts a recorded sale to its receipt response.
func FromSale(t *sale.Transaction) SaleReceiptResponse {
	return SaleReceiptResponse{Transaction: t, ChangeDue: t.ChangeDue()}
}
