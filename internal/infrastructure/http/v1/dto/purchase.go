package dto

import (
	"time"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/purchase"
)

// CreatePurchaseRequest represents a request to record a purchase.
type CreatePurchaseRequest struct {
	InvoiceNumber  string                `json:"invoiceNumber" binding:"required"`
	ManufacturerID string                `json:"manufacturerId" binding:"required"`
	PurchaseDate   time.Time             `json:"purchaseDate" binding:"required"`
	Remarks        string                `json:"remarks,omitempty"`
	Lines          []PurchaseLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// PurchaseLineRequest represents one delivered batch in the request.
type PurchaseLineRequest struct {
	ProductID   string      `json:"productId" binding:"required"`
	BatchNumber string      `json:"batchNumber,omitempty"`
	Quantity    int64       `json:"quantity" binding:"required,gt=0"`
	UnitPrice   types.Money `json:"unitPrice" binding:"required"`
	ExpiryDate  time.Time   `json:"expiryDate" binding:"required"`
}

// ToEntity converts request to domain entity.
func (r *CreatePurchaseRequest) ToEntity(actor string) *purchase.Transaction {
	manufacturerID, _ := id.Parse(r.ManufacturerID)

	doc := &purchase.Transaction{
		ID:             id.New(),
		InvoiceNumber:  r.InvoiceNumber,
		ManufacturerID: manufacturerID,
		PurchaseDate:   r.PurchaseDate,
		Remarks:        r.Remarks,
		CreatedBy:      actor,
	}
	for _, line := range r.Lines {
		productID, _ := id.Parse(line.ProductID)
		doc.AddLine(productID, line.BatchNumber, line.Quantity, line.UnitPrice, line.ExpiryDate)
	}
	return doc
}
