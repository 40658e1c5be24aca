package dto

import (
	"time"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/discount"
)

// CreateDiscountRequest represents a request to create a discount campaign.
type CreateDiscountRequest struct {
	Name       string      `json:"name" binding:"required"`
	Percentage types.Money `json:"percentage" binding:"required"`
	FromDate   time.Time   `json:"fromDate" binding:"required"`
	ToDate     time.Time   `json:"toDate" binding:"required"`
	ProductIDs []string    `json:"productIds" binding:"required,min=1"`
}

// ToEntity converts request to domain entity.
func (r *CreateDiscountRequest) ToEntity() *discount.Discount {
	d := &discount.Discount{
		ID:         id.New(),
		Name:       r.Name,
		Percentage: r.Percentage,
		FromDate:   r.FromDate,
		ToDate:     r.ToDate,
	}
	for _, raw := range r.ProductIDs {
		if productID, err := id.Parse(raw); err == nil {
			d.ProductIDs = append(d.ProductIDs, productID)
		}
	}
	return d
}

// UpdateDiscountRequest represents a partial campaign update.
type UpdateDiscountRequest struct {
	Name       *string      `json:"name,omitempty"`
	Percentage *types.Money `json:"percentage,omitempty"`
	FromDate   *time.Time   `json:"fromDate,omitempty"`
	ToDate     *time.Time   `json:"toDate,omitempty"`
	ProductIDs []string     `json:"productIds,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateDiscountRequest) ApplyTo(d *discount.Discount) {
	if r.Name != nil {
		d.Name = *r.Name
	}
	if r.Percentage != nil {
		d.Percentage = *r.Percentage
	}
	if r.FromDate != nil {
		d.FromDate = *r.FromDate
	}
	if r.ToDate != nil {
		d.ToDate = *r.ToDate
	}
	if r.ProductIDs != nil {
		d.ProductIDs = d.ProductIDs[:0]
		for _, raw := range r.ProductIDs {
			if productID, err := id.Parse(raw); err == nil {
				d.ProductIDs = append(d.ProductIDs, productID)
			}
		}
	}
}
