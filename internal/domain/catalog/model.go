// Package catalog provides the reference records the ledger reads:
// products, categories, manufacturers and customers. The ledger never
// mutates a product's price; catalog management owns that.
package catalog

import (
	"context"
	"strings"
	"time"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
)

// Manufacturer is a supplier of products.
type Manufacturer struct {
	ID          id.ID     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Address     string    `db:"address" json:"address,omitempty"`
	PhoneNumber string    `db:"phone_number" json:"phoneNumber,omitempty"`
	Email       string    `db:"email" json:"email,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Validate implements self-validation.
func (m *Manufacturer) Validate(ctx context.Context) error {
	if strings.TrimSpace(m.Name) == "" {
		return apperror.NewValidation("manufacturer name is required").
			WithDetail("field", "name")
	}
	return nil
}

// Category groups products and carries the low-stock alert threshold.
type Category struct {
	ID                   id.ID     `db:"id" json:"id"`
	Name                 string    `db:"name" json:"name"`
	Description          string    `db:"description" json:"description,omitempty"`
	RequiresPrescription bool      `db:"requires_prescription" json:"requiresPrescription"`
	LowStockThreshold    int64     `db:"low_stock_threshold" json:"lowStockThreshold"`
	CreatedAt            time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time `db:"updated_at" json:"updatedAt"`
}

// Validate implements self-validation.
func (c *Category) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("category name is required").
			WithDetail("field", "name")
	}
	if c.LowStockThreshold < 0 {
		return apperror.NewValidation("low stock threshold cannot be negative").
			WithDetail("field", "lowStockThreshold")
	}
	return nil
}

// Product is a catalog item. SalePrice is the undiscounted price the
// discount engine starts from.
type Product struct {
	ID             id.ID       `db:"id" json:"id"`
	Name           string      `db:"name" json:"name"`
	CategoryID     id.ID       `db:"category_id" json:"categoryId"`
	ManufacturerID id.ID       `db:"manufacturer_id" json:"manufacturerId"`
	SalePrice      types.Money `db:"sale_price" json:"salePrice"`
	Description    string      `db:"description" json:"description,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updatedAt"`
}

// Validate implements self-validation.
func (p *Product) Validate(ctx context.Context) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("product name is required").
			WithDetail("field", "name")
	}
	if id.IsNil(p.CategoryID) {
		return apperror.NewValidation("category is required").
			WithDetail("field", "categoryId")
	}
	if id.IsNil(p.ManufacturerID) {
		return apperror.NewValidation("manufacturer is required").
			WithDetail("field", "manufacturerId")
	}
	if p.SalePrice.IsNegative() {
		return apperror.NewValidation("sale price cannot be negative").
			WithDetail("field", "salePrice")
	}
	return nil
}

// Customer is an optional party on sale transactions.
type Customer struct {
	ID          id.ID      `db:"id" json:"id"`
	FullName    string     `db:"full_name" json:"fullName"`
	Birthdate   *time.Time `db:"birthdate" json:"birthdate,omitempty"`
	PhoneNumber string     `db:"phone_number" json:"phoneNumber,omitempty"`
	Email       string     `db:"email" json:"email,omitempty"`
	Address     string     `db:"address" json:"address,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// Validate implements self-validation.
func (c *Customer) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.FullName) == "" {
		return apperror.NewValidation("customer name is required").
			WithDetail("field", "fullName")
	}
	return nil
}
