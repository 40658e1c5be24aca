package dto

import (
	"time"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/catalog"
)

// --- Manufacturer ---

// CreateManufacturerRequest represents a request to create a manufacturer.
type CreateManufacturerRequest struct {
	Name        string `json:"name" binding:"required"`
	Address     string `json:"address,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Email       string `json:"email,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateManufacturerRequest) ToEntity() *catalog.Manufacturer {
	return &catalog.Manufacturer{
		ID:          id.New(),
		Name:        r.Name,
		Address:     r.Address,
		PhoneNumber: r.PhoneNumber,
		Email:       r.Email,
	}
}

// UpdateManufacturerRequest represents a partial manufacturer update.
type UpdateManufacturerRequest struct {
	Name        *string `json:"name,omitempty"`
	Address     *string `json:"address,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
	Email       *string `json:"email,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateManufacturerRequest) ApplyTo(m *catalog.Manufacturer) {
	if r.Name != nil {
		m.Name = *r.Name
	}
	if r.Address != nil {
		m.Address = *r.Address
	}
	if r.PhoneNumber != nil {
		m.PhoneNumber = *r.PhoneNumber
	}
	if r.Email != nil {
		m.Email = *r.Email
	}
}

// --- Category ---

// CreateCategoryRequest represents a request to create a category.
type CreateCategoryRequest struct {
	Name                 string `json:"name" binding:"required"`
	Description          string `json:"description,omitempty"`
	RequiresPrescription bool   `json:"requiresPrescription,omitempty"`
	LowStockThreshold    int64  `json:"lowStockThreshold,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateCategoryRequest) ToEntity() *catalog.Category {
	return &catalog.Category{
		ID:                   id.New(),
		Name:                 r.Name,
		Description:          r.Description,
		RequiresPrescription: r.RequiresPrescription,
		LowStockThreshold:    r.LowStockThreshold,
	}
}

// UpdateCategoryRequest represents a partial category update.
type UpdateCategoryRequest struct {
	Name                 *string `json:"name,omitempty"`
	Description          *string `json:"description,omitempty"`
	RequiresPrescription *bool   `json:"requiresPrescription,omitempty"`
	LowStockThreshold    *int64  `json:"lowStockThreshold,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateCategoryRequest) ApplyTo(c *catalog.Category) {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Description != nil {
		c.Description = *r.Description
	}
	if r.RequiresPrescription != nil {
		c.RequiresPrescription = *r.RequiresPrescription
	}
	if r.LowStockThreshold != nil {
		c.LowStockThreshold = *r.LowStockThreshold
	}
}

// --- Product ---

// CreateProductRequest represents a request to create a product.
type CreateProductRequest struct {
	Name           string      `json:"name" binding:"required"`
	CategoryID     string      `json:"categoryId" binding:"required"`
	ManufacturerID string      `json:"manufacturerId" binding:"required"`
	SalePrice      types.Money `json:"salePrice"`
	Description    string      `json:"description,omitempty"`
}

// ToEntity converts request to domain entity. Invalid IDs come out nil and
// are caught by entity validation.
func (r *CreateProductRequest) ToEntity() *catalog.Product {
	categoryID, _ := id.Parse(r.CategoryID)
	manufacturerID, _ := id.Parse(r.ManufacturerID)

	return &catalog.Product{
		ID:             id.New(),
		Name:           r.Name,
		CategoryID:     categoryID,
		ManufacturerID: manufacturerID,
		SalePrice:      r.SalePrice,
		Description:    r.Description,
	}
}

// UpdateProductRequest represents a partial product update.
type UpdateProductRequest struct {
	Name           *string      `json:"name,omitempty"`
	CategoryID     *string      `json:"categoryId,omitempty"`
	ManufacturerID *string      `json:"manufacturerId,omitempty"`
	SalePrice      *types.Money `json:"salePrice,omitempty"`
	Description    *string      `json:"description,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateProductRequest) ApplyTo(p *catalog.Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.CategoryID != nil {
		if parsed, err := id.Parse(*r.CategoryID); err == nil {
			p.CategoryID = parsed
		}
	}
	if r.ManufacturerID != nil {
		if parsed, err := id.Parse(*r.ManufacturerID); err == nil {
			p.ManufacturerID = parsed
		}
	}
	if r.SalePrice != nil {
		p.SalePrice = *r.SalePrice
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
}

// --- Customer ---

// CreateCustomerRequest represents a request to create a customer.
type CreateCustomerRequest struct {
	FullName    string     `json:"fullName" binding:"required"`
	Birthdate   *time.Time `json:"birthdate,omitempty"`
	PhoneNumber string     `json:"phoneNumber,omitempty"`
	Email       string     `json:"email,omitempty"`
	Address     string     `json:"address,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateCustomerRequest) ToEntity() *catalog.Customer {
	return &catalog.Customer{
		ID:          id.New(),
		FullName:    r.FullName,
		Birthdate:   r.Birthdate,
		PhoneNumber: r.PhoneNumber,
		Email:       r.Email,
		Address:     r.Address,
	}
}

// UpdateCustomerRequest represents a partial customer update.
type UpdateCustomerRequest struct {
	FullName    *string    `json:"fullName,omitempty"`
	Birthdate   *time.Time `json:"birthdate,omitempty"`
	PhoneNumber *string    `json:"phoneNumber,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Address     *string    `json:"address,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateCustomerRequest) ApplyTo(c *catalog.Customer) {
	if r.FullName != nil {
		c.FullName = *r.FullName
	}
	if r.Birthdate != nil {
		c.Birthdate = r.Birthdate
	}
	if r.PhoneNumber != nil {
		c.PhoneNumber = *r.PhoneNumber
	}
	if r.Email != nil {
		c.Email = *r.Email
	}
	if r.Address != nil {
		c.Address = *r.Address
	}
}
