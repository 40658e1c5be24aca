// Package intake turns scanned document payloads into ledger transactions.
// Payloads identify parties and products by name; every name is resolved
// against the catalog before the ledger is touched, so a malformed payload
// never leaves partial state behind.
package intake

import (
	"context"
	"strings"
	"time"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/catalog"
	"pharmaledger/internal/domain/purchase"
	"pharmaledger/internal/domain/sale"
	"pharmaledger/internal/domain/stock"
)

// DateLayout is the date format scanned documents carry.
const DateLayout = "2006-01-02"

// PurchaseLine is one scanned delivery line.
type PurchaseLine struct {
	ProductName string `json:"productName"`
	BatchNumber string `json:"batchNumber,omitempty"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	ExpiryDate  string `json:"expiryDate"`
}

// PurchasePayload is a scanned supplier invoice.
type PurchasePayload struct {
	InvoiceNumber    string         `json:"invoiceNumber"`
	ManufacturerName string         `json:"manufacturerName"`
	PurchaseDate     string         `json:"purchaseDate"`
	Remarks          string         `json:"remarks,omitempty"`
	Lines            []PurchaseLine `json:"lines"`
}

// SaleLine is one scanned receipt line. Lots are not named on paper;
// the service allocates them by earliest expiry.
type SaleLine struct {
	ProductName string `json:"productName"`
	Quantity    int64  `json:"quantity"`
}

// SalePayload is a scanned sales receipt.
type SalePayload struct {
	TransactionNumber string     `json:"transactionNumber,omitempty"`
	CustomerName      string     `json:"customerName,omitempty"`
	TransactionDate   string     `json:"transactionDate"`
	Discount          string     `json:"discount,omitempty"`
	CashReceived      string     `json:"cashReceived"`
	PaymentMethod     string     `json:"paymentMethod"`
	Remarks           string     `json:"remarks,omitempty"`
	Lines             []SaleLine `json:"lines"`
}

// ManufacturerDirectory resolves manufacturer names.
type ManufacturerDirectory interface {
	GetByName(ctx context.Context, name string) (*catalog.Manufacturer, error)
}

// ProductDirectory resolves product names within a manufacturer, or
// globally when the manufacturer is unknown (sales receipts carry none).
type ProductDirectory interface {
	GetByName(ctx context.Context, name string, manufacturerID id.ID) (*catalog.Product, error)
}

// CustomerDirectory finds an existing customer by name.
type CustomerDirectory interface {
	FindByName(ctx context.Context, name string) (*catalog.Customer, error)
}

// LotLister exposes the lots of a product, earliest expiry first.
type LotLister interface {
	ListByProduct(ctx context.Context, productID id.ID) ([]stock.Lot, error)
}

// PurchaseRecorder records a purchase transaction.
type PurchaseRecorder interface {
	Record(ctx context.Context, t *purchase.Transaction) error
}

// SaleRecorder records a sale transaction.
type SaleRecorder interface {
	Record(ctx context.Context, t *sale.Transaction) error
}

// Service resolves scanned payloads and feeds them to the processors.
type Service struct {
	manufacturers ManufacturerDirectory
	products      ProductDirectory
	customers     CustomerDirectory
	lots          LotLister
	purchases     PurchaseRecorder
	sales         SaleRecorder
}

// NewService creates an intake service.
func NewService(
	manufacturers ManufacturerDirectory,
	products ProductDirectory,
	customers CustomerDirectory,
	lots LotLister,
	purchases PurchaseRecorder,
	sales SaleRecorder,
) *Service {
	return &Service{
		manufacturers: manufacturers,
		products:      products,
		customers:     customers,
		lots:          lots,
		purchases:     purchases,
		sales:         sales,
	}
}

// IngestPurchase resolves a scanned invoice and records it. The returned
// transaction carries the persisted IDs and totals.
func (s *Service) IngestPurchase(ctx context.Context, payload PurchasePayload, actor string) (*purchase.Transaction, error) {
	if strings.TrimSpace(payload.InvoiceNumber) == "" {
		return nil, apperror.NewValidation("invoice number is required").
			WithDetail("field", "invoiceNumber")
	}
	if strings.TrimSpace(payload.ManufacturerName) == "" {
		return nil, apperror.NewValidation("manufacturer name is required").
			WithDetail("field", "manufacturerName")
	}
	purchaseDate, dateErr := parseDate(payload.PurchaseDate, "purchaseDate")
	if dateErr != nil {
		return nil, dateErr
	}
	if len(payload.Lines) == 0 {
		return nil, apperror.NewValidation("payload must contain at least one line")
	}

	manufacturer, err := s.manufacturers.GetByName(ctx, payload.ManufacturerName)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewValidation("unknown manufacturer").
				WithDetail("manufacturerName", payload.ManufacturerName)
		}
		return nil, err
	}

	doc := &purchase.Transaction{
		ID:             id.New(),
		InvoiceNumber:  payload.InvoiceNumber,
		ManufacturerID: manufacturer.ID,
		PurchaseDate:   purchaseDate,
		Remarks:        payload.Remarks,
		CreatedBy:      actor,
	}

	for i, line := range payload.Lines {
		product, err := s.resolveProduct(ctx, line.ProductName, manufacturer.ID, i)
		if err != nil {
			return nil, err
		}
		unitPrice, err := parseMoney(line.UnitPrice, "unitPrice", i)
		if err != nil {
			return nil, err
		}
		expiry, dateErr := parseDate(line.ExpiryDate, "expiryDate")
		if dateErr != nil {
			return nil, dateErr.WithDetail("line", i)
		}
		doc.AddLine(product.ID, line.BatchNumber, line.Quantity, unitPrice, expiry)
	}

	if err := s.purchases.Record(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// IngestSale resolves a scanned receipt, allocates lots earliest expiry
// first, and records the sale.
func (s *Service) IngestSale(ctx context.Context, payload SalePayload, actor string) (*sale.Transaction, error) {
	txDate, dateErr := parseDate(payload.TransactionDate, "transactionDate")
	if dateErr != nil {
		return nil, dateErr
	}
	if len(payload.Lines) == 0 {
		return nil, apperror.NewValidation("payload must contain at least one line")
	}

	discount := types.Zero()
	if payload.Discount != "" {
		parsed, err := parseMoney(payload.Discount, "discount", -1)
		if err != nil {
			return nil, err
		}
		discount = parsed
	}
	cashReceived, err := parseMoney(payload.CashReceived, "cashReceived", -1)
	if err != nil {
		return nil, err
	}

	doc := &sale.Transaction{
		ID:                id.New(),
		TransactionNumber: payload.TransactionNumber,
		TransactionDate:   txDate,
		Discount:          discount,
		CashReceived:      cashReceived,
		PaymentMethod:     sale.PaymentMethod(payload.PaymentMethod),
		Remarks:           payload.Remarks,
		CreatedBy:         actor,
	}

	if payload.CustomerName != "" {
		customer, err := s.customers.FindByName(ctx, payload.CustomerName)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.NewValidation("unknown customer").
					WithDetail("customerName", payload.CustomerName)
			}
			return nil, err
		}
		customerID := customer.ID
		doc.CustomerID = &customerID
	}

	for i, line := range payload.Lines {
		product, err := s.resolveProduct(ctx, line.ProductName, id.Nil(), i)
		if err != nil {
			return nil, err
		}
		if line.Quantity <= 0 {
			return nil, apperror.NewValidation("line quantity must be positive").
				WithDetail("line", i)
		}
		if err := s.allocateLots(ctx, doc, product, line.Quantity, txDate); err != nil {
			return nil, err
		}
	}

	if err := s.sales.Record(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Service) resolveProduct(ctx context.Context, name string, manufacturerID id.ID, lineNo int) (*catalog.Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperror.NewValidation("line product name is required").
			WithDetail("line", lineNo)
	}
	product, err := s.products.GetByName(ctx, name, manufacturerID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewValidation("unknown product").
				WithDetail("productName", name).
				WithDetail("line", lineNo)
		}
		return nil, err
	}
	return product, nil
}

// allocateLots spreads the requested quantity over the product's lots,
// earliest expiry first, skipping lots already expired on the sale date.
// The allocation is advisory: the sale processor re-checks every lot
// under its row lock.
func (s *Service) allocateLots(ctx context.Context, doc *sale.Transaction, product *catalog.Product, quantity int64, txDate time.Time) error {
	lots, err := s.lots.ListByProduct(ctx, product.ID)
	if err != nil {
		return err
	}

	remaining := quantity
	var available int64
	for i := range lots {
		lot := &lots[i]
		if lot.Quantity <= 0 || lot.ExpiryDate.Before(txDate) {
			continue
		}
		available += lot.Quantity
		if remaining <= 0 {
			continue
		}
		take := remaining
		if take > lot.Quantity {
			take = lot.Quantity
		}
		doc.AddLine(lot.ID, take)
		remaining -= take
	}

	if remaining > 0 {
		return apperror.NewInsufficientStock(product.Name, quantity, available)
	}
	return nil
}

func parseDate(value, field string) (time.Time, *apperror.AppError) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, apperror.NewValidation(field + " is required").
			WithDetail("field", field)
	}
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, apperror.NewValidation("invalid date, expected YYYY-MM-DD").
			WithDetail("field", field).
			WithDetail("value", value)
	}
	return parsed, nil
}

func parseMoney(value, field string, lineNo int) (types.Money, error) {
	parsed, err := types.NewMoneyFromString(value)
	if err != nil {
		appErr := apperror.NewValidation("invalid amount").
			WithDetail("field", field).
			WithDetail("value", value)
		if lineNo >= 0 {
			appErr = appErr.WithDetail("line", lineNo)
		}
		return types.Zero(), appErr
	}
	return parsed, nil
}
