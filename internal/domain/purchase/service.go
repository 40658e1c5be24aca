package purchase

import (
	"context"
	"fmt"
	"time"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/tx"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/audit"
	"pharmaledger/internal/domain/catalog"
	"pharmaledger/internal/domain/stock"
	"pharmaledger/pkg/logger"
)

// Inventory is the slice of the stock service the purchase path uses.
type Inventory interface {
	Receive(ctx context.Context, productID id.ID, expiry time.Time, quantity int64) (*stock.Lot, error)
	Drain(ctx context.Context, productID id.ID, expiry time.Time, quantity int64, productName string) error
}

// Service records and reverses purchase transactions.
type Service struct {
	repo          Repository
	inventory     Inventory
	products      catalog.ProductRepository
	manufacturers catalog.ManufacturerRepository
	txManager     tx.Manager
	audit         *audit.Recorder
}

func NewService(
	repo Repository,
	inventory Inventory,
	products catalog.ProductRepository,
	manufacturers catalog.ManufacturerRepository,
	txManager tx.Manager,
	auditRecorder *audit.Recorder,
) *Service {
	return &Service{
		repo:          repo,
		inventory:     inventory,
		products:      products,
		manufacturers: manufacturers,
		txManager:     txManager,
		audit:         auditRecorder,
	}
}

// Record validates the document and posts it in one transaction: header
// first with a zero total, then all lines, then one lot upsert per line,
// then the accumulated total. Any failure rolls the whole document back.
func (s *Service) Record(ctx context.Context, t *Transaction) error {
	if err := t.Validate(ctx); err != nil {
		return err
	}

	exists, err := s.repo.ExistsByInvoiceNumber(ctx, t.InvoiceNumber)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("purchase transaction", "invoiceNumber", t.InvoiceNumber)
	}

	if ok, err := s.manufacturers.Exists(ctx, t.ManufacturerID); err != nil {
		return err
	} else if !ok {
		return apperror.NewValidation("unknown manufacturer").
			WithDetail("manufacturerId", t.ManufacturerID)
	}

	productNames, err := s.resolveProductNames(ctx, t.Lines)
	if err != nil {
		return err
	}

	if id.IsNil(t.ID) {
		t.ID = id.New()
	}
	for i := range t.Lines {
		line := &t.Lines[i]
		if id.IsNil(line.ID) {
			line.ID = id.New()
		}
		line.TransactionID = t.ID
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t.TotalCost = types.Zero()
		if err := s.repo.Create(ctx, t); err != nil {
			return err
		}
		if err := s.repo.InsertLines(ctx, t.Lines); err != nil {
			return err
		}
		for i := range t.Lines {
			line := &t.Lines[i]
			if _, err := s.inventory.Receive(ctx, line.ProductID, line.ExpiryDate, line.Quantity); err != nil {
				return err
			}
		}
		total := t.ComputeTotal()
		if err := s.repo.UpdateTotalCost(ctx, t.ID, total); err != nil {
			return err
		}
		t.TotalCost = total
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase recorded",
		"transaction_id", t.ID,
		"invoice_number", t.InvoiceNumber,
		"lines", len(t.Lines),
		"total_cost", t.TotalCost,
	)
	s.audit.Record(ctx, t.CreatedBy, audit.ActionRecordPurchase, t.ID, map[string]any{
		"invoiceNumber": t.InvoiceNumber,
		"totalCost":     t.TotalCost,
		"lineCount":     len(t.Lines),
		"products":      productNames,
	})
	return nil
}

// Reverse undoes a recorded purchase: each line's quantity is taken back
// out of its (product, expiry) lot, then the document is deleted. When any
// lot no longer holds the delivered quantity the reversal fails with a
// conflict and nothing changes.
func (s *Service) Reverse(ctx context.Context, txID id.ID, actor string) error {
	var reversed *Transaction
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.repo.GetByID(ctx, txID)
		if err != nil {
			return err
		}
		for i := range t.Lines {
			line := &t.Lines[i]
			name := s.productName(ctx, line.ProductID)
			err := s.inventory.Drain(ctx, line.ProductID, line.ExpiryDate, line.Quantity, name)
			switch {
			case err == nil:
			case apperror.IsNotFound(err), apperror.IsInsufficientStock(err):
				return apperror.NewConflict(fmt.Sprintf(
					"cannot reverse purchase %s: stock of %s already consumed",
					t.InvoiceNumber, name)).
					WithDetail("productId", line.ProductID)
			default:
				return err
			}
		}
		if err := s.repo.Delete(ctx, t.ID); err != nil {
			return err
		}
		reversed = t
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase reversed",
		"transaction_id", txID,
		"invoice_number", reversed.InvoiceNumber,
	)
	s.audit.Record(ctx, actor, audit.ActionReversePurchase, txID, map[string]any{
		"invoiceNumber": reversed.InvoiceNumber,
		"lineCount":     len(reversed.Lines),
	})
	return nil
}

// GetByID loads one transaction with its lines.
func (s *Service) GetByID(ctx context.Context, txID id.ID) (*Transaction, error) {
	return s.repo.GetByID(ctx, txID)
}

// List returns transaction headers matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Transaction, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) resolveProductNames(ctx context.Context, lines []Line) (map[string]string, error) {
	names := make(map[string]string, len(lines))
	for i := range lines {
		productID := lines[i].ProductID
		if _, ok := names[productID.String()]; ok {
			continue
		}
		product, err := s.products.GetByID(ctx, productID)
		switch {
		case err == nil:
			names[productID.String()] = product.Name
		case apperror.IsNotFound(err):
			return nil, apperror.NewValidation("unknown product").
				WithDetail("productId", productID)
		default:
			return nil, err
		}
	}
	return names, nil
}

func (s *Service) productName(ctx context.Context, productID id.ID) string {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return productID.String()
	}
	return product.Name
}
