package stock

import (
	"context"
	"time"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/tx"
	"pharmaledger/pkg/logger"
)

// Service exposes lot-level stock operations. Document processors call
// Receive and Issue while holding their own transaction; the service joins
// the ambient transaction through the tx manager.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Receive adds quantity to the lot identified by (productID, expiry),
// creating the lot when it does not exist yet. The lot row is locked for
// the duration of the surrounding transaction.
func (s *Service) Receive(ctx context.Context, productID id.ID, expiry time.Time, quantity int64) (*Lot, error) {
	if quantity <= 0 {
		return nil, apperror.NewValidation("quantity must be positive")
	}

	var result *Lot
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		lot, err := s.repo.FindByProductExpiryForUpdate(ctx, productID, expiry)
		switch {
		case err == nil:
			if err := s.repo.AddQuantity(ctx, lot.ID, quantity); err != nil {
				return err
			}
			lot.Quantity += quantity
			result = lot
			return nil
		case apperror.IsNotFound(err):
			lot = &Lot{
				ID:         id.New(),
				ProductID:  productID,
				ExpiryDate: expiry,
				Quantity:   quantity,
			}
			if err := s.repo.Create(ctx, lot); err != nil {
				return err
			}
			result = lot
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Issue removes quantity from a lot. It locks the lot row, re-reads the
// quantity under the lock and fails with an insufficient stock error when
// the lot cannot cover the request. productName is only used to build the
// error message.
func (s *Service) Issue(ctx context.Context, lotID id.ID, quantity int64, productName string) error {
	if quantity <= 0 {
		return apperror.NewValidation("quantity must be positive")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		lot, err := s.repo.GetByIDForUpdate(ctx, lotID)
		if err != nil {
			return err
		}
		if lot.Quantity < quantity {
			logger.Warn(ctx, "stock issue rejected",
				"lot_id", lotID, "requested", quantity, "available", lot.Quantity)
			return apperror.NewInsufficientStock(productName, quantity, lot.Quantity)
		}
		return s.repo.AddQuantity(ctx, lot.ID, -quantity)
	})
}

// Drain removes quantity from the lot identified by (productID, expiry).
// Returns a not found error when no such lot exists and an insufficient
// stock error when the lot cannot cover the quantity. Used by purchase
// reversal, which takes previously received stock back out.
func (s *Service) Drain(ctx context.Context, productID id.ID, expiry time.Time, quantity int64, productName string) error {
	if quantity <= 0 {
		return apperror.NewValidation("quantity must be positive")
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		lot, err := s.repo.FindByProductExpiryForUpdate(ctx, productID, expiry)
		if err != nil {
			return err
		}
		if lot.Quantity < quantity {
			return apperror.NewInsufficientStock(productName, quantity, lot.Quantity)
		}
		return s.repo.AddQuantity(ctx, lot.ID, -quantity)
	})
}

// Return puts quantity back on a lot after a sale reversal.
func (s *Service) Return(ctx context.Context, lotID id.ID, quantity int64) error {
	if quantity <= 0 {
		return apperror.NewValidation("quantity must be positive")
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByIDForUpdate(ctx, lotID); err != nil {
			return err
		}
		return s.repo.AddQuantity(ctx, lotID, quantity)
	})
}

// GetLot fetches a single lot by id.
func (s *Service) GetLot(ctx context.Context, lotID id.ID) (*Lot, error) {
	return s.repo.GetByID(ctx, lotID)
}

// List returns lot views for the inventory surface.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]LotView, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListFilter().Limit
	}
	return s.repo.List(ctx, filter)
}

// LowStock reports products below their category threshold.
func (s *Service) LowStock(ctx context.Context) ([]LowStockItem, error) {
	return s.repo.LowStock(ctx)
}

// TotalQuantity sums a product's quantity across lots.
func (s *Service) TotalQuantity(ctx context.Context, productID id.ID) (int64, error) {
	return s.repo.TotalQuantity(ctx, productID)
}
