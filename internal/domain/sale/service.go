package sale

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
	"pharmaledger/pkg/numerator"
)

// LotStore is the slice of the stock repository the sale path uses.
// GetByIDForUpdate must be called inside a transaction and serializes
// concurrent sales touching the same lot.
type LotStore interface {
	GetByID(ctx context.Context, lotID id.ID) (*stock.Lot, error)
	GetByIDForUpdate(ctx context.Context, lotID id.ID) (*stock.Lot, error)
	AddQuantity(ctx context.Context, lotID id.ID, delta int64) error
}

// PriceResolver yields the unit price of a product effective on a date.
type PriceResolver interface {
	EffectivePrice(ctx context.Context, productID id.ID, basePrice types.Money, at time.Time) (types.Money, error)
}

// Service records and reverses sale transactions.
type Service struct {
	repo      Repository
	lots      LotStore
	products  catalog.ProductRepository
	pricing   PriceResolver
	txManager tx.Manager
	audit     *audit.Recorder
	numbers   numerator.Generator
	numberCfg numerator.Config
}

func NewService(
	repo Repository,
	lots LotStore,
	products catalog.ProductRepository,
	pricing PriceResolver,
	txManager tx.Manager,
	auditRecorder *audit.Recorder,
	numbers numerator.Generator,
) *Service {
	return &Service{
		repo:      repo,
		lots:      lots,
		products:  products,
		pricing:   pricing,
		txManager: txManager,
		audit:     auditRecorder,
		numbers:   numbers,
		numberCfg: numerator.DefaultConfig("SALE"),
	}
}

// Record posts a sale in one transaction. Lines are processed in submitted
// order: the lot is locked, its quantity re-read under the lock, the line
// priced through the discount engine at the transaction date, and the lot
// decremented. A short lot aborts the whole document with an insufficient
// stock error naming the product.
func (s *Service) Record(ctx context.Context, t *Transaction) error {
	if err := t.Validate(ctx); err != nil {
		return err
	}

	if t.TransactionNumber == "" {
		number, err := s.numbers.GetNextNumber(ctx, s.numberCfg, t.TransactionDate)
		if err != nil {
			return err
		}
		t.TransactionNumber = number
	} else {
		exists, err := s.repo.ExistsByTransactionNumber(ctx, t.TransactionNumber)
		if err != nil {
			return err
		}
		if exists {
			return apperror.NewDuplicate("sale transaction", "transactionNumber", t.TransactionNumber)
		}
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

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		gross := types.Zero()
		for i := range t.Lines {
			line := &t.Lines[i]

			lot, err := s.lots.GetByIDForUpdate(ctx, line.LotID)
			if err != nil {
				return err
			}
			product, err := s.products.GetByID(ctx, lot.ProductID)
			if err != nil {
				return err
			}
			if lot.Quantity < line.Quantity {
				return apperror.NewInsufficientStock(product.Name, line.Quantity, lot.Quantity)
			}

			price, err := s.pricing.EffectivePrice(ctx, lot.ProductID, product.SalePrice, t.TransactionDate)
			if err != nil {
				return err
			}
			line.SalePrice = price
			gross = gross.Add(price.Mul(types.NewMoneyFromInt(line.Quantity)))

			if err := s.lots.AddQuantity(ctx, lot.ID, -line.Quantity); err != nil {
				return err
			}
		}

		t.GrossPrice = types.RoundCurrency(gross)
		net := t.GrossPrice.Sub(t.Discount)
		if net.IsNegative() {
			net = types.Zero()
		}
		t.NetTotal = types.RoundCurrency(net)

		if err := s.repo.Create(ctx, t); err != nil {
			return err
		}
		return s.repo.InsertLines(ctx, t.Lines)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sale recorded",
		"transaction_id", t.ID,
		"transaction_number", t.TransactionNumber,
		"lines", len(t.Lines),
		"net_total", t.NetTotal,
	)
	s.audit.Record(ctx, t.CreatedBy, audit.ActionRecordSale, t.ID, map[string]any{
		"transactionNumber": t.TransactionNumber,
		"grossPrice":        t.GrossPrice,
		"netTotal":          t.NetTotal,
		"lineCount":         len(t.Lines),
	})
	return nil
}

// Reverse undoes a recorded sale: every line's quantity goes back onto its
// lot and the document is deleted. The reversal is refused with a conflict
// when any referenced product has since left the catalog, because without
// a live catalog entry the document cannot be re-validated.
func (s *Service) Reverse(ctx context.Context, txID id.ID, actor string) error {
	var reversed *Transaction
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.repo.GetByID(ctx, txID)
		if err != nil {
			return err
		}

		for i := range t.Lines {
			lot, err := s.lots.GetByID(ctx, t.Lines[i].LotID)
			if err != nil {
				return err
			}
			ok, err := s.products.Exists(ctx, lot.ProductID)
			if err != nil {
				return err
			}
			if !ok {
				return apperror.NewConflict(fmt.Sprintf(
					"cannot reverse sale %s: a referenced product no longer exists",
					t.TransactionNumber)).
					WithDetail("productId", lot.ProductID)
			}
		}

		for i := range t.Lines {
			line := &t.Lines[i]
			if _, err := s.lots.GetByIDForUpdate(ctx, line.LotID); err != nil {
				return err
			}
			if err := s.lots.AddQuantity(ctx, line.LotID, line.Quantity); err != nil {
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

	logger.Info(ctx, "sale reversed",
		"transaction_id", txID,
		"transaction_number", reversed.TransactionNumber,
	)
	s.audit.Record(ctx, actor, audit.ActionReverseSale, txID, map[string]any{
		"transactionNumber": reversed.TransactionNumber,
		"lineCount":         len(reversed.Lines),
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
