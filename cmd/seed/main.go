// Package main seeds a development database with demo catalog data and a
// few ledger transactions. Intended for local environments only.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"pharmaledger/internal/config"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/catalog"
	"pharmaledger/internal/domain/discount"
	"pharmaledger/internal/domain/purchase"
	"pharmaledger/internal/domain/sale"
	"pharmaledger/internal/domain/stock"
	"pharmaledger/internal/infrastructure/storage/postgres"
	"pharmaledger/internal/infrastructure/storage/postgres/catalog_repo"
	"pharmaledger/internal/infrastructure/storage/postgres/discount_repo"
	"pharmaledger/internal/infrastructure/storage/postgres/document_repo"
	"pharmaledger/internal/infrastructure/storage/postgres/stock_repo"
	"pharmaledger/pkg/logger"
	"pharmaledger/pkg/numerator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("connect", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	manufacturerRepo := catalog_repo.NewManufacturerRepo(txManager)
	categoryRepo := catalog_repo.NewCategoryRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	customerRepo := catalog_repo.NewCustomerRepo(txManager)
	stockRepo := stock_repo.NewStockRepo(txManager)
	discountRepo := discount_repo.NewDiscountRepo(txManager)
	purchaseRepo := document_repo.NewPurchaseRepo(txManager)
	saleRepo := document_repo.NewSaleRepo(txManager)

	stockService := stock.NewService(stockRepo, txManager)
	discountEngine := discount.NewEngine(discountRepo)
	purchaseService := purchase.NewService(
		purchaseRepo, stockService, productRepo, manufacturerRepo, txManager, nil)
	saleService := sale.NewService(
		saleRepo, stockRepo, productRepo, discountEngine, txManager, nil, numerator.New(pool))

	if err := seed(ctx, seedDeps{
		manufacturers: manufacturerRepo,
		categories:    categoryRepo,
		products:      productRepo,
		customers:     customerRepo,
		discounts:     discountRepo,
		txManager:     txManager,
		purchases:     purchaseService,
		sales:         saleService,
		stock:         stockRepo,
	}); err != nil {
		log.Fatalw("seed failed", "error", err)
	}
	log.Info("seed complete")
}

type seedDeps struct {
	manufacturers catalog.ManufacturerRepository
	categories    catalog.Repository[*catalog.Category]
	products      catalog.ProductRepository
	customers     catalog.Repository[*catalog.Customer]
	discounts     discount.Repository
	txManager     *postgres.TxManager
	purchases     *purchase.Service
	sales         *sale.Service
	stock         stock.Repository
}

func seed(ctx context.Context, deps seedDeps) error {
	acme := &catalog.Manufacturer{
		ID:   id.New(),
		Name: "Acme Pharma",
	}
	if err := deps.manufacturers.Create(ctx, acme); err != nil {
		return fmt.Errorf("manufacturer: %w", err)
	}

	painkillers := &catalog.Category{
		ID:                id.New(),
		Name:              "Painkillers",
		LowStockThreshold: 20,
	}
	if err := deps.categories.Create(ctx, painkillers); err != nil {
		return fmt.Errorf("category: %w", err)
	}

	paracetamol := &catalog.Product{
		ID:             id.New(),
		Name:           "Paracetamol 500mg",
		CategoryID:     painkillers.ID,
		ManufacturerID: acme.ID,
		SalePrice:      types.MustMoney("2.00"),
	}
	ibuprofen := &catalog.Product{
		ID:             id.New(),
		Name:           "Ibuprofen 400mg",
		CategoryID:     painkillers.ID,
		ManufacturerID: acme.ID,
		SalePrice:      types.MustMoney("5.50"),
	}
	for _, p := range []*catalog.Product{paracetamol, ibuprofen} {
		if err := deps.products.Create(ctx, p); err != nil {
			return fmt.Errorf("product %s: %w", p.Name, err)
		}
	}

	walkIn := &catalog.Customer{
		ID:       id.New(),
		FullName: "Jordan Smith",
	}
	if err := deps.customers.Create(ctx, walkIn); err != nil {
		return fmt.Errorf("customer: %w", err)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)

	campaign := &discount.Discount{
		ID:         id.New(),
		Name:       "Spring promotion",
		Percentage: types.MustMoney("10"),
		FromDate:   today,
		ToDate:     today.AddDate(0, 1, 0),
		ProductIDs: []id.ID{ibuprofen.ID},
	}
	if err := deps.discounts.Create(ctx, campaign); err != nil {
		return fmt.Errorf("discount: %w", err)
	}

	delivery := &purchase.Transaction{
		ID:             id.New(),
		InvoiceNumber:  "SEED-0001",
		ManufacturerID: acme.ID,
		PurchaseDate:   today,
		CreatedBy:      "seed",
	}
	expiry := today.AddDate(1, 0, 0)
	delivery.AddLine(paracetamol.ID, "B-100", 100, types.MustMoney("1.10"), expiry)
	delivery.AddLine(ibuprofen.ID, "B-101", 60, types.MustMoney("3.20"), expiry)
	if err := deps.purchases.Record(ctx, delivery); err != nil {
		return fmt.Errorf("purchase: %w", err)
	}

	paracetamolLot, err := deps.stock.FindByProductExpiry(ctx, paracetamol.ID, expiry)
	if err != nil {
		return fmt.Errorf("find lot: %w", err)
	}

	customerID := walkIn.ID
	receipt := &sale.Transaction{
		ID:              id.New(),
		CustomerID:      &customerID,
		TransactionDate: today,
		CashReceived:    types.MustMoney("10.00"),
		PaymentMethod:   sale.PaymentCash,
		CreatedBy:       "seed",
	}
	receipt.AddLine(paracetamolLot.ID, 3)
	if err := deps.sales.Record(ctx, receipt); err != nil {
		return fmt.Errorf("sale: %w", err)
	}

	return nil
}
