// Package main is the entry point for the pharmaledger API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pharmaledger/internal/config"
	"pharmaledger/internal/domain/audit"
	"pharmaledger/internal/domain/catalog"
	"pharmaledger/internal/domain/discount"
	"pharmaledger/internal/domain/intake"
	"pharmaledger/internal/domain/purchase"
	"pharmaledger/internal/domain/reports"
	"pharmaledger/internal/domain/sale"
	"pharmaledger/internal/domain/stock"
	"pharmaledger/internal/infrastructure/cache"
	v1 "pharmaledger/internal/infrastructure/http/v1"
	"pharmaledger/internal/infrastructure/storage/postgres"
	"pharmaledger/internal/infrastructure/storage/postgres/catalog_repo"
	"pharmaledger/internal/infrastructure/storage/postgres/discount_repo"
	"pharmaledger/internal/infrastructure/storage/postgres/document_repo"
	"pharmaledger/internal/infrastructure/storage/postgres/report_repo"
	"pharmaledger/internal/infrastructure/storage/postgres/stock_repo"
	"pharmaledger/pkg/logger"
	"pharmaledger/pkg/numerator"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	ctx := context.Background()
	log.Info("starting pharmaledger server")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	manufacturerRepo := catalog_repo.NewManufacturerRepo(txManager)
	categoryRepo := catalog_repo.NewCategoryRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	customerRepo := catalog_repo.NewCustomerRepo(txManager)
	stockRepo := stock_repo.NewStockRepo(txManager)
	discountRepo := discount_repo.NewDiscountRepo(txManager)
	purchaseRepo := document_repo.NewPurchaseRepo(txManager)
	saleRepo := document_repo.NewSaleRepo(txManager)
	reportRepo := report_repo.NewReportRepo(txManager)

	// --- Audit ---
	auditStore, err := postgres.NewAuditStore(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit store", "error", err)
	}
	auditRecorder := audit.NewRecorder(auditStore)

	// --- Summary cache ---
	var summaryCache reports.Cache
	var redisClient *redis.Client
	if cfg.CacheEnabled() {
		redisCache := cache.NewRedisSummaryCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err := redisCache.Ping(ctx); err != nil {
			log.Warnw("redis unreachable, summaries will not be cached", "error", err)
		}
		defer redisCache.Close()
		summaryCache = redisCache
		redisClient = redisCache.Client()
		log.Infow("summary cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	} else {
		summaryCache = &cache.NoopSummaryCache{}
	}

	// --- Services ---
	manufacturerService := catalog.NewService[*catalog.Manufacturer](manufacturerRepo, txManager, "manufacturer")
	categoryService := catalog.NewService[*catalog.Category](categoryRepo, txManager, "category")
	productService := catalog.NewService[*catalog.Product](productRepo, txManager, "product")
	customerService := catalog.NewService[*catalog.Customer](customerRepo, txManager, "customer")

	stockService := stock.NewService(stockRepo, txManager)
	discountEngine := discount.NewEngine(discountRepo)
	discountService := discount.NewService(discountRepo, txManager)

	numbers := numerator.New(pool)

	purchaseService := purchase.NewService(
		purchaseRepo, stockService, productRepo, manufacturerRepo, txManager, auditRecorder)
	saleService := sale.NewService(
		saleRepo, stockRepo, productRepo, discountEngine, txManager, auditRecorder, numbers)
	reportService := reports.NewService(reportRepo, summaryCache)
	intakeService := intake.NewService(
		manufacturerRepo, productRepo, customerRepo, stockRepo, purchaseService, saleService)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:          log,
		Pool:            pool,
		Redis:           redisClient,
		Manufacturers:   manufacturerService,
		Categories:      categoryService,
		Products:        productService,
		Customers:       customerService,
		Stock:           stockService,
		DiscountService: discountService,
		DiscountEngine:  discountEngine,
		Purchases:       purchaseService,
		Sales:           saleService,
		Reports:         reportService,
		Intake:          intakeService,
		Audit:           auditRecorder,
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
