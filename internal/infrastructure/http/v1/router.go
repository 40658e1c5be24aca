// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"pharmaledger/internal/domain/audit"
	"pharmaledger/internal/domain/catalog"
	"pharmaledger/internal/domain/discount"
	"pharmaledger/internal/domain/intake"
	"pharmaledger/internal/domain/purchase"
	"pharmaledger/internal/domain/reports"
	"pharmaledger/internal/domain/sale"
	"pharmaledger/internal/domain/stock"
	"pharmaledger/internal/infrastructure/http/v1/handlers"
	"pharmaledger/internal/infrastructure/http/v1/middleware"
	"pharmaledger/internal/infrastructure/storage/postgres"
	"pharmaledger/pkg/logger"
)

// RouterConfig holds the wired services the API serves.
type RouterConfig struct {
	Logger *logger.Logger

	// Pool backs the health endpoints; Redis may be nil.
	Pool  *postgres.Pool
	Redis *redis.Client

	Manufacturers *catalog.Service[*catalog.Manufacturer]
	Categories    *catalog.Service[*catalog.Category]
	Products      *catalog.Service[*catalog.Product]
	Customers     *catalog.Service[*catalog.Customer]

	Stock           *stock.Service
	DiscountService *discount.Service
	DiscountEngine  *discount.Engine
	Purchases       *purchase.Service
	Sales           *sale.Service
	Reports         *reports.Service
	Intake          *intake.Service
	Audit           *audit.Recorder
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Redis)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()

	api := router.Group("/api/v1")
	{
		registerCatalogRoutes(api, base, cfg)
		registerLedgerRoutes(api, base, cfg)
		registerReadRoutes(api, base, cfg)
	}

	return router
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	type crud interface {
		Create(*gin.Context)
		Get(*gin.Context)
		Update(*gin.Context)
		Delete(*gin.Context)
		List(*gin.Context)
	}

	mount := func(path string, h crud) {
		g := rg.Group(path)
		g.POST("", h.Create)
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
	}

	mount("/manufacturers", handlers.NewManufacturerHandler(base, cfg.Manufacturers))
	mount("/categories", handlers.NewCategoryHandler(base, cfg.Categories))
	mount("/products", handlers.NewProductHandler(base, cfg.Products))
	mount("/customers", handlers.NewCustomerHandler(base, cfg.Customers))
}

func registerLedgerRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	purchaseHandler := handlers.NewPurchaseHandler(base, cfg.Purchases)
	saleHandler := handlers.NewSaleHandler(base, cfg.Sales)
	intakeHandler := handlers.NewIntakeHandler(base, cfg.Intake)

	purchases := rg.Group("/purchases")
	{
		purchases.POST("", purchaseHandler.Create)
		purchases.POST("/scan", intakeHandler.ScanPurchase)
		purchases.GET("", purchaseHandler.List)
		purchases.GET("/:id", purchaseHandler.Get)
		// DELETE reverses the transaction and drains its lots.
		purchases.DELETE("/:id", purchaseHandler.Delete)
	}

	sales := rg.Group("/sales")
	{
		sales.POST("", saleHandler.Create)
		sales.POST("/scan", intakeHandler.ScanSale)
		sales.GET("", saleHandler.List)
		sales.GET("/:id", saleHandler.Get)
		// DELETE reverses the transaction and restores its lots.
		sales.DELETE("/:id", saleHandler.Delete)
	}

	discountHandler := handlers.NewDiscountHandler(base, cfg.DiscountService, cfg.DiscountEngine)
	discounts := rg.Group("/discounts")
	{
		discounts.POST("", discountHandler.Create)
		discounts.GET("", discountHandler.List)
		discounts.GET("/:id", discountHandler.Get)
		discounts.PUT("/:id", discountHandler.Update)
		discounts.DELETE("/:id", discountHandler.Delete)
	}
	// Active campaigns for one product, as pricing would apply them.
	rg.GET("/products/:id/discounts", discountHandler.ActiveForProduct)
}

func registerReadRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	stockHandler := handlers.NewStockHandler(base, cfg.Stock)
	stocks := rg.Group("/stock")
	{
		stocks.GET("", stockHandler.List)
		stocks.GET("/low", stockHandler.LowStock)
		stocks.GET("/:id", stockHandler.Get)
	}

	reportHandler := handlers.NewReportHandler(base, cfg.Reports)
	rg.GET("/reports/financial-summary", reportHandler.FinancialSummary)

	auditHandler := handlers.NewAuditHandler(base, cfg.Audit)
	rg.GET("/audit", auditHandler.List)
}
