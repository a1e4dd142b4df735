package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"

	"stockpilot/internal/analytics"
	"stockpilot/internal/caching"
	"stockpilot/internal/config"
	"stockpilot/internal/handlers"
	"stockpilot/internal/jobs"
	"stockpilot/internal/jobs/background"
	"stockpilot/internal/middleware"
	"stockpilot/internal/replenishment"
	"stockpilot/internal/repositories"
	"stockpilot/internal/services"
	"stockpilot/pkg/database"
)

const version = "1.0.0"

const shutdownTimeout = 10 * time.Second

// @title stockpilot API
// @version 1.0
// @description Inventory tracking and reorder suggestions for retail points of sale.
// @BasePath /v1
func main() {
	// .env is optional; deployments configure through the environment.
	_ = godotenv.Load()

	cfg := config.Load()
	log := newLogger(cfg)

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer pool.Close()
	log.Info("Database connected")

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" && cfg.JWKSURL == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Warn("JWT_SECRET not set, using a generated secret; tokens will not survive a restart")
	}

	cache := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)

	minioService, err := services.NewMinioService(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to object storage")
	}
	if err := minioService.EnsureBucketExists(context.Background(), cfg.MinioBucket); err != nil {
		log.WithError(err).Fatal("Failed to prepare image bucket")
	}

	// Repositories
	categoryRepo := repositories.NewCategoryRepository(pool)
	productRepo := repositories.NewProductRepository(pool)
	supplierRepo := repositories.NewSupplierRepository(pool)
	salesRepo := repositories.NewSalesRepository(pool)
	orderRepo := repositories.NewPurchaseOrderRepository(pool)
	imageRepo := repositories.NewProductImageRepo(pool)
	notificationRepo := repositories.NewNotificationRepository(pool)
	tenantRepo := repositories.NewTenantRepository(pool)
	auditRepo := repositories.NewAuditLogRepository(pool)

	// Replenishment engine
	engineCfg := replenishment.Config{
		AnalysisPeriodDays:  cfg.Engine.AnalysisPeriodDays,
		SafetyStockDays:     cfg.Engine.SafetyStockDays,
		ForecastPeriodDays:  cfg.Engine.ForecastPeriodDays,
		MinDataPointsForML:  cfg.Engine.MinDataPointsForML,
		WorkerLimit:         cfg.Engine.WorkerLimit,
		SupplierWorkerLimit: cfg.Engine.SupplierWorkerLimit,
		CollaboratorTimeout: cfg.Engine.CollaboratorTimeout,
	}
	engine := replenishment.NewEngine(productRepo, salesRepo, engineCfg, log)
	batcher := replenishment.NewOrderBatcher(productRepo, orderRepo, engineCfg, log)

	// Services
	productService := services.NewProductService(productRepo, categoryRepo, supplierRepo, imageRepo, minioService, cache, auditRepo, cfg.MinioBucket, log)
	supplierService := services.NewSupplierService(supplierRepo)
	salesService := services.NewSalesService(salesRepo, productRepo, cache, log)
	orderService := services.NewPurchaseOrderService(orderRepo, auditRepo, cache, log)
	reorderService := services.NewReorderService(engine, batcher, cache, auditRepo, cfg.Engine.SuggestionCacheTTL, log)
	notificationService := services.NewNotificationService(notificationRepo)
	dashboardService := analytics.NewDashboardService(salesRepo, productRepo, orderRepo, cache, log)

	// Background jobs
	alertService := jobs.NewReorderAlertService(reorderService, notificationRepo, tenantRepo, log)
	scheduler, err := background.NewJobScheduler(alertService, dashboardService, tenantRepo, cfg.Engine.AlertSweepInterval, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create job scheduler")
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Handlers
	productHandlers := handlers.NewProductHandlers(productService)
	categoryHandlers := handlers.NewCategoryHandlers(categoryRepo)
	supplierHandlers := handlers.NewSupplierHandlers(supplierService)
	salesHandlers := handlers.NewSalesHandlers(salesService)
	orderHandlers := handlers.NewPurchaseOrderHandlers(orderService)
	reorderHandlers := handlers.NewReorderHandlers(reorderService)
	notificationHandlers := handlers.NewNotificationHandlers(notificationService)
	dashboardHandlers := handlers.NewDashboardHandlers(dashboardService)
	healthHandlers := handlers.NewHealthHandlers(pool, cache, minioService, version)

	jwtMiddleware, err := middleware.NewJWTMiddleware(cfg.JWKSURL, jwtSecret, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to configure JWT middleware")
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Pre(echoMiddleware.RemoveTrailingSlash())

	versionMiddleware := middleware.NewVersionMiddleware()
	e.Use(versionMiddleware.APIVersionResolver())

	// Health and docs endpoints stay outside authentication.
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)
	e.GET("/health/detailed", healthHandlers.DetailedHealthCheck)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/v1")
	v1.Use(versionMiddleware.VersionHeader("v1"))
	v1.Use(jwtMiddleware)

	// Products
	v1.POST("/products", productHandlers.CreateProduct)
	v1.GET("/products", productHandlers.ListProducts)
	v1.GET("/products/search", productHandlers.SearchProducts)
	v1.GET("/products/barcode/:barcode", productHandlers.GetProductByBarcode)
	v1.GET("/products/:id", productHandlers.GetProductByID)
	v1.PUT("/products/:id", productHandlers.UpdateProduct)
	v1.DELETE("/products/:id", productHandlers.DeleteProduct)
	v1.POST("/products/:id/stock", productHandlers.AdjustStock)
	v1.POST("/products/:id/images", productHandlers.UploadProductImage)
	v1.GET("/products/:id/images", productHandlers.GetProductImages)
	v1.GET("/products/:id/images/:imageId/url", productHandlers.GetProductImageURL)
	v1.DELETE("/products/:id/images/:imageId", productHandlers.DeleteProductImage)

	// Categories
	v1.GET("/categories", categoryHandlers.ListCategories)
	v1.POST("/categories", categoryHandlers.CreateCategory)
	v1.GET("/categories/:id", categoryHandlers.GetCategory)
	v1.PUT("/categories/:id", categoryHandlers.UpdateCategory)
	v1.DELETE("/categories/:id", categoryHandlers.DeleteCategory)

	// Suppliers
	v1.GET("/suppliers", supplierHandlers.ListSuppliers)
	v1.POST("/suppliers", supplierHandlers.CreateSupplier)
	v1.GET("/suppliers/:id", supplierHandlers.GetSupplier)
	v1.PUT("/suppliers/:id", supplierHandlers.UpdateSupplier)
	v1.DELETE("/suppliers/:id", supplierHandlers.DeleteSupplier)

	// Sales
	v1.POST("/sales", salesHandlers.RecordSale)
	v1.GET("/sales", salesHandlers.ListSales)

	// Purchase orders
	v1.GET("/purchase-orders", orderHandlers.ListPurchaseOrders)
	v1.GET("/purchase-orders/:id", orderHandlers.GetPurchaseOrder)
	v1.POST("/purchase-orders/:id/receive", orderHandlers.ReceivePurchaseOrder)
	v1.POST("/purchase-orders/:id/cancel", orderHandlers.CancelPurchaseOrder)

	// Reorder suggestions
	v1.GET("/reorder/suggestions", reorderHandlers.GetSuggestions)
	v1.GET("/reorder/summary", reorderHandlers.GetSummary)
	v1.GET("/reorder/ml-suggestions", reorderHandlers.GetMLSuggestions)
	v1.POST("/reorder/purchase-orders", reorderHandlers.CreatePurchaseOrders)

	// Notifications
	v1.GET("/notifications", notificationHandlers.ListNotifications)
	v1.POST("/notifications/:id/acknowledge", notificationHandlers.AcknowledgeNotification)

	// Dashboard
	v1.GET("/dashboard/metrics", dashboardHandlers.GetMetrics)

	// Serve until interrupted, then drain in-flight requests.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}
