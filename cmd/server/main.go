package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thanhcanhit/trustay-billing-svc/internal/config"
	"github.com/thanhcanhit/trustay-billing-svc/internal/handler"
	"github.com/thanhcanhit/trustay-billing-svc/internal/middleware"
	"github.com/thanhcanhit/trustay-billing-svc/internal/repository"
	"github.com/thanhcanhit/trustay-billing-svc/internal/scheduler"
	"github.com/thanhcanhit/trustay-billing-svc/internal/service"
	"github.com/thanhcanhit/trustay-billing-svc/pkg/logger"
)

// @title Trustay Billing Service API
// @version 1.0
// @description RESTful API for property rental bill management and meter reading reconciliation
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@trustay.vn

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	appLogger.Info("Starting Trustay Billing Service...")

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize backend API client
	client := repository.NewClient(&cfg.Backend, appLogger)

	// Initialize repositories
	billRepo := repository.NewBillRepository(client)
	rentalRepo := repository.NewRentalRepository(client, cfg.Cache.RentalTTL)

	// Initialize services
	billStore := service.NewBillStore(billRepo, appLogger)
	meterService := service.NewMeterService(billStore, appLogger)
	exportService := service.NewExportService(billRepo, appLogger)

	// Initialize handlers
	billHandler := handler.NewBillHandler(billStore, meterService, exportService, appLogger)
	rentalHandler := handler.NewRentalHandler(rentalRepo, appLogger)

	// Initialize Gin router
	router := gin.New()

	// Add middleware
	router.Use(middleware.CORS(&cfg.CORS))
	router.Use(middleware.LoggerMiddleware(appLogger))
	router.Use(middleware.ErrorHandler())
	router.NoRoute(middleware.NoRouteHandler())
	router.NoMethod(middleware.NoMethodHandler())

	// Setup routes
	handler.SetupRoutes(router, billHandler, rentalHandler)

	// Start billing scheduler if enabled
	var billingScheduler *scheduler.BillingScheduler
	if cfg.Scheduler.Enabled {
		billingScheduler = scheduler.NewBillingScheduler(
			billStore,
			appLogger,
			cfg.Scheduler.BillingCronExpression,
			cfg.Scheduler.AutoGenerateBuildings,
		)
		if err := billingScheduler.Start(); err != nil {
			appLogger.WithField("error", err).Fatal("Failed to start billing scheduler")
		}
	}

	// Create HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		appLogger.WithField("port", cfg.Server.Port).Info("Server starting...")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithField("error", err).Fatal("Failed to start server")
		}
	}()

	appLogger.WithField("port", cfg.Server.Port).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := server.Shutdown(ctx); err != nil {
		appLogger.WithField("error", err).Fatal("Server forced to shutdown")
	}

	// Stop the scheduler after in-flight requests have drained
	if billingScheduler != nil {
		billingScheduler.Stop()
	}

	appLogger.Info("Server exited successfully")
}
