package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boulouzanacer/SafeBoutique-sub000/internal/config"
	"github.com/boulouzanacer/SafeBoutique-sub000/internal/events"
	"github.com/boulouzanacer/SafeBoutique-sub000/internal/handlers"
	"github.com/boulouzanacer/SafeBoutique-sub000/internal/metrics"
	"github.com/boulouzanacer/SafeBoutique-sub000/internal/middleware"
	"github.com/boulouzanacer/SafeBoutique-sub000/internal/repository"
	"github.com/boulouzanacer/SafeBoutique-sub000/internal/retention"
	"github.com/boulouzanacer/SafeBoutique-sub000/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title SafeSoft Boutique Catalog API
// @version 1.0.0
// @description Product catalog, bulk import/export and storefront browsing

// @host localhost:8087
// @BasePath /api/v1

// @securityDefinitions.apikey AdminKey
// @in header
// @name X-Admin-Key

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	// Initialize Redis client
	var redisClient *redis.Client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.WithError(err).Warn("Failed to parse Redis URL, caching disabled")
	} else {
		redisClient = redis.NewClient(redisOpts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("Failed to connect to Redis, caching disabled")
			redisClient.Close()
			redisClient = nil
		} else {
			logger.Info("✓ Redis connected successfully")
		}
		cancel()
	}

	productsRepo := repository.NewProductsRepository(db, redisClient)

	// Event publishing is optional
	var publisher services.EventPublisher
	var eventsPublisher *events.Publisher
	if cfg.NATSURL != "" {
		eventsPublisher, err = events.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize events publisher, continuing without event publishing")
		} else {
			publisher = eventsPublisher
			logger.Info("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		logger.Info("NATS_URL not set, skipping event publishing initialization")
	}

	appMetrics := metrics.New("boutique", "catalog")

	importService := services.NewImportService(productsRepo, cfg.DefaultTVA, publisher, appMetrics, logger)
	exportService := services.NewExportService(productsRepo, cfg.UploadsDir, publisher, appMetrics, logger)

	sweeper := retention.NewSweeper(cfg.UploadsDir, cfg.ExportRetention, cfg.ExportSweepInterval, logger)
	appMetrics.WatchRetention(sweeper.Stats)
	sweeper.Start()

	productsHandler := handlers.NewProductsHandler(productsRepo, handlers.PageLimits{
		Default: cfg.DefaultPageSize,
		Max:     cfg.MaxPageSize,
	}, logger)
	importHandler := handlers.NewImportHandler(importService, exportService, cfg.MaxImportSizeBytes, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(appMetrics.Middleware())
	router.Use(middleware.CORS(cfg.CORSOrigins))

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(appMetrics.Handler()))

	if cfg.AdminAPIKey == "" {
		logger.Warn("ADMIN_API_KEY not set, back office routes are unprotected")
	}

	// Back office
	admin := router.Group("/api/v1/products")
	admin.Use(middleware.AdminKey(cfg.AdminAPIKey))
	{
		admin.POST("/import", importHandler.ImportProducts)
		admin.GET("/import/template", importHandler.GetImportTemplate)
		admin.POST("/export", importHandler.ExportProducts)
		admin.GET("/export/:filename", importHandler.DownloadExport)

		admin.GET("", productsHandler.GetProducts)
		admin.GET("/:id", productsHandler.GetProduct)
		admin.PUT("/:id", productsHandler.UpdateProduct)
		admin.DELETE("/:id", productsHandler.DeleteProduct)
	}

	// Public storefront
	storefront := router.Group("/api/v1/storefront")
	{
		storefront.GET("/products", productsHandler.GetStorefrontProducts)
		storefront.GET("/products/:id", productsHandler.GetStorefrontProduct)
		storefront.GET("/families", productsHandler.GetFamilies)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Catalog service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down catalog service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	sweeper.Stop()
	if eventsPublisher != nil {
		eventsPublisher.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info("Catalog service stopped")
}
