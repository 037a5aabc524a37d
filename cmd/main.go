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

	"catalog-service/internal/clients"
	"catalog-service/internal/config"
	"catalog-service/internal/events"
	"catalog-service/internal/handlers"
	"catalog-service/internal/middleware"
	"catalog-service/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Catalog Variants API
// @version 1.0.0
// @description Product size/colour availability, stock checks and add-to-cart validation with multi-tenant support

// @host localhost:8087
// @BasePath /api/v1

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to access database pool:", err)
	}
	defer sqlDB.Close()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.IsProduction() {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Redis is optional: without it reads go straight to the database
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
			logger.Info("Redis connected successfully")
		}
		cancel()
	}
	defer func() {
		if redisClient != nil {
			redisClient.Close()
		}
	}()

	productsRepo := repository.NewProductsRepository(db, redisClient, logger)

	// Event publishing only when NATS_URL is set
	var eventsPublisher *events.Publisher
	if cfg.NATSURL != "" {
		eventsPublisher, err = events.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize events publisher, continuing without event publishing")
		} else {
			logger.Info("Events publisher initialized (NATS connected)")
		}
	} else {
		logger.Info("NATS_URL not set, skipping event publishing initialization")
	}
	defer eventsPublisher.Close()

	cartClient := clients.NewCartClient(cfg.CartServiceURL)

	productsHandler := handlers.NewProductsHandler(productsRepo, cartClient, eventsPublisher, handlers.Pagination{
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
	}, logger)
	importHandler := handlers.NewImportHandler(productsRepo, eventsPublisher, cfg.MaxImportRows, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	// Health check endpoints (no tenant required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadinessCheck(sqlDB))

	api := router.Group("/api/v1")
	api.Use(middleware.TenantMiddleware())
	{
		products := api.Group("/products")
		{
			products.GET("", productsHandler.GetProducts)
			products.POST("", productsHandler.CreateProduct)
			products.POST("/inventory/check", productsHandler.CheckStock)
			products.GET("/import/template", importHandler.GetImportTemplate)
			products.POST("/import", importHandler.ImportProducts)
			products.GET("/sku/:sku", productsHandler.GetProductBySKU)
			products.GET("/:id", productsHandler.GetProduct)
			products.PUT("/:id/variants", productsHandler.UpdateVariants)
		}

		storefront := api.Group("/storefront")
		{
			storefront.GET("/products/:id/availability", productsHandler.GetAvailability)
			storefront.GET("/products/:id/stock", productsHandler.GetStock)
			storefront.POST("/cart/validate", productsHandler.ValidateCartItem)
			storefront.POST("/cart/items", middleware.CartSessionMiddleware(), productsHandler.AddCartItem)
		}
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
	logger.Info("Shutting down catalog-service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Catalog service stopped")
}
