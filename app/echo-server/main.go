package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventPricing/app/echo-server/router"
	"eventPricing/business/pricing"
	"eventPricing/internal/middleware"
	"eventPricing/internal/repository/gemini"
	psqlRepo "eventPricing/internal/repository/postgres"
	"eventPricing/internal/repository/rabbitmq"
	redisRepo "eventPricing/internal/repository/redis"
	"eventPricing/internal/rest"
	"eventPricing/pkg/config"
	"eventPricing/pkg/database"
	redisDB "eventPricing/pkg/database/redis"
	"eventPricing/pkg/logger"
	"eventPricing/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting Event Pricing API", "version", cfg.App.Version)

	// deferred closes in run execute before Fatal
	if err := run(cfg); err != nil {
		logger.Fatal("Server exited with error", "error", err)
	}
}

func run(cfg *config.Config) error {
	db, err := database.InitPostgres(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	logger.Info("Database connected successfully")

	// Optional suggestion cache
	var suggestionCache pricing.SuggestionCache
	if cfg.Redis.Enabled {
		rdb, err := redisDB.NewRedisClient(cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisDB.CloseRedisClient(rdb)
		suggestionCache = redisRepo.NewSuggestionCache(rdb)
		logger.Info("Redis connected successfully")
	}

	// Optional price change events
	var publisher pricing.ChangePublisher
	if cfg.RabbitMQ.URL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		defer pub.Close()
		publisher = pub
		logger.Info("RabbitMQ connected successfully", "exchange", cfg.RabbitMQ.Exchange)
	}

	// Oracle; without a key every suggestion degrades to the fallback
	var oracle pricing.Oracle = pricing.UnavailableOracle{}
	if cfg.Oracle.GeminiAPIKey != "" {
		g, err := gemini.NewOracle(context.Background(), cfg.Oracle.GeminiAPIKey, cfg.Oracle.Model)
		if err != nil {
			return fmt.Errorf("failed to init gemini oracle: %w", err)
		}
		defer g.Close()
		oracle = g
	} else {
		logger.Warn("GEMINI_API_KEY not set, pricing suggestions will use the fallback")
	}

	// Init repo
	eventRepo := psqlRepo.NewEventRepository(db)
	bookingRepo := psqlRepo.NewBookingRepository(db)
	pricingLogRepo := psqlRepo.NewPricingLogRepository(db)
	pricingUoW := psqlRepo.NewPricingUnitOfWork(db)
	decisionRepo := psqlRepo.NewOracleDecisionRepository(db)

	// Init service
	pricingCfg := pricing.DefaultConfig()
	pricingCfg.OracleTimeout = cfg.Oracle.Timeout
	pricingCfg.OracleMaxAttempts = cfg.Oracle.MaxAttempts
	pricingCfg.HistoryDepth = cfg.Pricing.HistoryDepth
	pricingCfg.SuggestionTTL = cfg.Pricing.SuggestionCacheTTL

	pricingService := pricing.NewPricingService(
		eventRepo,
		bookingRepo,
		pricingLogRepo,
		pricingUoW,
		oracle,
		suggestionCache,
		decisionRepo,
		publisher,
		pricingCfg,
	)

	// Init handler
	pricingHandler := rest.NewPricingHandler(pricingService, cfg.Server.RequestTimeout)

	metrics.Init()

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(metrics.Middleware())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
	}))

	// Setup routes
	router.SetOperationalRoutes(e)
	api := e.Group("/api/v1")
	router.SetPricingRoutes(api, pricingHandler)

	// Goroutine server
	serverErr := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
	return nil
}
