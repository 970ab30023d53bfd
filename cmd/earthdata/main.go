package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/advisor"
	httpapi "github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/api/http"
	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/config"
	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/earthdata/providers"
	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/scheduler"
	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zapLogger.Sync()

	// Durable local cache for fetched series.
	cache, err := store.NewSQLiteStore(cfg.CachePath)
	if err != nil {
		zapLogger.Fatal("failed to open cache store", zap.Error(err))
	}
	defer cache.Close()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	policy := providers.RetryPolicy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BaseDelay,
		MaxDelay:    cfg.MaxDelay,
	}

	// Soil-moisture fallback chain: catalog search, modeled reanalysis,
	// seasonal estimate.
	chain := providers.NewFallbackChain(zapLogger,
		providers.NewCMRProvider(cfg.CMRBaseURL, cfg.EarthdataToken,
			providers.NewResilientClient("cmr", httpClient, policy, zapLogger)),
		providers.NewPowerProvider(cfg.PowerBaseURL, cfg.WetnessScale,
			providers.NewResilientClient("power", httpClient, policy, zapLogger)),
		providers.NewSeasonalEstimator(cfg.SeasonalRegion),
	)

	// Area extraction workflow for vegetation indices.
	appeears := providers.NewAppeearsProvider(
		cfg.AppeearsBaseURL, cfg.AppeearsUser, cfg.AppeearsPassword,
		providers.NewResilientClient("appeears", httpClient, policy, zapLogger),
		cfg.PollInterval, cfg.MaxPolls, zapLogger)

	// Core service orchestrating providers, cache and analytics.
	service := advisor.NewService(cache, chain, appeears, cfg.RootDepthCM, zapLogger)

	// Scheduler that keeps tracked locations warm.
	sched := scheduler.New(cfg.Locations, cfg.RefreshInterval, cfg.RefreshWindowDays, service, zapLogger)
	if err := sched.Start(); err != nil {
		zapLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "earthdata",
		DisableStartupMessage: true,
		ReadTimeout: 10 * time.Second,
		// Vegetation requests can block for the whole poll budget.
		WriteTimeout: 11 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "earthdata",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zapLogger.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zapLogger.Error("error during shutdown", zap.Error(err))
	}
}
