/**
 * @description
 * Worker Service Entry Point.
 * Keeps the shared Redis caches warm so page loads rarely wait on the backend:
 * 1. The AI model catalogue and category list.
 * 2. The first page of the breaking, trending and new listings.
 *
 * @dependencies
 * - frontend/internal/config
 * - frontend/internal/db
 * - frontend/internal/services
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/polydebate/frontend/internal/config"
	"github.com/polydebate/frontend/internal/db"
	"github.com/polydebate/frontend/internal/logger"
	"github.com/polydebate/frontend/internal/polydebate"
	"github.com/polydebate/frontend/internal/services"
)

func main() {
	logger.Info("🔥 Starting PolyDebate cache worker...")

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	logger.SetLevel(cfg.Server.LogLevel)
	defer logger.Sync()

	// 2. Context with Cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Connect Redis
	redisClient, err := db.ConnectRedis(ctx, cfg)
	if err != nil {
		logger.Fatal("Redis connection failed: %v", err)
	}

	// 4. Initialize Services
	marketService := services.NewMarketService(polydebate.NewClient(cfg), redisClient, cfg)

	interval := cfg.Feed.WarmInterval
	if interval <= 0 {
		interval = 2 * time.Minute
	}

	// 5. Warm Loop
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		warm(ctx, marketService)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				warm(ctx, marketService)
			}
		}
	}()

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()
	if err := redisClient.Close(); err != nil {
		logger.Error("Error closing Redis: %v", err)
	}
	logger.Info("Worker exited.")
}

func warm(ctx context.Context, ms *services.MarketService) {
	start := time.Now()
	if err := ms.WarmCache(ctx); err != nil {
		logger.Error("Cache warm failed: %v", err)
		return
	}
	logger.Info("🔄 Caches warmed in %s", time.Since(start).Round(time.Millisecond))
}
