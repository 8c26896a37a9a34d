/**
 * @description
 * Main entry point for the PolyDebate web front.
 * Loads configuration, opens the session store, and serves pages plus the
 * debate stream relays.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: Web framework
 * - frontend/internal/config: Config loader
 * - frontend/internal/db: Redis and Postgres connections
 * - frontend/internal/api/wsrelay: Websocket relay
 *
 * @notes
 * - Redis is required for the redis session backend; with the other backends
 *   it is optional and only enables caching.
 * - Fiber serves pages and SSE on PORT; the websocket relay listens on WS_PORT.
 */

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/polydebate/frontend/internal/api"
	"github.com/polydebate/frontend/internal/api/wsrelay"
	"github.com/polydebate/frontend/internal/config"
	"github.com/polydebate/frontend/internal/db"
	"github.com/polydebate/frontend/internal/logger"
	"github.com/polydebate/frontend/internal/polydebate"
	"github.com/polydebate/frontend/internal/session"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	logger.SetLevel(cfg.Server.LogLevel)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Storage
	redisClient, err := db.ConnectRedis(ctx, cfg)
	if err != nil {
		if cfg.Session.Backend == config.SessionBackendRedis {
			logger.Fatal("Failed to connect to Redis: %v", err)
		}
		logger.Warn("Redis unavailable, caching disabled: %v", err)
		redisClient = nil
	}

	store, err := openStore(cfg, redisClient)
	if err != nil {
		logger.Fatal("Failed to open %s session store: %v", cfg.Session.Backend, err)
	}
	manager := session.NewManager(store)

	// 3. Services
	apiClient := polydebate.NewClient(cfg)
	svc := api.NewServices(apiClient, redisClient, cfg)

	// 4. Initialize Fiber App
	app := fiber.New(fiber.Config{
		AppName:       "PolyDebate",
		StrictRouting: false,
		CaseSensitive: true,
		// SSE responses stay open for the length of a debate
		IdleTimeout: 2 * time.Minute,
	})

	// 5. Global Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// 6. Routes
	api.SetupRoutes(app, manager, svc, cfg)

	// 7. Websocket relay
	relay := wsrelay.New(svc.Hub, strings.Split(cfg.Server.CORSOrigins, ","))
	wsServer := wsrelay.NewServer(":"+cfg.Server.WSPort, relay)
	go func() {
		logger.Info("Websocket relay listening on port %s", cfg.Server.WSPort)
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Websocket relay stopped: %v", err)
		}
	}()

	// 8. Start Server
	go func() {
		logger.Info("🚀 Starting PolyDebate web front on port %s (backend %s)", cfg.Server.Port, cfg.API.BaseURL)
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// 9. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	cancel()
	// ends open SSE and websocket streams so the servers can drain
	svc.Hub.Close()

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Websocket relay shutdown: %v", err)
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server shutdown: %v", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	logger.Info("Server exited.")
}

// openStore builds the configured session store
func openStore(cfg *config.Config, rdb *redis.Client) (session.Store, error) {
	switch cfg.Session.Backend {
	case config.SessionBackendPostgres:
		pgDB, err := db.ConnectPostgres(cfg)
		if err != nil {
			return nil, err
		}
		store, err := session.NewPostgresStore(pgDB)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.SessionBackendFile:
		return session.NewFileStore(cfg.CLI.StateFile), nil
	default:
		return session.NewRedisStore(rdb, cfg.Session.TTL), nil
	}
}
