/**
 * @description
 * API Route definitions.
 * Builds the services, attaches session middleware and assigns handlers.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - frontend/internal/api/handlers
 * - frontend/internal/api/middleware
 * - frontend/internal/services
 *
 * @notes
 * - Login routes are registered before the gated groups so the gates never
 *   see them.
 */

package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/polydebate/frontend/internal/api/handlers"
	"github.com/polydebate/frontend/internal/api/middleware"
	"github.com/polydebate/frontend/internal/config"
	"github.com/polydebate/frontend/internal/models"
	"github.com/polydebate/frontend/internal/polydebate"
	"github.com/polydebate/frontend/internal/services"
	"github.com/polydebate/frontend/internal/session"
	"github.com/redis/go-redis/v9"
)

// Services is the set of data-fetching services shared by all requests
type Services struct {
	API       *polydebate.Client
	Markets   *services.MarketService
	Debates   *services.DebateService
	Auth      *services.AuthService
	Favorites *services.FavoritesService
	Profile   *services.ProfileService
	Admin     *services.AdminService
	Hub       *services.DebateStreamHub
}

// NewServices wires every service against one API client. rdb may be nil.
func NewServices(api *polydebate.Client, rdb *redis.Client, cfg *config.Config) *Services {
	markets := services.NewMarketService(api, rdb, cfg)
	return &Services{
		API:       api,
		Markets:   markets,
		Debates:   services.NewDebateService(api, markets),
		Auth:      services.NewAuthService(api),
		Favorites: services.NewFavoritesService(api),
		Profile:   services.NewProfileService(api, rdb),
		Admin:     services.NewAdminService(api),
		Hub:       services.NewDebateStreamHub(api, services.DefaultSubscriberBuffer),
	}
}

// SetupRoutes configures all routes
func SetupRoutes(app *fiber.App, manager *session.Manager, svc *Services, cfg *config.Config) {
	// 1. Session lifecycle: a cleared session drops its feed
	manager.OnTeardown(svc.Markets.Feeds.Evict)

	app.Use(middleware.Session(middleware.SessionConfig{
		Manager: manager,
		TTL:     cfg.Session.TTL,
		Secure:  cfg.Session.CookieSecure,
	}))
	app.Use(middleware.Bootstrap(func(c *fiber.Ctx, sess *session.Session) (*models.User, error) {
		return svc.Auth.Bootstrap(c.UserContext(), sess)
	}))

	// 2. Initialize Handlers
	marketHandler := handlers.NewMarketHandler(svc.Markets, svc.Favorites, svc.Debates)
	debateHandler := handlers.NewDebateHandler(svc.Debates, svc.Hub)
	authHandler := handlers.NewAuthHandler(svc.Auth, svc.Favorites)
	favoritesHandler := handlers.NewFavoritesHandler(svc.Favorites)
	profileHandler := handlers.NewProfileHandler(svc.Profile)
	adminHandler := handlers.NewAdminHandler(svc.Admin)

	protected := middleware.Protected()

	// 3. Public pages
	app.Get("/", marketHandler.Home)
	app.Get("/markets", marketHandler.Home)
	app.Get("/breaking", marketHandler.GetBreaking)
	app.Get("/markets/:id", marketHandler.GetMarket)
	app.Get("/debate/:id", debateHandler.GetDebate)
	app.Get("/debate/:id/stream", debateHandler.StreamDebate)
	app.Get("/login", authHandler.LoginPage)
	app.Get("/signup", authHandler.SignupPage)
	app.Get(middleware.AdminLoginPath, authHandler.AdminLoginPage)

	// Protected pages
	app.Get("/favorites", protected, favoritesHandler.GetFavorites)
	app.Get("/profile", protected, profileHandler.GetProfile)

	// 4. JSON endpoints
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		backend := "ok"
		if err := svc.API.Health(c.UserContext()); err != nil {
			backend = "unreachable"
		}
		return c.JSON(fiber.Map{"status": "ok", "backend": backend})
	})

	api.Post("/feed/more", marketHandler.LoadMore)
	api.Post("/feed/reset", marketHandler.ResetFeed)
	api.Get("/models", marketHandler.GetModels)
	api.Get("/categories", marketHandler.GetCategories)

	auth := api.Group("/auth")
	auth.Get("/me", authHandler.Me)
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/:mode/request-code", authHandler.RequestCode)
	auth.Post("/:mode/resend", authHandler.Resend)
	auth.Post("/:mode/verify", authHandler.Verify)
	auth.Post("/:mode/restart", authHandler.Restart)

	api.Get("/debates", debateHandler.ListDebates)
	api.Get("/debate/:id/results", debateHandler.GetResults)
	api.Get("/debate/:id/transcript", debateHandler.GetTranscript)
	api.Post("/debate/start", protected, debateHandler.StartDebate)
	api.Post("/debate/:id/:action", protected, debateHandler.ControlDebate)

	api.Get("/favorites/ids", favoritesHandler.GetFavoriteIDs)
	api.Post("/favorites/:marketId/toggle", protected, favoritesHandler.ToggleFavorite)

	api.Put("/profile", protected, profileHandler.UpdateProfile)
	api.Get("/profile/debates", protected, profileHandler.GetDebates)
	api.Get("/profile/debates/top", protected, profileHandler.GetTopDebates)

	// 5. Admin console (login first, then the gate)
	api.Post("/admin/login", authHandler.AdminLogin)

	adminOnly := middleware.AdminOnly()
	app.Get("/admin", adminOnly, adminHandler.Dashboard)
	adminAPI := api.Group("/admin", adminOnly)
	adminAPI.Get("/users", adminHandler.GetUsers)
	adminAPI.Delete("/users/:id", adminHandler.DeleteUser)
	adminAPI.Get("/debates", adminHandler.GetDebates)
	adminAPI.Get("/analytics", adminHandler.GetAnalytics)
}
