package routes

import (
	"github.com/campuscyber/cyberkpi/config"
	"github.com/campuscyber/cyberkpi/internal/handlers"
	"github.com/campuscyber/cyberkpi/internal/middleware"
	"github.com/campuscyber/cyberkpi/internal/services"
	"github.com/gofiber/fiber/v3"
)

func SetupRoutes(app *fiber.App, cfg *config.Config, jwtService *services.JWTService) {
	// Initialize services
	statsService := services.NewStatsService()

	// Initialize handlers
	collectHandler := handlers.NewCollectHandler()
	statsHandler := handlers.NewStatsHandler(statsService, cfg.StatsCacheMaxAge)
	authHandler := handlers.NewAuthHandler(cfg, jwtService)

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "CyberKPI collector is running",
		})
	})

	// ==================
	// Public tracking routes
	// Wrong-method requests fall through to the app error handler, which
	// renders fiber's 405 as a JSON body
	// ==================
	app.Post("/collect", collectHandler.Collect, middleware.RateLimitMiddleware())
	app.Get("/stats", statsHandler.Stats)

	// ==================
	// Admin routes (env-configured single admin)
	// ==================
	app.Post("/auth/login", authHandler.Login)
	app.Get("/stats/export", statsHandler.Export, middleware.AuthMiddleware(jwtService))
}
