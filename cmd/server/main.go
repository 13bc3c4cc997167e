package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/campuscyber/cyberkpi/config"
	"github.com/campuscyber/cyberkpi/internal/database"
	"github.com/campuscyber/cyberkpi/internal/handlers"
	"github.com/campuscyber/cyberkpi/internal/middleware"
	"github.com/campuscyber/cyberkpi/internal/rabbitmq"
	"github.com/campuscyber/cyberkpi/internal/routes"
	"github.com/campuscyber/cyberkpi/internal/services"
	workers "github.com/campuscyber/cyberkpi/internal/worker"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	log.Printf("Connected to database successfully")

	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatalf("Failed to create kpi tables: %v", err)
	}

	// Initialize services
	jwtService := services.NewJWTService(cfg.JWTSecret, 168) // 7 days

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:       "CyberKPI Collector",
		CaseSensitive: true,
		StrictRouting: false,
		ServerHeader:  "CyberKPI",
		ErrorHandler:  handlers.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			log.Printf("PANIC RECOVERED: %v", e)
			log.Printf("Request: %s %s", c.Method(), c.Path())
			log.Printf("Stack Trace:\n%s", string(debug.Stack()))
		},
	}))
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${method} ${path} (${latency})\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	// Setup RabbitMQ alert pipeline (optional, graceful degradation)
	if cfg.RabbitMQURL != "" {
		if err := rabbitmq.SetupRabbitMQ(cfg.RabbitMQURL); err != nil {
			log.Printf("Failed to connect to RabbitMQ: %v", err)
			// Events are still stored; only the alert feed is lost
		} else {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			go func() {
				mailer := services.NewMailerService()
				alertWorker := workers.NewAlertWorker(mailer, cfg.AlertEmail)

				if err := alertWorker.StartWorker(ctx); err != nil {
					log.Printf("Alert worker failed: %v", err)
				}
			}()

			defer rabbitmq.Close()
		}
	}

	// Setup routes
	routes.SetupRoutes(app, cfg, jwtService)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Error shutting down: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting collector on %s", addr)
	log.Printf("Environment: %s", cfg.Env)
	log.Printf("Allowed origins: %v", cfg.AllowedOrigins)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
