package server

import (
	"context"
	"log"

	"memory-beads-be/internal/bootstrap"
	"memory-beads-be/internal/config"
	"memory-beads-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 30 * 1024 * 1024, // photos and recording chunks
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization",
	}))

	app.Use(otelfiber.Middleware())
	app.Use(container.Metrics.Middleware())
	app.Use(serverutils.ErrorHandlerMiddleware())

	app.Get("/metrics", container.Metrics.Handler())
	app.Static("/uploads", cfg.App.UploadsDir)

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	api := app.Group("/api")

	c.JournalController.RegisterRoutes(api)
	c.CaptureController.RegisterRoutes(api)
	c.ImportController.RegisterRoutes(api)
	c.RecordingController.RegisterRoutes(api)
	c.ActivityController.RegisterRoutes(api)

	c.StreamHandler.RegisterRoutes(api)
}
