package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/scrumdb/internal/config"
	"github.com/localnerve/scrumdb/internal/database"
	"github.com/localnerve/scrumdb/internal/handlers"
	"github.com/localnerve/scrumdb/internal/middleware"
	"github.com/localnerve/scrumdb/internal/scrum"
	"github.com/localnerve/scrumdb/internal/services"
	"github.com/localnerve/scrumdb/internal/types"

	_ "github.com/localnerve/scrumdb/docs/api" // Swagger docs
)

// @title ScrumDB API
// @version 1.0.0
// @description Scrum project data layer: projects, sprints, tasks, collaborators and burndown over a relational store
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/scrumdb
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name scrumdb_session

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Session manager with idle expiry
	manager := scrum.NewSessionManager(db, time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	sweeper := time.NewTicker(time.Minute)
	defer sweeper.Stop()
	go func() {
		for range sweeper.C {
			manager.Sweep()
		}
	}()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: false,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("scrumdb")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API routes under /api
	api := app.Group("/api")

	// Version middleware
	api.Use(middleware.VersionMiddleware())

	// Health
	api.Get("/health", func(c *fiber.Ctx) error {
		result := services.HealthCheck(cfg, db)
		status := fiber.StatusOK
		if result.Status != "healthy" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(result)
	})

	// Create handlers
	authHandler := &handlers.AuthHandler{DB: db, Manager: manager}
	projectHandler := &handlers.ProjectHandler{}
	sprintHandler := &handlers.SprintHandler{}
	taskHandler := &handlers.TaskHandler{}
	collabHandler := &handlers.CollaboratorHandler{}
	burndownHandler := &handlers.BurndownHandler{DB: db}

	// Account and session routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/logout", middleware.RequireSession(manager), authHandler.Logout)
	auth.Get("/me", middleware.RequireSession(manager), authHandler.Me)

	// Everything below requires a live session
	projects := api.Group("/projects", middleware.RequireSession(manager))

	projects.Get("/", projectHandler.GetProjects)
	projects.Post("/", projectHandler.CreateProject)
	projects.Post("/:projectId/view", projectHandler.ViewProject)
	projects.Put("/:projectId", projectHandler.UpdateProject)
	projects.Delete("/:projectId", projectHandler.DeleteProject)

	projects.Get("/:projectId/sprints", sprintHandler.GetSprints)
	projects.Post("/:projectId/sprints", sprintHandler.CreateSprint)
	projects.Put("/:projectId/sprints/:sprintId", sprintHandler.UpdateSprint)
	projects.Delete("/:projectId/sprints/:sprintId", sprintHandler.DeleteSprint)

	projects.Get("/:projectId/sprints/:sprintId/tasks", taskHandler.GetSprintTasks)
	projects.Get("/:projectId/backlog", taskHandler.GetBacklog)
	projects.Post("/:projectId/tasks", taskHandler.CreateTasks)
	projects.Put("/:projectId/tasks/:taskId", taskHandler.UpdateTask)
	projects.Delete("/:projectId/tasks/:taskId", taskHandler.DeleteTask)

	projects.Get("/:projectId/collaborators", collabHandler.GetCollaborators)
	projects.Post("/:projectId/collaborators", collabHandler.AddCollaborator)
	projects.Put("/:projectId/collaborators/:collaboratorId", collabHandler.UpdateCollaborator)
	projects.Delete("/:projectId/collaborators/:collaboratorId", collabHandler.RemoveCollaborator)

	projects.Get("/:projectId/burndown", burndownHandler.GetBurndown)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Session and role failures raised by middleware
	if e, ok := err.(*types.CustomError); ok {
		code = e.Code
		message = e.Message
		errorType = e.Type
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    code,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}
