package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pontis/backend/internal/config"
	"github.com/pontis/backend/internal/database"
	"github.com/pontis/backend/internal/handlers"
	"github.com/pontis/backend/internal/middleware"
	"github.com/pontis/backend/internal/models"
	"github.com/pontis/backend/internal/services"
	"github.com/pontis/backend/internal/storage"
	"github.com/pontis/backend/pkg/logger"
	"github.com/pontis/backend/pkg/utils"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	storageClient, err := storage.NewClient(cfg.Storage)
	if err != nil {
		log.Fatalf("storage initialization failed: %v", err)
	}
	if err := storageClient.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed ensuring storage bucket: %v", err)
	}

	maintenanceService := services.NewMaintenanceService(db)

	authHandler := handlers.NewAuthHandler(db)
	usersHandler := handlers.NewUsersHandler(db)
	projectsHandler := handlers.NewProjectsHandler(db)
	filesHandler := handlers.NewFilesHandler(db, storageClient)
	slideshowHandler := handlers.NewSlideshowHandler(db)
	blobHandler := handlers.NewBlobHandler(cfg.Storage)
	maintenanceHandler := handlers.NewMaintenanceHandler(maintenanceService)

	authMiddleware := middleware.NewAuthMiddleware(db)
	editorOnly := middleware.RequireRole(models.UserRoleAdmin, models.UserRoleUser)

	app := fiber.New(fiber.Config{BodyLimit: 100 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)
	authRoutes.Put("/password", authMiddleware.RequireAuth, authHandler.ChangePassword)

	userRoutes := api.Group("/users", authMiddleware.RequireAuth, middleware.AdminOnly)
	userRoutes.Get("/", usersHandler.List)
	userRoutes.Post("/", usersHandler.Create)
	userRoutes.Put("/:id", usersHandler.Update)
	userRoutes.Delete("/:id", usersHandler.Delete)

	api.Get("/projects/:id/slideshow", slideshowHandler.View)
	api.Get("/blob-url", blobHandler.SignURL)
	api.Get("/blob-proxy", blobHandler.Proxy)

	projectRoutes := api.Group("/projects", authMiddleware.RequireAuth)
	projectRoutes.Get("/", projectsHandler.List)
	projectRoutes.Post("/", editorOnly, projectsHandler.Create)
	projectRoutes.Get("/:id/slideshow/all", middleware.AdminOnly, slideshowHandler.ListAll)
	projectRoutes.Post("/:id/slideshow", middleware.AdminOnly, slideshowHandler.Add)
	projectRoutes.Put("/:id/slideshow/reorder", middleware.AdminOnly, slideshowHandler.Reorder)
	projectRoutes.Get("/:id", projectsHandler.Get)
	projectRoutes.Put("/:id", editorOnly, projectsHandler.Update)
	projectRoutes.Delete("/:id", middleware.AdminOnly, projectsHandler.Delete)

	slideRoutes := api.Group("/slideshow", authMiddleware.RequireAuth, middleware.AdminOnly)
	slideRoutes.Put("/:id", slideshowHandler.Update)
	slideRoutes.Delete("/:id", slideshowHandler.Remove)

	fileRoutes := api.Group("/files", authMiddleware.RequireAuth)
	fileRoutes.Post("/upload", editorOnly, filesHandler.Upload)
	fileRoutes.Get("/", filesHandler.List)
	fileRoutes.Get("/statistics", filesHandler.Statistics)
	fileRoutes.Patch("/bulk-move", editorOnly, filesHandler.BulkMove)
	fileRoutes.Post("/restore", editorOnly, filesHandler.Restore)
	fileRoutes.Delete("/", editorOnly, filesHandler.SoftDelete)
	fileRoutes.Get("/:id", filesHandler.Get)
	fileRoutes.Patch("/:id", editorOnly, filesHandler.Update)
	fileRoutes.Delete("/:id/purge", middleware.AdminOnly, filesHandler.Purge)

	maintenanceRoutes := api.Group("/maintenance", authMiddleware.RequireAuth, middleware.AdminOnly)
	maintenanceRoutes.Post("/deduplicate", maintenanceHandler.Deduplicate)
	maintenanceRoutes.Post("/migrate-legacy", maintenanceHandler.MigrateLegacy)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
