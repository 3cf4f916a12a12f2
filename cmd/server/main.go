package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudary/backend/internal/config"
	"github.com/cloudary/backend/internal/database"
	"github.com/cloudary/backend/internal/handlers"
	"github.com/cloudary/backend/internal/middleware"
	"github.com/cloudary/backend/internal/services"
	"github.com/cloudary/backend/internal/storage"
	"github.com/cloudary/backend/pkg/logger"
	"github.com/cloudary/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	storageClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("minio initialization failed: %v", err)
	}
	if err := storageClient.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed ensuring minio bucket: %v", err)
	}

	mailer := services.NewResendMailer(cfg.Mail)
	signer := services.NewURLSigner(storageClient)

	folderService := services.NewFolderService(db, storageClient)
	fileService := services.NewFileService(db, storageClient, signer)
	shareService := services.NewShareService(db, signer, cfg.Server.FrontendURL)
	searchService := services.NewSearchService(db, signer)

	authHandler := handlers.NewAuthHandler(db, mailer)
	foldersHandler := handlers.NewFoldersHandler(folderService)
	filesHandler := handlers.NewFilesHandler(fileService)
	sharesHandler := handlers.NewSharesHandler(shareService)
	searchHandler := handlers.NewSearchHandler(searchService)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 100 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(cfg.Server.FrontendURL))
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/signup", authHandler.Signup)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/logout", authHandler.Logout)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)
	authRoutes.Post("/send-reset-otp", authHandler.SendResetCode)
	authRoutes.Post("/reset-password", authHandler.ResetPassword)

	fileRoutes := api.Group("/files", authMiddleware.RequireAuth)
	fileRoutes.Post("/upload", filesHandler.Upload)
	fileRoutes.Post("/upload/:folderId", filesHandler.Upload)
	fileRoutes.Get("/folder/:folderId/files", filesHandler.ListFolder)
	fileRoutes.Get("/root", filesHandler.ListRoot)
	fileRoutes.Get("/all", filesHandler.ListAll)
	fileRoutes.Get("/trash", filesHandler.ListTrash)
	fileRoutes.Patch("/:id/trash", filesHandler.Trash)
	fileRoutes.Patch("/:id/restore", filesHandler.Restore)
	fileRoutes.Patch("/:id/rename", filesHandler.Rename)
	fileRoutes.Delete("/:id/permanent", filesHandler.PermanentDelete)

	folderRoutes := api.Group("/folders", authMiddleware.RequireAuth)
	folderRoutes.Post("/create", foldersHandler.Create)
	folderRoutes.Post("/create/:parentId", foldersHandler.Create)
	folderRoutes.Get("/", foldersHandler.ListRoot)
	folderRoutes.Get("/sub/:parentId", foldersHandler.ListChildren)
	folderRoutes.Get("/trash", foldersHandler.ListTrash)
	folderRoutes.Put("/restore/:id", foldersHandler.Restore)
	folderRoutes.Put("/:id", foldersHandler.Rename)
	folderRoutes.Delete("/permanent/:id", foldersHandler.DeleteRecursive)
	folderRoutes.Delete("/:id", foldersHandler.Trash)

	api.Post("/share/:fileId", authMiddleware.RequireAuth, sharesHandler.Create)
	api.Get("/shared/:token", sharesHandler.ResolveByToken)
	api.Get("/private/shared/:shareId", authMiddleware.RequireAuth, sharesHandler.ResolvePrivate)
	api.Get("/shared-with-me", authMiddleware.RequireAuth, sharesHandler.ListSharedWithMe)
	api.Delete("/shared-with-me/:id", authMiddleware.RequireAuth, sharesHandler.RemoveFromMyList)

	api.Get("/search", authMiddleware.RequireAuth, searchHandler.Search)

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
