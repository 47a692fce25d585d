package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tiktok_ingest/config"
	"tiktok_ingest/internal/delivery/cron"
	"tiktok_ingest/internal/delivery/httpapi"
	"tiktok_ingest/internal/infrastructure/browser"
	"tiktok_ingest/internal/infrastructure/httpclient"
	"tiktok_ingest/internal/infrastructure/mediahost"
	"tiktok_ingest/internal/infrastructure/scraper"
	"tiktok_ingest/internal/logger"
	sqliterepo "tiktok_ingest/internal/repository/sqlite"
	"tiktok_ingest/internal/usecase"
)

func main() {
	// Load .env for local development; ignored when absent
	_ = godotenv.Load()

	// Load configuration from YAML file
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if _, err := logger.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer func() {
		if err := logger.Close(); err != nil {
			log.Printf("Failed to close log files: %v", err)
		}
	}()

	// Initialize persistent repositories
	db, err := sqliterepo.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error().Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	accountRepo := sqliterepo.NewCreatorAccountRepository(db)
	importRepo := sqliterepo.NewImportJobRepository(db)
	userRepo := sqliterepo.NewAppUserRepository(db)
	postRepo := sqliterepo.NewPostRepository(db)

	// Initialize infrastructure services
	httpClient := httpclient.New(cfg)

	browserHandle := browser.New(cfg)
	defer browserHandle.Shutdown()

	scraperService := scraper.NewService(cfg, browserHandle)

	uploader, err := mediahost.NewCloudinaryUploader(cfg)
	if err != nil {
		logger.Error().Fatalf("Failed to initialize media host: %v", err)
	}

	// Initialize use cases
	transfer := usecase.NewMediaTransfer(cfg, httpClient, uploader)
	importer := usecase.NewImporter(scraperService, transfer, accountRepo, importRepo, userRepo, postRepo)
	trending := usecase.NewTrendingCache(cfg, scraperService)

	// Initialize and start cron scheduler
	scheduler := cron.NewScheduler(cfg, trending)
	if err := scheduler.Start(); err != nil {
		logger.Error().Fatalf("Failed to start scheduler: %v", err)
	}

	// Start HTTP API server
	apiServer := httpapi.NewServer(cfg, scraperService, importer, trending)
	if err := apiServer.Start(); err != nil {
		logger.Error().Fatalf("Failed to start HTTP API server: %v", err)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info().Println("Application started. Press Ctrl+C to stop.")
	<-sigChan

	// Graceful shutdown
	logger.Info().Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	scheduler.Stop()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Printf("HTTP API shutdown error: %v", err)
	}
	logger.Info().Println("Application stopped.")
}
