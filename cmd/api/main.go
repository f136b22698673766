package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wpm/internal/api"
	"wpm/internal/config"
	"wpm/internal/crypto"
	"wpm/internal/database"
	"wpm/internal/events"
	"wpm/internal/logger"
	"wpm/internal/services/images"
	"wpm/internal/services/woocommerce"
	"wpm/internal/storage"
	"wpm/internal/sync"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	// Credential vault
	vault, err := crypto.NewVault(cfg.EncryptionKey)
	if err != nil {
		logger.Fatal("Failed to initialize credential vault: %v", err)
	}

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Object storage for relocated images
	var store storage.ObjectStore
	if cfg.S3AccessKey != "" {
		s3Store, err := storage.NewS3Store(context.Background(), cfg)
		if err != nil {
			logger.Fatal("Failed to initialize object storage: %v", err)
		}
		store = s3Store
	} else {
		logger.Info("S3 not configured, using in-memory object store")
		store = storage.NewMemoryStore(cfg.S3PublicURL)
	}

	relocator := images.NewRelocator(store, logger, cfg.RelocationConcurrency)
	publisher := events.NewPublisher(cfg.KafkaBrokers, logger)
	defer publisher.Close()

	clientFactory := func(baseURL, consumerKey, consumerSecret string) sync.CatalogClient {
		return woocommerce.NewClient(baseURL, consumerKey, consumerSecret, logger)
	}
	reconciler := sync.NewReconciler(db.DB, vault, relocator, publisher, logger, clientFactory, cfg.SyncPageSize)

	queue := sync.NewQueue(db.DB, reconciler, logger)
	defer queue.Stop()

	// Initialize API server
	server := api.New(cfg, logger, db, vault, queue)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("Server stopped: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error("Failed to shut down cleanly: %v", err)
	}
}
