package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"wpm/internal/config"
	"wpm/internal/database"
	"wpm/internal/logger"
	"wpm/internal/photos"
	"wpm/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	if cfg.KafkaBrokers == "" {
		logger.Fatal("KAFKA_BROKERS must be set for the worker")
	}
	if cfg.PhotoServiceURL == "" {
		logger.Fatal("PHOTO_SERVICE_URL must be set for the worker")
	}

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	indexer := photos.NewClient(cfg.PhotoServiceURL, cfg.PhotoServiceKey)

	// Initialize worker
	w := worker.New(cfg, logger, db.DB, indexer)

	// Start worker
	logger.Info("Starting worker...")
	go w.Start()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	w.Stop()
}
