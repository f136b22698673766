package worker

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"wpm/internal/config"
	"wpm/internal/events"
	"wpm/internal/logger"
	"wpm/internal/models"
	"wpm/internal/photos"

	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

// Worker consumes catalog events and pushes the affected products into
// the photo-management service index, so media search stays current
// without slowing the sync itself.
type Worker struct {
	config  *config.Config
	logger  *logger.Logger
	db      *gorm.DB
	reader  *kafka.Reader
	indexer photos.Indexer
}

func New(cfg *config.Config, logger *logger.Logger, db *gorm.DB, indexer photos.Indexer) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        strings.Split(cfg.KafkaBrokers, ","),
		GroupID:        "wpm-photo-indexer",
		Topic:          events.Topic,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return &Worker{
		config:  cfg,
		logger:  logger,
		db:      db,
		reader:  reader,
		indexer: indexer,
	}
}

func (w *Worker) Start() {
	w.logger.Info("Worker started, listening for catalog events...")

	for {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		message, err := w.reader.ReadMessage(ctx)
		cancel()

		if err != nil {
			if err == context.DeadlineExceeded {
				continue
			}
			w.logger.Error("Failed to read message: %v", err)
			continue
		}

		var event events.Event
		if err := json.Unmarshal(message.Value, &event); err != nil {
			w.logger.Error("Failed to parse event: %v", err)
			continue
		}

		if err := w.process(event); err != nil {
			w.logger.Error("Failed to process %s event for product %s: %v", event.Type, event.ProductID, err)
		}
	}
}

func (w *Worker) process(event events.Event) error {
	switch event.Type {
	case events.TypeProductCreated, events.TypeProductUpdated:
	default:
		w.logger.Debug("Ignoring event type %s", event.Type)
		return nil
	}

	var product models.Product
	if err := w.db.First(&product, "id = ?", event.ProductID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			// Deleted between sync and consumption; nothing to index.
			return nil
		}
		return err
	}

	entry := photos.Entry{
		ProductID: product.ID,
		ShopID:    product.ShopID,
		Name:      product.Name,
	}
	if product.FeaturedImage != nil {
		entry.ImageURLs = append(entry.ImageURLs, *product.FeaturedImage)
	}
	entry.ImageURLs = append(entry.ImageURLs, product.GalleryImages...)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return w.indexer.IndexProduct(ctx, entry)
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.reader.Close()
}
