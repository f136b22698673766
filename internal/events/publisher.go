package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"wpm/internal/logger"
)

const Topic = "catalog-events"

const (
	TypeProductCreated = "product.created"
	TypeProductUpdated = "product.updated"
)

type Event struct {
	Type      string                 `json:"type"`
	ShopID    string                 `json:"shop_id"`
	ProductID string                 `json:"product_id"`
	WooID     int64                  `json:"woo_id"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Publisher emits catalog events to Kafka. A Publisher built with empty
// brokers is a no-op, so syncs run fine without a broker around.
type Publisher struct {
	writer *kafka.Writer
	logger *logger.Logger
}

func NewPublisher(brokers string, log *logger.Logger) *Publisher {
	p := &Publisher{logger: log}
	if brokers == "" {
		return p
	}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return p
}

// Publish is fire-and-forget: a broker problem must never abort a sync.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	if p == nil || p.writer == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event: %v", err)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ShopID),
		Value: value,
	})
	if err != nil {
		p.logger.Error("Failed to publish %s event: %v", event.Type, err)
	}
}

func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
