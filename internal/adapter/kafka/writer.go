package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/water-advisory-service/internal/config"
	"github.com/couchcryptid/water-advisory-service/internal/domain"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes submitted notifications to the notification topic, where
// every instance's pipeline picks them up.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the notification topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaNotificationTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Submit publishes a notification, assigning an ID first so every consumer
// sees the same one. It implements the HTTP submitter.
func (w *Writer) Submit(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	if n.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Notification{}, fmt.Errorf("assign notification id: %w", err)
		}
		n.ID = id.String()
	}
	msg, err := serializeToMessage(n)
	if err != nil {
		return domain.Notification{}, err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return domain.Notification{}, fmt.Errorf("publish notification: %w", err)
	}
	w.logger.Debug("notification published", "id", n.ID, "topic", w.writer.Topic)
	return n, nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Notification into a Kafka message keyed by id.
func serializeToMessage(n domain.Notification) (kafkago.Message, error) {
	data, err := json.Marshal(domain.EventFromNotification(n))
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize notification: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(n.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "category", Value: []byte(n.Category)},
			{Key: "priority", Value: []byte(n.Priority)},
			{Key: "created_at", Value: []byte(n.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}
