package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/water-advisory-service/internal/domain"
)

// NotificationDecoder implements Decoder for JSON notification events.
type NotificationDecoder struct {
	logger *slog.Logger
}

// NewDecoder creates a NotificationDecoder.
func NewDecoder(logger *slog.Logger) *NotificationDecoder {
	return &NotificationDecoder{logger: logger}
}

func (d *NotificationDecoder) Decode(_ context.Context, raw domain.RawEvent) (domain.Notification, error) {
	n, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("offset %d: %w", raw.Offset, err)
	}
	if n.ID == "" {
		d.logger.Debug("notification without id or key, feed will assign one",
			"topic", raw.Topic, "offset", raw.Offset)
	}
	return n, nil
}
