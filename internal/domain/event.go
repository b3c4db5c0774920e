package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RawEvent represents an unprocessed message from the notification topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ParseRawEvent decodes a RawEvent's JSON value into a Notification. When the
// payload has no createdAt the message timestamp is used; when it has no id
// the message key is used.
func ParseRawEvent(raw RawEvent) (Notification, error) {
	var ev NotificationEvent
	if err := json.Unmarshal(raw.Value, &ev); err != nil {
		return Notification{}, fmt.Errorf("parse notification event: %w", err)
	}
	if ev.CreatedAt.IsZero() && !raw.Timestamp.IsZero() {
		ev.CreatedAt = raw.Timestamp
	}
	if ev.ID == "" && len(raw.Key) > 0 {
		ev.ID = string(raw.Key)
	}
	return NotificationFromEvent(ev)
}
