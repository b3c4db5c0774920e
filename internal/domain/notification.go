package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidNotification marks a submitted notification that fails validation.
var ErrInvalidNotification = errors.New("invalid notification")

// Category groups notifications for display.
type Category string

const (
	CategoryWeather Category = "weather"
	CategoryFishing Category = "fishing"
	CategoryAlert   Category = "alert"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryWeather, CategoryFishing, CategoryAlert:
		return true
	}
	return false
}

// Priority is the urgency of a notification.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Notification is a feed entry. It is owned by the feed once ingested.
type Notification struct {
	ID        string    `json:"id"`
	Category  Category  `json:"category"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	Priority  Priority  `json:"priority"`
}

// NotificationEvent is the wire form of an externally submitted notification.
// ID and CreatedAt are optional.
type NotificationEvent struct {
	ID        string    `json:"id,omitempty"`
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	Priority  string    `json:"priority"`
}

// NotificationFromEvent validates an event and converts it. Priority defaults
// to medium; a missing CreatedAt is stamped with the package clock. A missing
// ID is left empty for the feed to assign.
func NotificationFromEvent(ev NotificationEvent) (Notification, error) {
	n := Notification{
		ID:        strings.TrimSpace(ev.ID),
		Category:  Category(strings.ToLower(strings.TrimSpace(ev.Category))),
		Title:     strings.TrimSpace(ev.Title),
		Message:   strings.TrimSpace(ev.Message),
		CreatedAt: ev.CreatedAt,
		Priority:  Priority(strings.ToLower(strings.TrimSpace(ev.Priority))),
	}
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	if !n.Category.Valid() {
		return Notification{}, fmt.Errorf("%w: unknown category %q", ErrInvalidNotification, ev.Category)
	}
	if !n.Priority.Valid() {
		return Notification{}, fmt.Errorf("%w: unknown priority %q", ErrInvalidNotification, ev.Priority)
	}
	if n.Title == "" {
		return Notification{}, fmt.Errorf("%w: title is required", ErrInvalidNotification)
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = clock.Now()
	}
	return n, nil
}

// EventFromNotification is the inverse of NotificationFromEvent.
func EventFromNotification(n Notification) NotificationEvent {
	return NotificationEvent{
		ID:        n.ID,
		Category:  string(n.Category),
		Title:     n.Title,
		Message:   n.Message,
		CreatedAt: n.CreatedAt,
		Priority:  string(n.Priority),
	}
}
