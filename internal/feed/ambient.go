package feed

import (
	"context"
	"time"

	"github.com/couchcryptid/water-advisory-service/internal/domain"
)

// ambientChance is the draw a tick must exceed to emit a notification.
const ambientChance = 0.7

// WelcomeID identifies the notification seeded into a fresh feed.
const WelcomeID = "welcome"

type template struct {
	category domain.Category
	title    string
	message  string
	priority domain.Priority
}

var ambientTemplates = []template{
	{
		category: domain.CategoryFishing,
		title:    "Great Fishing Alert",
		message:  "Excellent fishing conditions detected at Dal Lake. Water temperature perfect for Trout fishing.",
		priority: domain.PriorityMedium,
	},
	{
		category: domain.CategoryWeather,
		title:    "Weather Update",
		message:  "Clear skies and calm winds forecast for the next 4 hours - ideal for fishing.",
		priority: domain.PriorityLow,
	},
	{
		category: domain.CategoryAlert,
		title:    "High Wind Warning",
		message:  "Strong winds expected in coastal areas. Exercise caution while fishing.",
		priority: domain.PriorityHigh,
	},
}

// Welcome returns the greeting shown in a freshly opened feed.
func Welcome(at time.Time) domain.Notification {
	return domain.Notification{
		ID:        WelcomeID,
		Category:  domain.CategoryFishing,
		Title:     "Welcome to India Water Bodies",
		Message:   "Click on any water body to get detailed fishing information and weather conditions.",
		CreatedAt: at,
		Priority:  domain.PriorityMedium,
	}
}

// SeedWelcome ingests the welcome notification stamped with the feed clock.
func (f *Feed) SeedWelcome() {
	f.Ingest(Welcome(f.clock.Now()))
}

// Tick runs one step of the ambient generator. With probability 0.3 it
// ingests a notification built from a random template stamped at now.
func (f *Feed) Tick(now time.Time) (domain.Notification, bool) {
	f.mu.Lock()
	draw := f.rand.Float64()
	var tmpl template
	if draw > ambientChance {
		tmpl = ambientTemplates[f.rand.IntN(len(ambientTemplates))]
	}
	f.mu.Unlock()

	if draw <= ambientChance {
		return domain.Notification{}, false
	}

	res := f.Ingest(domain.Notification{
		Category:  tmpl.category,
		Title:     tmpl.title,
		Message:   tmpl.message,
		CreatedAt: now,
		Priority:  tmpl.priority,
	})
	f.metrics.FeedEvents.WithLabelValues("ambient").Inc()
	return res.Notification, true
}

// RunAmbient calls Tick on every interval until ctx is cancelled.
func (f *Feed) RunAmbient(ctx context.Context, interval time.Duration) error {
	ticker := f.clock.NewTicker(interval)
	defer ticker.Stop()

	f.logger.Info("ambient notifications started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			f.logger.Info("ambient notifications stopped")
			return nil
		case now := <-ticker.Chan():
			if n, ok := f.Tick(now); ok {
				f.logger.Debug("ambient notification emitted", "id", n.ID, "title", n.Title)
			}
		}
	}
}
