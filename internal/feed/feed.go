// Package feed manages the bounded, newest-first notification feed.
package feed

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sort"
	"sync"

	"github.com/couchcryptid/water-advisory-service/internal/domain"
	"github.com/couchcryptid/water-advisory-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// DefaultCapacity is the number of notifications kept when none is configured.
const DefaultCapacity = 5

// Rand is the random source used by Tick. *rand.Rand from math/rand/v2
// satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// IngestResult describes what Ingest did. A duplicate is not accepted.
// An accepted notification older than every visible entry in a full feed is
// reported in Evicted straight away.
type IngestResult struct {
	Accepted     bool
	Notification domain.Notification
	Evicted      []domain.Notification
}

// Feed holds visible notifications ordered by CreatedAt, newest first, with
// ties broken by insertion order (latest insertion first). It never holds
// more than its capacity. Feed is safe for concurrent use.
type Feed struct {
	capacity int
	clock    clockwork.Clock
	rand     Rand
	newID    func() string
	metrics  *observability.Metrics
	logger   *slog.Logger

	mu      sync.Mutex
	items   []domain.Notification
	subs    map[uint64]chan struct{}
	nextSub uint64
}

// Option customizes a Feed.
type Option func(*Feed)

// WithClock sets the time source used for missing CreatedAt values and the
// ambient ticker.
func WithClock(c clockwork.Clock) Option {
	return func(f *Feed) { f.clock = c }
}

// WithRand sets the random source used by Tick.
func WithRand(r Rand) Option {
	return func(f *Feed) { f.rand = r }
}

// WithIDGenerator sets the function that assigns IDs to notifications
// ingested without one.
func WithIDGenerator(gen func() string) Option {
	return func(f *Feed) { f.newID = gen }
}

// New creates an empty feed. A non-positive capacity means DefaultCapacity.
func New(capacity int, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	f := &Feed{
		capacity: capacity,
		clock:    clockwork.NewRealClock(),
		rand:     globalRand{},
		newID:    newTimeOrderedID,
		metrics:  metrics,
		logger:   logger,
		items:    make([]domain.Notification, 0, capacity+1),
		subs:     make(map[uint64]chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Capacity reports the maximum number of visible notifications.
func (f *Feed) Capacity() int { return f.capacity }

// Len reports the number of visible notifications.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// Snapshot returns a copy of the visible notifications in feed order.
func (f *Feed) Snapshot() []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.items)
}

// Ingest adds a notification. Missing IDs and timestamps are filled in; an ID
// that is already visible is ignored. Entries past capacity are evicted from
// the tail.
func (f *Feed) Ingest(n domain.Notification) IngestResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	if n.ID == "" {
		n.ID = f.newID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = f.clock.Now()
	}

	if f.indexOfLocked(n.ID) >= 0 {
		f.metrics.FeedEvents.WithLabelValues("duplicate").Inc()
		f.logger.Debug("duplicate notification ignored", "id", n.ID)
		return IngestResult{Notification: n}
	}

	pos := sort.Search(len(f.items), func(i int) bool {
		return !f.items[i].CreatedAt.After(n.CreatedAt)
	})
	f.items = slices.Insert(f.items, pos, n)

	var evicted []domain.Notification
	if len(f.items) > f.capacity {
		evicted = slices.Clone(f.items[f.capacity:])
		f.items = slices.Delete(f.items, f.capacity, len(f.items))
	}

	f.metrics.FeedEvents.WithLabelValues("ingested").Inc()
	f.metrics.FeedEvents.WithLabelValues("evicted").Add(float64(len(evicted)))
	f.metrics.FeedSize.Set(float64(len(f.items)))
	f.logger.Debug("notification ingested",
		"id", n.ID,
		"category", n.Category,
		"priority", n.Priority,
		"evicted", len(evicted),
	)
	f.notifyLocked()

	return IngestResult{Accepted: true, Notification: n, Evicted: evicted}
}

// Dismiss removes the notification with id. It reports whether anything was
// removed; dismissing an absent id is a no-op.
func (f *Feed) Dismiss(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.indexOfLocked(id)
	if i < 0 {
		return false
	}
	f.items = slices.Delete(f.items, i, i+1)

	f.metrics.FeedEvents.WithLabelValues("dismissed").Inc()
	f.metrics.FeedSize.Set(float64(len(f.items)))
	f.logger.Debug("notification dismissed", "id", id)
	f.notifyLocked()
	return true
}

// Submit ingests a notification on behalf of an HTTP caller and returns it
// with its assigned ID and timestamp.
func (f *Feed) Submit(_ context.Context, n domain.Notification) (domain.Notification, error) {
	return f.Ingest(n).Notification, nil
}

// LoadBatch ingests notifications decoded by the pipeline, in order.
func (f *Feed) LoadBatch(_ context.Context, batch []domain.Notification) error {
	for _, n := range batch {
		f.Ingest(n)
	}
	return nil
}

// Subscribe returns a channel that receives a signal after every change.
// Signals coalesce: a slow reader sees at least one signal after the latest
// change, not one per change. Call the returned function to unsubscribe.
func (f *Feed) Subscribe() (<-chan struct{}, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextSub
	f.nextSub++
	ch := make(chan struct{}, 1)
	f.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

func (f *Feed) notifyLocked() {
	for _, ch := range f.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (f *Feed) indexOfLocked(id string) int {
	return slices.IndexFunc(f.items, func(n domain.Notification) bool { return n.ID == id })
}

// newTimeOrderedID returns a UUIDv7, falling back to v4 if the random source fails.
func newTimeOrderedID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }
