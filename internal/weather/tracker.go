package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/water-advisory-service/internal/advisory"
	"github.com/couchcryptid/water-advisory-service/internal/domain"
	"github.com/couchcryptid/water-advisory-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// ErrTrackerClosed is returned by Query after Close.
var ErrTrackerClosed = errors.New("weather tracker closed")

// unavailableMessage is shown in place of a verdict when a fetch fails.
const unavailableMessage = "Failed to fetch weather data"

// State is the weather panel state for the latest query.
type State string

const (
	StateIdle        State = "idle"
	StateLoading     State = "loading"
	StateLoaded      State = "loaded"
	StateUnavailable State = "unavailable"
)

// Update is published on every state transition.
type Update struct {
	State      State                 `json:"state"`
	Coordinate *domain.Coordinate    `json:"coordinate,omitempty"`
	Report     *domain.WeatherReport `json:"report,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// Tracker runs at most one weather fetch at a time. A new query cancels the
// previous fetch, and a completion from a superseded query is dropped, so
// the latest query always wins.
type Tracker struct {
	provider domain.WeatherProvider
	clock    clockwork.Clock
	onUpdate func(Update)
	metrics  *observability.Metrics
	logger   *slog.Logger

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	current Update
	closed  bool
	wg      sync.WaitGroup
}

// NewTracker creates an idle tracker. onUpdate is called with the tracker's
// lock held, in transition order, and must not block or call back into the
// tracker.
func NewTracker(provider domain.WeatherProvider, clock clockwork.Clock, onUpdate func(Update), metrics *observability.Metrics, logger *slog.Logger) *Tracker {
	if onUpdate == nil {
		onUpdate = func(Update) {}
	}
	return &Tracker{
		provider: provider,
		clock:    clock,
		onUpdate: onUpdate,
		metrics:  metrics,
		logger:   logger,
		current:  Update{State: StateIdle},
	}
}

// Current returns the latest published state.
func (t *Tracker) Current() Update {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Query starts a fetch for at, cancelling any fetch in flight. It returns
// once the loading state is published; the result arrives via onUpdate.
func (t *Tracker) Query(ctx context.Context, at domain.Coordinate) error {
	if err := at.Validate(); err != nil {
		return fmt.Errorf("weather query: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTrackerClosed
	}
	if t.cancel != nil {
		t.cancel()
	}
	t.gen++
	gen := t.gen
	fetchCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.publishLocked(Update{State: StateLoading, Coordinate: &at})

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer cancel()
		reading, err := t.provider.CurrentWeather(fetchCtx, at)
		t.complete(gen, at, reading, err)
	}()
	return nil
}

func (t *Tracker) complete(gen uint64, at domain.Coordinate, reading domain.WeatherReading, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen {
		t.metrics.WeatherStale.Inc()
		t.logger.Debug("stale weather response dropped", "lat", at.Lat, "lon", at.Lon)
		return
	}
	t.cancel = nil

	if err != nil {
		t.logger.Info("weather unavailable", "lat", at.Lat, "lon", at.Lon, "error", err)
		t.publishLocked(Update{State: StateUnavailable, Coordinate: &at, Error: unavailableMessage})
		return
	}

	report := advisory.Report(reading, at, t.clock.Now())
	t.publishLocked(Update{State: StateLoaded, Coordinate: &at, Report: &report})
}

func (t *Tracker) publishLocked(u Update) {
	t.current = u
	t.onUpdate(u)
}

// Close cancels any fetch in flight and waits for it to finish. Later
// queries fail with ErrTrackerClosed.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.gen++
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.mu.Unlock()

	t.wg.Wait()
}
