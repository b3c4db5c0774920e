package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/water-advisory-service/internal/advisory"
	"github.com/couchcryptid/water-advisory-service/internal/domain"
	"github.com/couchcryptid/water-advisory-service/internal/feed"
	"github.com/couchcryptid/water-advisory-service/internal/gazetteer"
	"github.com/couchcryptid/water-advisory-service/internal/observability"
	"github.com/couchcryptid/water-advisory-service/internal/viewport"
	"github.com/couchcryptid/water-advisory-service/internal/weather"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionTime = time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

type stubWeather struct {
	reading domain.WeatherReading
	err     error
}

func (s stubWeather) CurrentWeather(context.Context, domain.Coordinate) (domain.WeatherReading, error) {
	return s.reading, s.err
}

type testEnv struct {
	conn *websocket.Conn
	feed *feed.Feed
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newTestEnv(t *testing.T, provider domain.WeatherProvider) *testEnv {
	t.Helper()

	entries, err := gazetteer.Default()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClockAt(sessionTime)

	f := feed.New(feed.DefaultCapacity, metrics, logger, feed.WithClock(clock))
	f.SeedWelcome()

	h := NewHandler(Deps{
		Index:    gazetteer.NewIndex(entries),
		Feed:     f,
		Viewport: viewport.NewController(&viewport.DefaultBounds, metrics),
		Weather:  provider,
		Clock:    clock,
		Metrics:  metrics,
		Logger:   logger,
	})
	srv := httptest.NewServer(h)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	t.Cleanup(func() {
		conn.Close()
		h.Close()
		srv.Close()
	})

	env := &testEnv{conn: conn, feed: f}
	env.readUntil(t, typeFeed)
	return env
}

func (e *testEnv) sendJSON(t *testing.T, msg any) {
	t.Helper()
	require.NoError(t, e.conn.WriteJSON(msg))
}

// readUntil skips messages of other types, which covers feed pushes that
// race with the message under test.
func (e *testEnv) readUntil(t *testing.T, typ string) json.RawMessage {
	t.Helper()
	require.NoError(t, e.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var env envelope
		require.NoError(t, e.conn.ReadJSON(&env))
		if env.Type == typ {
			return env.Data
		}
	}
}

// readWeatherAt returns the next weather update for the given latitude,
// skipping updates for the initial default-center query.
func (e *testEnv) readWeatherAt(t *testing.T, lat float64) weather.Update {
	t.Helper()
	for {
		u := decode[weather.Update](t, e.readUntil(t, typeWeather))
		if u.Coordinate != nil && u.Coordinate.Lat == lat {
			return u
		}
	}
}

func decode[T any](t *testing.T, data json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v))
	return v
}

func TestSession_InitialFeed(t *testing.T) {
	entries, err := gazetteer.Default()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	f := feed.New(feed.DefaultCapacity, metrics, logger, feed.WithClock(clockwork.NewFakeClockAt(sessionTime)))
	f.SeedWelcome()

	h := NewHandler(Deps{
		Index:    gazetteer.NewIndex(entries),
		Feed:     f,
		Viewport: viewport.NewController(nil, metrics),
		Metrics:  metrics,
		Logger:   logger,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	var env envelope
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, typeFeed, env.Type)

	items := decode[[]domain.Notification](t, env.Data)
	require.Len(t, items, 1)
	assert.Equal(t, feed.WelcomeID, items[0].ID)
	assert.Equal(t, "Click on any water body to get detailed fishing information and weather conditions.", items[0].Message)
}

func TestSession_Search(t *testing.T) {
	env := newTestEnv(t, nil)

	env.sendJSON(t, map[string]string{"type": typeSearch, "query": "lake"})
	out := decode[domain.SearchOutcome](t, env.readUntil(t, typeSearchResults))

	assert.True(t, out.Issued)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "Dal Lake", out.Results[0].WaterBody.Name)
	assert.Equal(t, "Vembanad Lake", out.Results[1].WaterBody.Name)
	assert.Equal(t, 1, out.Results[0].Rank)
}

func TestSession_ShortQueryNotIssued(t *testing.T) {
	env := newTestEnv(t, nil)

	env.sendJSON(t, map[string]string{"type": typeSearch, "query": "da"})
	out := decode[domain.SearchOutcome](t, env.readUntil(t, typeSearchResults))

	assert.False(t, out.Issued)
	assert.Empty(t, out.Results)
}

func TestSession_SelectFliesToWaterBody(t *testing.T) {
	env := newTestEnv(t, nil)

	env.sendJSON(t, map[string]string{"type": typeSelect, "name": "dal lake"})

	req := decode[viewport.CameraRequest](t, env.readUntil(t, typeFlyTo))
	assert.InDelta(t, 74.8619, req.Center[0], 1e-9)
	assert.InDelta(t, 34.1688, req.Center[1], 1e-9)
	assert.InDelta(t, 10.0, req.Zoom, 1e-9)
	assert.Equal(t, 2*time.Second, req.Duration)

	out := decode[domain.SearchOutcome](t, env.readUntil(t, typeSearchResults))
	assert.Equal(t, "Dal Lake", out.Query)
	assert.Empty(t, out.Results)
}

func TestSession_SelectUnknown(t *testing.T) {
	env := newTestEnv(t, nil)

	env.sendJSON(t, map[string]string{"type": typeSelect, "name": "Atlantis"})
	msg := decode[errorPayload](t, env.readUntil(t, typeError))
	assert.Contains(t, msg.Message, "Atlantis")
}

func TestSession_ClickLoadsWeather(t *testing.T) {
	env := newTestEnv(t, stubWeather{reading: domain.WeatherReading{
		TemperatureC: 27.4,
		HumidityPct:  70,
		WindSpeedKmh: 8,
		VisibilityKm: 10,
		Condition:    "Clear",
	}})

	env.sendJSON(t, map[string]any{"type": typeClick, "lat": 34.1688, "lon": 74.8619})

	loading := env.readWeatherAt(t, 34.1688)
	assert.Equal(t, weather.StateLoading, loading.State)
	assert.InDelta(t, 74.8619, loading.Coordinate.Lon, 1e-9)

	loaded := env.readWeatherAt(t, 34.1688)
	assert.Equal(t, weather.StateLoaded, loaded.State)
	require.NotNil(t, loaded.Report)
	assert.Equal(t, 27, loaded.Report.Display.TemperatureC)
	assert.Equal(t, "Clear", loaded.Report.Display.Condition)
}

func TestSession_ClickProviderFailure(t *testing.T) {
	env := newTestEnv(t, stubWeather{err: domain.ErrWeatherUnavailable})

	env.sendJSON(t, map[string]any{"type": typeClick, "lat": 20.0, "lon": 78.0})

	assert.Equal(t, weather.StateLoading, env.readWeatherAt(t, 20.0).State)
	failed := env.readWeatherAt(t, 20.0)
	assert.Equal(t, weather.StateUnavailable, failed.State)
	assert.NotEmpty(t, failed.Error)
}

func TestSession_InitialWeatherAtDefaultCenter(t *testing.T) {
	env := newTestEnv(t, stubWeather{reading: domain.WeatherReading{TemperatureC: 24, HumidityPct: 55, WindSpeedKmh: 5, VisibilityKm: 10, Condition: "Clear"}})

	assert.Equal(t, weather.StateLoading, env.readWeatherAt(t, viewport.DefaultCenter.Lat).State)
	loaded := env.readWeatherAt(t, viewport.DefaultCenter.Lat)
	assert.Equal(t, weather.StateLoaded, loaded.State)
	require.NotNil(t, loaded.Report)
	assert.True(t, loaded.Report.Verdict.IsFishingFriendly)
}

func TestSession_ClickWithoutProvider(t *testing.T) {
	env := newTestEnv(t, nil)

	env.sendJSON(t, map[string]any{"type": typeClick, "lat": 20.0, "lon": 78.0})
	u := decode[weather.Update](t, env.readUntil(t, typeWeather))

	assert.Equal(t, weather.StateUnavailable, u.State)
	assert.Equal(t, "Weather data is not configured", u.Error)
}

func TestSession_ClickMissingCoordinate(t *testing.T) {
	env := newTestEnv(t, nil)

	env.sendJSON(t, map[string]any{"type": typeClick, "lat": 20.0})
	msg := decode[errorPayload](t, env.readUntil(t, typeError))
	assert.Equal(t, "click requires lat and lon", msg.Message)
}

func TestSession_FeatureDescribesWaterBody(t *testing.T) {
	env := newTestEnv(t, nil)

	env.sendJSON(t, map[string]any{
		"type": typeFeature,
		"lat":  25.3176,
		"lon":  82.9739,
		"properties": map[string]any{
			"name":         "Ganges River",
			"type":         "river",
			"waterQuality": "Good",
			"depth":        "12m",
			"fishTypes":    `["Rohu","Catla","Mrigal","Hilsa"]`,
		},
	})

	info := decode[advisory.WaterBodyInfo](t, env.readUntil(t, typeWaterBody))
	assert.Equal(t, "Ganges River", info.WaterBody.Name)
	assert.Equal(t, 95, info.Score)
	assert.Equal(t, advisory.TierExcellent, info.Tier)
}

func TestSession_FeatureFallsBackToGazetteerCoordinate(t *testing.T) {
	env := newTestEnv(t, nil)

	env.sendJSON(t, map[string]any{
		"type":       typeFeature,
		"properties": map[string]any{"name": "Dal Lake", "type": "lake", "depth": 6},
	})

	info := decode[advisory.WaterBodyInfo](t, env.readUntil(t, typeWaterBody))
	assert.InDelta(t, 34.1688, info.WaterBody.Coordinate.Lat, 1e-9)
	assert.InDelta(t, 74.8619, info.WaterBody.Coordinate.Lon, 1e-9)
}

func TestSession_FeatureInvalid(t *testing.T) {
	env := newTestEnv(t, nil)

	env.sendJSON(t, map[string]any{
		"type":       typeFeature,
		"lat":        20.0,
		"lon":        78.0,
		"properties": map[string]any{"name": "Puddle", "type": "puddle"},
	})
	msg := decode[errorPayload](t, env.readUntil(t, typeError))
	assert.Contains(t, msg.Message, "invalid feature")
}

func TestSession_DismissPushesFeed(t *testing.T) {
	env := newTestEnv(t, nil)

	env.sendJSON(t, map[string]string{"type": typeDismiss, "id": feed.WelcomeID})

	assert.Eventually(t, func() bool { return env.feed.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	items := decode[[]domain.Notification](t, env.readUntil(t, typeFeed))
	assert.Empty(t, items)
}

func TestSession_IngestPushesFeed(t *testing.T) {
	env := newTestEnv(t, nil)

	env.feed.Ingest(domain.Notification{
		ID:        "storm-1",
		Category:  domain.CategoryAlert,
		Title:     "Cyclone Watch",
		Message:   "Cyclone forming in the Bay of Bengal.",
		CreatedAt: sessionTime.Add(time.Minute),
		Priority:  domain.PriorityHigh,
	})

	items := decode[[]domain.Notification](t, env.readUntil(t, typeFeed))
	require.Len(t, items, 2)
	assert.Equal(t, "storm-1", items[0].ID)
	assert.Equal(t, feed.WelcomeID, items[1].ID)
}

func TestSession_MalformedMessage(t *testing.T) {
	env := newTestEnv(t, nil)

	require.NoError(t, env.conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg := decode[errorPayload](t, env.readUntil(t, typeError))
	assert.True(t, strings.HasPrefix(msg.Message, "malformed message"))
}

func TestSession_UnknownType(t *testing.T) {
	env := newTestEnv(t, nil)

	env.sendJSON(t, map[string]string{"type": "teleport"})
	msg := decode[errorPayload](t, env.readUntil(t, typeError))
	assert.Equal(t, "unknown message type teleport", msg.Message)
}

func TestHandler_CloseEndsSessions(t *testing.T) {
	entries, err := gazetteer.Default()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	h := NewHandler(Deps{
		Index:    gazetteer.NewIndex(entries),
		Feed:     feed.New(0, metrics, logger),
		Viewport: viewport.NewController(nil, metrics),
		Metrics:  metrics,
		Logger:   logger,
	})
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	h.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
			break
		}
	}
}
