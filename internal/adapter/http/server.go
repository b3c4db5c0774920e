package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/water-advisory-service/internal/advisory"
	"github.com/couchcryptid/water-advisory-service/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 64 << 10

// Gazetteer answers location queries.
type Gazetteer interface {
	Search(query string) domain.SearchOutcome
	Lookup(name string) (domain.WaterBody, bool)
	All() []domain.WaterBody
}

// Feed is the read and dismiss side of the notification feed.
type Feed interface {
	Snapshot() []domain.Notification
	Dismiss(id string) bool
}

// Submitter accepts an externally produced notification and returns it with
// its assigned id.
type Submitter interface {
	Submit(ctx context.Context, n domain.Notification) (domain.Notification, error)
}

// Routes are the components served by the API. Weather and Sessions may be
// nil, which disables the corresponding endpoints.
type Routes struct {
	Gazetteer Gazetteer
	Feed      Feed
	Submitter Submitter
	Weather   domain.WeatherProvider
	Sessions  http.Handler
	Clock     clockwork.Clock
}

// Server exposes the advisory API, the map websocket, and the health,
// readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	routes     Routes
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the API under /api, the map session
// at /ws, and /healthz, /readyz, and /metrics.
func NewServer(addr string, routes Routes, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	if routes.Clock == nil {
		routes.Clock = clockwork.NewRealClock()
	}
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		routes: routes,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/waterbodies", s.handleListWaterBodies)
	mux.HandleFunc("GET /api/waterbodies/{name}", s.handleGetWaterBody)
	mux.HandleFunc("GET /api/weather", s.handleWeather)
	mux.HandleFunc("GET /api/notifications", s.handleListNotifications)
	mux.HandleFunc("POST /api/notifications", s.handleSubmitNotification)
	mux.HandleFunc("DELETE /api/notifications/{id}", s.handleDismissNotification)
	if routes.Sessions != nil {
		mux.Handle("GET /ws", routes.Sessions)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
// Hijacked websocket connections are not drained; close the session handler
// separately.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.routes.Gazetteer.Search(r.URL.Query().Get("q")))
}

func (s *Server) handleListWaterBodies(w http.ResponseWriter, _ *http.Request) {
	all := s.routes.Gazetteer.All()
	out := make([]advisory.WaterBodyInfo, 0, len(all))
	for _, wb := range all {
		out = append(out, advisory.Describe(wb))
	}
	sharedobs.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetWaterBody(w http.ResponseWriter, r *http.Request) {
	wb, ok := s.routes.Gazetteer.Lookup(r.PathValue("name"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown water body")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, advisory.Describe(wb))
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	if s.routes.Weather == nil {
		writeError(w, http.StatusServiceUnavailable, "weather data is not configured")
		return
	}

	coord, err := parseCoordinate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reading, err := s.routes.Weather.CurrentWeather(r.Context(), coord)
	if err != nil {
		s.logger.Warn("weather lookup failed", "lat", coord.Lat, "lon", coord.Lon, "error", err)
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrWeatherUnavailable) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, "Failed to fetch weather data")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, advisory.Report(reading, coord, s.routes.Clock.Now()))
}

func (s *Server) handleListNotifications(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.routes.Feed.Snapshot())
}

func (s *Server) handleSubmitNotification(w http.ResponseWriter, r *http.Request) {
	var ev domain.NotificationEvent
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "malformed notification: "+err.Error())
		return
	}

	n, err := domain.NotificationFromEvent(ev)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err = s.routes.Submitter.Submit(r.Context(), n)
	if err != nil {
		s.logger.Error("notification submit failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to submit notification")
		return
	}
	sharedobs.WriteJSON(w, http.StatusAccepted, domain.EventFromNotification(n))
}

// handleDismissNotification is idempotent: an unknown id is already absent.
func (s *Server) handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	s.routes.Feed.Dismiss(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func parseCoordinate(r *http.Request) (domain.Coordinate, error) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		return domain.Coordinate{}, errors.New("lat must be a number")
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		return domain.Coordinate{}, errors.New("lon must be a number")
	}
	c := domain.Coordinate{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return domain.Coordinate{}, err
	}
	return c, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": message})
}
