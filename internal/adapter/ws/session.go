// Package ws serves the map surface protocol over websockets.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
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
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from the peer.
	maxMessageSize = 64 << 10

	sendBuffer = 32
)

var errSessionClosed = errors.New("session closed")

// Deps are the core components a session drives. Weather may be nil when no
// provider is configured.
type Deps struct {
	Index    *gazetteer.Index
	Feed     *feed.Feed
	Viewport *viewport.Controller
	Weather  domain.WeatherProvider
	Clock    clockwork.Clock
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// Handler upgrades requests to map sessions.
type Handler struct {
	deps     Deps
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHandler creates a websocket handler. Call Close to end every session.
func NewHandler(deps Deps) *Handler {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The map client is served from its own origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.wg.Add(1)
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.wg.Done()
		// Upgrade has already replied with an HTTP error.
		h.deps.Logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	s := newSession(conn, h.deps, h.deps.Logger.With("remote", r.RemoteAddr))
	go func() {
		defer h.wg.Done()
		s.run(h.ctx)
	}()
}

// Close ends all sessions and waits for them to finish.
func (h *Handler) Close() {
	h.cancel()
	h.wg.Wait()
}

type session struct {
	conn    *websocket.Conn
	deps    Deps
	logger  *slog.Logger
	out     chan serverMessage
	ctx     context.Context
	tracker *weather.Tracker
}

func newSession(conn *websocket.Conn, deps Deps, logger *slog.Logger) *session {
	return &session{
		conn:   conn,
		deps:   deps,
		logger: logger,
		out:    make(chan serverMessage, sendBuffer),
	}
}

func (s *session) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	s.ctx = ctx

	s.deps.Metrics.ActiveSessions.Inc()
	defer s.deps.Metrics.ActiveSessions.Dec()
	s.logger.Info("map session opened")
	defer s.logger.Info("map session closed")

	if s.deps.Weather != nil {
		s.tracker = weather.NewTracker(s.deps.Weather, s.deps.Clock, s.pushWeather, s.deps.Metrics, s.logger)
		defer s.tracker.Close()
	}

	updates, unsubscribe := s.deps.Feed.Subscribe()
	defer unsubscribe()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.writePump(ctx)
		cancel()
	}()
	go func() {
		defer wg.Done()
		s.forwardFeed(ctx, updates)
	}()

	s.pushFeed()
	if s.tracker != nil {
		// The map opens on the default center.
		_ = s.tracker.Query(ctx, viewport.DefaultCenter)
	}
	s.readPump(ctx)

	cancel()
	wg.Wait()
}

// writePump is the only goroutine that writes to the connection.
func (s *session) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		case msg := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *session) readPump(ctx context.Context) {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError("malformed message: " + err.Error())
			continue
		}
		s.handle(ctx, msg)
	}
}

func (s *session) forwardFeed(ctx context.Context, updates <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			s.pushFeed()
		}
	}
}

func (s *session) handle(ctx context.Context, msg clientMessage) {
	switch msg.Type {
	case typeSearch:
		s.handleSearch(msg.Query)
	case typeSelect:
		s.handleSelect(ctx, msg.Name)
	case typeClick:
		s.handleClick(ctx, msg)
	case typeFeature:
		s.handleFeature(msg)
	case typeDismiss:
		s.deps.Feed.Dismiss(msg.ID)
	default:
		s.sendError("unknown message type " + msg.Type)
	}
}

func (s *session) handleSearch(query string) {
	outcome := s.deps.Index.Search(query)
	s.deps.Metrics.Searches.WithLabelValues(searchOutcome(outcome)).Inc()
	_ = s.send(typeSearchResults, outcome)
}

func (s *session) handleSelect(ctx context.Context, name string) {
	wb, ok := s.deps.Index.Lookup(name)
	if !ok {
		s.sendError("unknown water body " + name)
		return
	}
	if err := s.deps.Viewport.Select(ctx, s, wb); err != nil {
		s.logger.Warn("select failed", "name", wb.Name, "error", err)
		s.sendError(err.Error())
		return
	}
	// Selecting a result clears the list and fills the box with the name.
	_ = s.send(typeSearchResults, domain.SearchOutcome{Query: wb.Name, Results: []domain.SearchResult{}})
}

func (s *session) handleClick(ctx context.Context, msg clientMessage) {
	coord, ok := msg.coordinate()
	if !ok {
		s.sendError("click requires lat and lon")
		return
	}
	if s.tracker == nil {
		_ = s.send(typeWeather, weather.Update{State: weather.StateUnavailable, Coordinate: &coord, Error: "Weather data is not configured"})
		return
	}
	if err := s.tracker.Query(ctx, coord); err != nil {
		s.sendError(err.Error())
	}
}

func (s *session) handleFeature(msg clientMessage) {
	if msg.Properties == nil {
		s.sendError("feature requires properties")
		return
	}

	coord, ok := msg.coordinate()
	if !ok {
		known, found := s.deps.Index.Lookup(msg.Properties.Name)
		if !found {
			s.sendError("feature requires lat and lon")
			return
		}
		coord = known.Coordinate
	}

	wb, err := msg.Properties.WaterBody(coord)
	if err != nil {
		s.sendError(err.Error())
		return
	}
	_ = s.send(typeWaterBody, advisory.Describe(wb))
}

func (s *session) pushFeed() {
	_ = s.send(typeFeed, s.deps.Feed.Snapshot())
}

// pushWeather runs with the tracker lock held.
func (s *session) pushWeather(u weather.Update) {
	_ = s.send(typeWeather, u)
}

func (s *session) sendError(message string) {
	_ = s.send(typeError, errorPayload{Message: message})
}

// send queues a message for the writer. It blocks while the queue is full
// and fails once the session is closing.
func (s *session) send(typ string, data any) error {
	select {
	case s.out <- serverMessage{Type: typ, Data: data}:
		return nil
	case <-s.ctx.Done():
		return errSessionClosed
	}
}

func searchOutcome(o domain.SearchOutcome) string {
	switch {
	case !o.Issued:
		return "suppressed"
	case len(o.Results) == 0:
		return "miss"
	default:
		return "hit"
	}
}
