// Package viewport translates a selected location into a camera animation
// request for a map surface.
package viewport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/water-advisory-service/internal/domain"
	"github.com/couchcryptid/water-advisory-service/internal/observability"
)

const (
	MinZoom = 0
	MaxZoom = 22

	// Selection defaults used when a water body is picked from search.
	DefaultZoom     = 10
	DefaultDuration = 2 * time.Second
)

// ErrInvalidCamera marks a rejected camera request.
var ErrInvalidCamera = errors.New("invalid camera request")

// DefaultCenter is where the map opens.
var DefaultCenter = domain.Coordinate{Lat: 20.5937, Lon: 78.9629}

// DefaultBounds keeps the camera over India.
var DefaultBounds = Bounds{
	MinLon: 68.1766451354, MinLat: 7.96553477623,
	MaxLon: 97.4025614766, MaxLat: 35.4940095078,
}

// MapSurface is the external map that performs camera animations.
type MapSurface interface {
	FlyTo(ctx context.Context, req CameraRequest) error
}

// CameraRequest asks the surface to animate to Center ([lon, lat]).
type CameraRequest struct {
	Center   [2]float64
	Zoom     float64
	Duration time.Duration
}

type cameraJSON struct {
	Center   [2]float64 `json:"center"`
	Zoom     float64    `json:"zoom"`
	Duration int64      `json:"duration"`
}

// MarshalJSON encodes Duration in milliseconds, as map clients expect.
func (r CameraRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(cameraJSON{Center: r.Center, Zoom: r.Zoom, Duration: r.Duration.Milliseconds()})
}

// UnmarshalJSON decodes a request with Duration in milliseconds.
func (r *CameraRequest) UnmarshalJSON(data []byte) error {
	var c cameraJSON
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	*r = CameraRequest{Center: c.Center, Zoom: c.Zoom, Duration: time.Duration(c.Duration) * time.Millisecond}
	return nil
}

// Bounds is a lon/lat rectangle.
type Bounds struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

// Validate checks the corners are valid coordinates in the right order.
func (b Bounds) Validate() error {
	sw := domain.Coordinate{Lat: b.MinLat, Lon: b.MinLon}
	ne := domain.Coordinate{Lat: b.MaxLat, Lon: b.MaxLon}
	if err := errors.Join(sw.Validate(), ne.Validate()); err != nil {
		return fmt.Errorf("bounds: %w", err)
	}
	if b.MinLat > b.MaxLat || b.MinLon > b.MaxLon {
		return fmt.Errorf("bounds: south-west corner must not exceed north-east corner")
	}
	return nil
}

// Clamp moves c to the nearest point inside b.
func (b Bounds) Clamp(c domain.Coordinate) domain.Coordinate {
	return domain.Coordinate{
		Lat: math.Min(math.Max(c.Lat, b.MinLat), b.MaxLat),
		Lon: math.Min(math.Max(c.Lon, b.MinLon), b.MaxLon),
	}
}

// Controller issues camera requests. It holds no per-surface state; the
// surface is passed to every call.
type Controller struct {
	bounds  *Bounds
	metrics *observability.Metrics
}

// NewController creates a controller. A nil bounds disables clamping.
func NewController(bounds *Bounds, metrics *observability.Metrics) *Controller {
	return &Controller{bounds: bounds, metrics: metrics}
}

// MoveTo validates the target and asks surface to fly there. A nil surface
// is a no-op.
func (c *Controller) MoveTo(ctx context.Context, surface MapSurface, coord domain.Coordinate, zoom float64, duration time.Duration) error {
	if err := coord.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCamera, err)
	}
	if math.IsNaN(zoom) || zoom < MinZoom || zoom > MaxZoom {
		return fmt.Errorf("%w: zoom %v outside [%d, %d]", ErrInvalidCamera, zoom, MinZoom, MaxZoom)
	}
	if duration < 0 {
		return fmt.Errorf("%w: negative duration %s", ErrInvalidCamera, duration)
	}
	if surface == nil {
		return nil
	}

	if c.bounds != nil {
		coord = c.bounds.Clamp(coord)
	}
	req := CameraRequest{
		Center:   [2]float64{coord.Lon, coord.Lat},
		Zoom:     zoom,
		Duration: duration,
	}
	if err := surface.FlyTo(ctx, req); err != nil {
		return fmt.Errorf("fly to: %w", err)
	}
	c.metrics.ViewportMoves.Inc()
	return nil
}

// Select moves to a water body with the selection defaults.
func (c *Controller) Select(ctx context.Context, surface MapSurface, wb domain.WaterBody) error {
	return c.MoveTo(ctx, surface, wb.Coordinate, DefaultZoom, DefaultDuration)
}
