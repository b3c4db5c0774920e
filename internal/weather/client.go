// Package weather fetches current conditions and tracks the latest query per
// map session.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/water-advisory-service/internal/advisory"
	"github.com/couchcryptid/water-advisory-service/internal/domain"
	"github.com/couchcryptid/water-advisory-service/internal/observability"
)

// DefaultBaseURL is the OpenWeatherMap API root.
const DefaultBaseURL = "https://api.openweathermap.org"

// Client implements domain.WeatherProvider using the OpenWeatherMap current
// weather API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenWeatherMap client. An empty baseURL means DefaultBaseURL.
func NewClient(apiKey, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// CurrentWeather returns the reading at a coordinate in km/h and km.
func (c *Client) CurrentWeather(ctx context.Context, at domain.Coordinate) (domain.WeatherReading, error) {
	params := url.Values{
		"lat":   {strconv.FormatFloat(at.Lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(at.Lon, 'f', -1, 64)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}
	fullURL := c.baseURL + "/data/2.5/weather?" + params.Encode()

	start := time.Now()
	reading, err := c.doRequest(ctx, fullURL)
	c.metrics.WeatherAPIDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		c.logger.Warn("weather request failed", "lat", at.Lat, "lon", at.Lon, "error", err)
		return domain.WeatherReading{}, err
	}
	c.metrics.WeatherRequests.WithLabelValues("success").Inc()
	return reading, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.WeatherReading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.WeatherReading{}, fmt.Errorf("%w: create request: %w", domain.ErrWeatherUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WeatherReading{}, fmt.Errorf("%w: weather request: %w", domain.ErrWeatherUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.WeatherReading{}, fmt.Errorf("%w: openweathermap status %d: %s", domain.ErrWeatherUnavailable, resp.StatusCode, body)
	}

	var owmResp response
	if err := json.NewDecoder(resp.Body).Decode(&owmResp); err != nil {
		return domain.WeatherReading{}, fmt.Errorf("%w: decode response: %w", domain.ErrWeatherUnavailable, err)
	}
	if err := owmResp.validate(); err != nil {
		return domain.WeatherReading{}, fmt.Errorf("%w: %w", domain.ErrWeatherUnavailable, err)
	}

	reading := domain.WeatherReading{
		TemperatureC: *owmResp.Main.Temp,
		HumidityPct:  *owmResp.Main.Humidity,
		WindSpeedKmh: advisory.WindKmh(*owmResp.Wind.Speed),
		VisibilityKm: advisory.VisibilityKm(owmResp.Visibility),
	}
	if len(owmResp.Weather) > 0 {
		reading.Condition = owmResp.Weather[0].Description
	}
	return reading, nil
}

// OpenWeatherMap API response types.

type response struct {
	Main       *mainBlock  `json:"main"`
	Wind       *windBlock  `json:"wind"`
	Visibility float64     `json:"visibility"` // meters
	Weather    []condition `json:"weather"`
}

// validate rejects a response that lacks any value the verdict depends on.
func (r response) validate() error {
	var missing []string
	if r.Main == nil || r.Main.Temp == nil {
		missing = append(missing, "main.temp")
	}
	if r.Main == nil || r.Main.Humidity == nil {
		missing = append(missing, "main.humidity")
	}
	if r.Wind == nil || r.Wind.Speed == nil {
		missing = append(missing, "wind.speed")
	}
	if len(missing) > 0 {
		return fmt.Errorf("response missing %s", strings.Join(missing, ", "))
	}
	return nil
}

type mainBlock struct {
	Temp     *float64 `json:"temp"`
	Humidity *float64 `json:"humidity"`
}

type windBlock struct {
	Speed *float64 `json:"speed"` // m/s
}

type condition struct {
	Description string `json:"description"`
}
