package weather

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/couchcryptid/water-advisory-service/internal/domain"
	"github.com/couchcryptid/water-advisory-service/internal/observability"
	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey      = "test-key"
	weatherEndpoint = `=~^https://api\.openweathermap\.org/data/2\.5/weather`
)

var dalLake = domain.Coordinate{Lat: 34.1, Lon: 74.8}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testClient returns a client whose transport is intercepted by httpmock.
func testClient(t *testing.T) (*Client, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	c := NewClient(testAPIKey, "", 5*time.Second, metrics, discardLogger())
	httpmock.ActivateNonDefault(c.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c, metrics
}

func openWeatherSuccessResponse() string {
	return `{
  "coord": {"lon": 74.8, "lat": 34.1},
  "weather": [{"id": 800, "main": "Clear", "description": "clear sky", "icon": "01d"}],
  "main": {"temp": 22.4, "feels_like": 21.9, "pressure": 1014, "humidity": 60},
  "visibility": 10000,
  "wind": {"speed": 2.5, "deg": 240},
  "name": "Srinagar"
}`
}

func TestClient_CurrentWeather_Success(t *testing.T) {
	c, metrics := testClient(t)

	httpmock.RegisterResponder("GET", weatherEndpoint,
		func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query()
			assert.Equal(t, "34.1", q.Get("lat"))
			assert.Equal(t, "74.8", q.Get("lon"))
			assert.Equal(t, testAPIKey, q.Get("appid"))
			assert.Equal(t, "metric", q.Get("units"))
			return httpmock.NewStringResponse(http.StatusOK, openWeatherSuccessResponse()), nil
		})

	reading, err := c.CurrentWeather(context.Background(), dalLake)

	require.NoError(t, err)
	assert.InDelta(t, 22.4, reading.TemperatureC, 1e-9)
	assert.InDelta(t, 60, reading.HumidityPct, 1e-9)
	assert.InDelta(t, 9.0, reading.WindSpeedKmh, 1e-9)
	assert.InDelta(t, 10.0, reading.VisibilityKm, 1e-9)
	assert.Equal(t, "clear sky", reading.Condition)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.WeatherRequests.WithLabelValues("success")), 0)
}

func TestClient_CurrentWeather_Failures(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
	}{
		{"unauthorized", httpmock.NewStringResponder(http.StatusUnauthorized, `{"cod":401,"message":"Invalid API key"}`)},
		{"server error", httpmock.NewStringResponder(http.StatusInternalServerError, "boom")},
		{"malformed body", httpmock.NewStringResponder(http.StatusOK, "{not json")},
		{"missing main", httpmock.NewStringResponder(http.StatusOK, `{"weather":[],"visibility":1000}`)},
		{"missing humidity and wind speed", httpmock.NewStringResponder(http.StatusOK, `{"main":{"temp":22},"wind":{}}`)},
		{"missing temperature", httpmock.NewStringResponder(http.StatusOK, `{"main":{"humidity":60},"wind":{"speed":2}}`)},
		{"null wind speed", httpmock.NewStringResponder(http.StatusOK, `{"main":{"temp":22,"humidity":60},"wind":{"speed":null}}`)},
		{"transport error", httpmock.NewErrorResponder(errors.New("connection refused"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, metrics := testClient(t)
			httpmock.RegisterResponder("GET", weatherEndpoint, tt.responder)

			_, err := c.CurrentWeather(context.Background(), dalLake)

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrWeatherUnavailable)
			assert.InDelta(t, 1, testutil.ToFloat64(metrics.WeatherRequests.WithLabelValues("error")), 0)
		})
	}
}

func TestClient_CurrentWeather_MissingConditionIsEmpty(t *testing.T) {
	c, _ := testClient(t)
	httpmock.RegisterResponder("GET", weatherEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"main":{"temp":10,"humidity":50},"wind":{"speed":0},"visibility":0}`))

	reading, err := c.CurrentWeather(context.Background(), dalLake)

	require.NoError(t, err)
	assert.Empty(t, reading.Condition)
}

func TestClient_CustomBaseURL(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	c := NewClient(testAPIKey, "http://weather.internal", time.Second, metrics, discardLogger())
	httpmock.ActivateNonDefault(c.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)

	httpmock.RegisterResponder("GET", `=~^http://weather\.internal/data/2\.5/weather`,
		httpmock.NewStringResponder(http.StatusOK, openWeatherSuccessResponse()))

	_, err := c.CurrentWeather(context.Background(), dalLake)
	require.NoError(t, err)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}
