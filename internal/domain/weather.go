package domain

import (
	"context"
	"errors"
	"time"
)

// ErrWeatherUnavailable is returned by providers when no reading could be
// obtained. Callers surface it as a retryable "unavailable" state.
var ErrWeatherUnavailable = errors.New("weather unavailable")

// WeatherReading is a single observation in display units, unrounded.
type WeatherReading struct {
	TemperatureC float64 `json:"temperatureC"`
	HumidityPct  float64 `json:"humidityPct"`
	WindSpeedKmh float64 `json:"windSpeedKmh"`
	VisibilityKm float64 `json:"visibilityKm"`
	Condition    string  `json:"condition"`
}

// WeatherDisplay holds the rounded values shown to the user.
type WeatherDisplay struct {
	TemperatureC int    `json:"temperatureC"`
	HumidityPct  int    `json:"humidityPct"`
	WindSpeedKmh int    `json:"windSpeedKmh"`
	VisibilityKm int    `json:"visibilityKm"`
	Condition    string `json:"condition"`
}

// AdvisoryVerdict is derived from a WeatherReading; it has no identity of its own.
type AdvisoryVerdict struct {
	IsFishingFriendly bool   `json:"isFishingFriendly"`
	AdviceText        string `json:"adviceText"`
}

// SunWindow is the civil dawn to dusk span at a coordinate on a given day.
type SunWindow struct {
	Dawn    time.Time `json:"dawn"`
	Sunrise time.Time `json:"sunrise"`
	Sunset  time.Time `json:"sunset"`
	Dusk    time.Time `json:"dusk"`
}

// WeatherReport bundles everything the weather panel renders for one query.
type WeatherReport struct {
	Coordinate Coordinate      `json:"coordinate"`
	Reading    WeatherReading  `json:"reading"`
	Display    WeatherDisplay  `json:"display"`
	Verdict    AdvisoryVerdict `json:"verdict"`
	Sun        *SunWindow      `json:"sun,omitempty"`
	ObservedAt time.Time       `json:"observedAt"`
}

// WeatherProvider fetches the current reading at a coordinate. Failures wrap
// ErrWeatherUnavailable; a provider never returns a partial reading.
type WeatherProvider interface {
	CurrentWeather(ctx context.Context, at Coordinate) (WeatherReading, error)
}
