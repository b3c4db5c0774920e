// Package domain models the water bodies, weather readings and notifications
// behind the fishing advisory map.
//
// # Gazetteer
//
// The gazetteer is a static list of named water features (rivers, lakes,
// seas, oceans) and ports, loaded once at startup and never mutated. Each
// entry carries the attributes the fishing score is computed from:
//
//	waterQuality       Poor | Moderate | Good (empty = unknown)
//	depthMeters        optional, non-negative
//	fishSpecies        unique names, display order = declaration order
//	bestFishingWindow  free text, e.g. "05:00-08:00, 17:00-19:00"
//
// Coordinates are WGS-84 and must be finite with latitude in [-90, 90] and
// longitude in [-180, 180]. Invalid static data fails the load; it is
// configuration, not user input.
//
// # Weather units
//
// The upstream provider reports wind speed in m/s and visibility in meters.
// [WeatherReading] stores km/h and km, unrounded. Display values are rounded
// half-up to whole numbers by the advisory package and are never fed back
// into the fishing-friendly predicate.
//
// # Notifications
//
// Notifications carry a category (weather, fishing, alert) and a priority
// (low, medium, high). IDs are time-ordered UUIDv7 strings when the
// producer does not supply one. Feed ordering is by CreatedAt, newest first.
package domain
