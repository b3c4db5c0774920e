package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidCoordinate marks a latitude/longitude pair outside WGS-84 bounds.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	// ErrInvalidWaterBody marks a gazetteer entry that fails validation.
	ErrInvalidWaterBody = errors.New("invalid water body")
)

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"latitude"`
	Lon float64 `json:"lon" yaml:"longitude"`
}

// Validate reports whether both components are finite and in range.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of [-90, 90]", ErrInvalidCoordinate, c.Lat)
	}
	if math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v out of [-180, 180]", ErrInvalidCoordinate, c.Lon)
	}
	return nil
}

// WaterBodyType is the gazetteer category of an entry.
type WaterBodyType string

const (
	TypeRiver WaterBodyType = "river"
	TypeLake  WaterBodyType = "lake"
	TypeSea   WaterBodyType = "sea"
	TypeOcean WaterBodyType = "ocean"
	TypePort  WaterBodyType = "port"
)

// Valid reports whether t is one of the known categories.
func (t WaterBodyType) Valid() bool {
	switch t {
	case TypeRiver, TypeLake, TypeSea, TypeOcean, TypePort:
		return true
	}
	return false
}

// WaterQuality grades the water of an entry. The zero value means unknown.
type WaterQuality string

const (
	QualityPoor     WaterQuality = "Poor"
	QualityModerate WaterQuality = "Moderate"
	QualityGood     WaterQuality = "Good"
)

// Valid reports whether q is a known grade or unknown (empty).
func (q WaterQuality) Valid() bool {
	switch q {
	case "", QualityPoor, QualityModerate, QualityGood:
		return true
	}
	return false
}

// WaterBody is a named gazetteer entry with the attributes used for scoring.
type WaterBody struct {
	Name              string        `json:"name" yaml:"name"`
	Type              WaterBodyType `json:"type" yaml:"type"`
	Coordinate        Coordinate    `json:"coordinate" yaml:",inline"`
	WaterQuality      WaterQuality  `json:"waterQuality,omitempty" yaml:"waterQuality"`
	DepthMeters       *float64      `json:"depthMeters,omitempty" yaml:"depthMeters"`
	FishSpecies       []string      `json:"fishSpecies,omitempty" yaml:"fishSpecies"`
	BestFishingWindow string        `json:"bestFishingWindow,omitempty" yaml:"bestFishingWindow"`
}

// Validate checks a single entry. Uniqueness across the gazetteer is checked
// by the loader.
func (w WaterBody) Validate() error {
	var errs []error
	if strings.TrimSpace(w.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if !w.Type.Valid() {
		errs = append(errs, fmt.Errorf("unknown type %q", w.Type))
	}
	if err := w.Coordinate.Validate(); err != nil {
		errs = append(errs, err)
	}
	if !w.WaterQuality.Valid() {
		errs = append(errs, fmt.Errorf("unknown water quality %q", w.WaterQuality))
	}
	if w.DepthMeters != nil {
		d := *w.DepthMeters
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			errs = append(errs, fmt.Errorf("depth %v must be a non-negative number", d))
		}
	}
	seen := make(map[string]struct{}, len(w.FishSpecies))
	for _, s := range w.FishSpecies {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" {
			errs = append(errs, errors.New("empty fish species name"))
			continue
		}
		if _, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("duplicate fish species %q", s))
		}
		seen[key] = struct{}{}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w %q: %w", ErrInvalidWaterBody, w.Name, errors.Join(errs...))
}

// SearchResult is a ranked gazetteer match. Rank is 1-based.
type SearchResult struct {
	Rank      int       `json:"rank"`
	WaterBody WaterBody `json:"waterBody"`
}

// SearchOutcome separates "no search issued" from "searched, nothing found".
type SearchOutcome struct {
	Query   string         `json:"query"`
	Issued  bool           `json:"issued"`
	Results []SearchResult `json:"results"`
}
