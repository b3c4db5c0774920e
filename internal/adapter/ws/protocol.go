package ws

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/couchcryptid/water-advisory-service/internal/domain"
)

// Client to server message types.
const (
	typeSearch  = "search"
	typeSelect  = "select"
	typeClick   = "click"
	typeFeature = "feature"
	typeDismiss = "dismiss"
)

// Server to client message types.
const (
	typeSearchResults = "search_results"
	typeFlyTo         = "fly_to"
	typeWeather       = "weather"
	typeWaterBody     = "water_body"
	typeFeed          = "feed"
	typeError         = "error"
)

var errInvalidFeature = errors.New("invalid feature")

// clientMessage is the union of every message a map client may send; Type
// selects which fields are meaningful.
type clientMessage struct {
	Type       string             `json:"type"`
	Query      string             `json:"query,omitempty"`
	Name       string             `json:"name,omitempty"`
	Lat        *float64           `json:"lat,omitempty"`
	Lon        *float64           `json:"lon,omitempty"`
	Properties *FeatureProperties `json:"properties,omitempty"`
	ID         string             `json:"id,omitempty"`
}

func (m clientMessage) coordinate() (domain.Coordinate, bool) {
	if m.Lat == nil || m.Lon == nil {
		return domain.Coordinate{}, false
	}
	return domain.Coordinate{Lat: *m.Lat, Lon: *m.Lon}, true
}

type serverMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// FeatureProperties is the property bag of a clicked map feature. Map layers
// flatten arrays and numbers inconsistently, so Depth and FishTypes accept
// several encodings.
type FeatureProperties struct {
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	WaterQuality    string     `json:"waterQuality,omitempty"`
	Depth           Depth      `json:"depth"`
	FishTypes       StringList `json:"fishTypes,omitempty"`
	BestFishingTime string     `json:"bestFishingTime,omitempty"`
}

// WaterBody validates the properties and converts them, placing the result at
// coord.
func (p FeatureProperties) WaterBody(coord domain.Coordinate) (domain.WaterBody, error) {
	wb := domain.WaterBody{
		Name:              strings.TrimSpace(p.Name),
		Type:              domain.WaterBodyType(strings.ToLower(strings.TrimSpace(p.Type))),
		Coordinate:        coord,
		WaterQuality:      normalizeQuality(p.WaterQuality),
		DepthMeters:       p.Depth.Meters,
		FishSpecies:       p.FishTypes,
		BestFishingWindow: strings.TrimSpace(p.BestFishingTime),
	}
	if err := wb.Validate(); err != nil {
		return domain.WaterBody{}, fmt.Errorf("%w: %w", errInvalidFeature, err)
	}
	return wb, nil
}

func normalizeQuality(s string) domain.WaterQuality {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return domain.WaterQuality(string(unicode.ToUpper(r)) + strings.ToLower(s[size:]))
}

// Depth is a depth in meters decoded from a JSON number or a string such as
// "12m" or "15 meters". Only the leading integer of a string is read; a
// string without one leaves Meters nil.
type Depth struct {
	Meters *float64
}

func (d *Depth) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		d.Meters = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		d.Meters = leadingInt(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("depth: %w", err)
	}
	d.Meters = &f
	return nil
}

func leadingInt(s string) *float64 {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return nil
	}
	n, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return nil
	}
	return &n
}

// StringList decodes a JSON array of strings, a JSON-encoded array inside a
// string, or a comma-separated string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*l = arr
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("fish types: want array or string: %w", err)
	}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		if err := json.Unmarshal([]byte(s), &arr); err != nil {
			return fmt.Errorf("fish types: %w", err)
		}
		*l = arr
		return nil
	}

	out := StringList{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*l = out
	return nil
}
