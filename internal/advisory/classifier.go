package advisory

import (
	"math"
	"time"

	"github.com/couchcryptid/water-advisory-service/internal/domain"
)

// Fishing-friendly thresholds. The wind limit is 5 m/s expressed in km/h.
const (
	MinFriendlyTempC    = 15.0
	MaxFriendlyTempC    = 30.0
	MaxFriendlyWindKmh  = 18.0
	MinFriendlyHumidity = 40.0
)

const (
	metersPerSecondToKmh = 3.6
	metersPerKilometer   = 1000.0

	adviceFriendly        = "Excellent fishing conditions! Perfect temperature and calm waters."
	adviceCold            = "Cold water - fish may be less active. Try deeper areas."
	adviceHot             = "Hot weather - fish early morning or evening for best results."
	adviceWindy           = "Windy conditions - fishing may be challenging from shore."
	adviceModerateWeather = "Moderate conditions - adjust your fishing strategy accordingly."
)

// IsFishingFriendly applies the threshold rule to unrounded values.
func IsFishingFriendly(r domain.WeatherReading) bool {
	return r.TemperatureC >= MinFriendlyTempC &&
		r.TemperatureC <= MaxFriendlyTempC &&
		r.WindSpeedKmh < MaxFriendlyWindKmh &&
		r.HumidityPct > MinFriendlyHumidity
}

// Classify derives the verdict for a reading. The first matching advice wins.
func Classify(r domain.WeatherReading) domain.AdvisoryVerdict {
	friendly := IsFishingFriendly(r)

	var advice string
	switch {
	case friendly:
		advice = adviceFriendly
	case r.TemperatureC < MinFriendlyTempC:
		advice = adviceCold
	case r.TemperatureC > MaxFriendlyTempC:
		advice = adviceHot
	case r.WindSpeedKmh >= MaxFriendlyWindKmh:
		advice = adviceWindy
	default:
		advice = adviceModerateWeather
	}

	return domain.AdvisoryVerdict{IsFishingFriendly: friendly, AdviceText: advice}
}

// WindKmh converts a provider wind speed from m/s.
func WindKmh(metersPerSecond float64) float64 {
	return metersPerSecond * metersPerSecondToKmh
}

// VisibilityKm converts a provider visibility from meters.
func VisibilityKm(meters float64) float64 {
	return meters / metersPerKilometer
}

// Display rounds a reading for presentation.
func Display(r domain.WeatherReading) domain.WeatherDisplay {
	return domain.WeatherDisplay{
		TemperatureC: roundHalfUp(r.TemperatureC),
		HumidityPct:  roundHalfUp(r.HumidityPct),
		WindSpeedKmh: roundHalfUp(r.WindSpeedKmh),
		VisibilityKm: roundHalfUp(r.VisibilityKm),
		Condition:    r.Condition,
	}
}

// Report assembles the full weather panel for a reading taken at coord. The
// sun window is omitted when it cannot be computed (polar day or night).
func Report(r domain.WeatherReading, coord domain.Coordinate, observedAt time.Time) domain.WeatherReport {
	report := domain.WeatherReport{
		Coordinate: coord,
		Reading:    r,
		Display:    Display(r),
		Verdict:    Classify(r),
		ObservedAt: observedAt,
	}
	if sun, err := SunWindowAt(coord, observedAt); err == nil {
		report.Sun = &sun
	}
	return report
}

// roundHalfUp rounds .5 toward positive infinity, so -2.5 becomes -2.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
