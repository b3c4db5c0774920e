package advisory

import (
	"fmt"
	"time"

	"github.com/couchcryptid/water-advisory-service/internal/domain"
	"github.com/sj14/astral/pkg/astral"
)

// SunWindowAt computes civil dawn, sunrise, sunset and civil dusk in UTC for
// the calendar day of date at coord.
func SunWindowAt(coord domain.Coordinate, date time.Time) (domain.SunWindow, error) {
	observer := astral.Observer{Latitude: coord.Lat, Longitude: coord.Lon}
	day := date.UTC()

	dawn, err := astral.Dawn(observer, day, astral.DepressionCivil)
	if err != nil {
		return domain.SunWindow{}, fmt.Errorf("civil dawn: %w", err)
	}
	sunrise, err := astral.Sunrise(observer, day)
	if err != nil {
		return domain.SunWindow{}, fmt.Errorf("sunrise: %w", err)
	}
	sunset, err := astral.Sunset(observer, day)
	if err != nil {
		return domain.SunWindow{}, fmt.Errorf("sunset: %w", err)
	}
	dusk, err := astral.Dusk(observer, day, astral.DepressionCivil)
	if err != nil {
		return domain.SunWindow{}, fmt.Errorf("civil dusk: %w", err)
	}

	return domain.SunWindow{
		Dawn:    dawn.UTC(),
		Sunrise: sunrise.UTC(),
		Sunset:  sunset.UTC(),
		Dusk:    dusk.UTC(),
	}, nil
}
