package ws

import (
	"context"

	"github.com/couchcryptid/water-advisory-service/internal/viewport"
)

var _ viewport.MapSurface = (*session)(nil)

// FlyTo forwards a camera request to the connected map.
func (s *session) FlyTo(_ context.Context, req viewport.CameraRequest) error {
	return s.send(typeFlyTo, req)
}
