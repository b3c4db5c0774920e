package weather

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/water-advisory-service/internal/domain"
	"github.com/couchcryptid/water-advisory-service/internal/observability"
	"github.com/patrickmn/go-cache"
)

// CachedProvider wraps a WeatherProvider with a TTL cache keyed by the
// coordinate rounded to two decimals (about 1 km).
type CachedProvider struct {
	inner   domain.WeatherProvider
	cache   *cache.Cache
	metrics *observability.Metrics
}

// NewCachedProvider creates a cache decorator around a provider.
func NewCachedProvider(inner domain.WeatherProvider, ttl time.Duration, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   cache.New(ttl, 2*ttl),
		metrics: metrics,
	}
}

func (c *CachedProvider) CurrentWeather(ctx context.Context, at domain.Coordinate) (domain.WeatherReading, error) {
	key := cacheKey(at)
	if v, ok := c.cache.Get(key); ok {
		c.metrics.WeatherCache.WithLabelValues("hit").Inc()
		return v.(domain.WeatherReading), nil
	}
	c.metrics.WeatherCache.WithLabelValues("miss").Inc()

	reading, err := c.inner.CurrentWeather(ctx, at)
	if err != nil {
		// Failures are not cached so the user can retry immediately.
		return reading, err
	}
	c.cache.Set(key, reading, cache.DefaultExpiration)
	return reading, nil
}

// cacheKey buckets a coordinate by whole hundredths of a degree. Rounding to
// an integer first keeps values either side of zero in one bucket.
func cacheKey(at domain.Coordinate) string {
	return fmt.Sprintf("%d,%d", hundredths(at.Lat), hundredths(at.Lon))
}

func hundredths(deg float64) int64 {
	return int64(math.Round(deg * 100))
}
