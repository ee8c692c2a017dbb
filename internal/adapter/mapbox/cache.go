package mapbox

import (
	"context"
	"fmt"

	"github.com/couchcryptid/marine-pollution-reports/internal/domain"
	"github.com/couchcryptid/marine-pollution-reports/internal/observability"
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 1000

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache keyed by
// coordinates rounded to six decimals, the precision of a map click.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lru.Cache[string, domain.GeocodingResult]
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder. Non-positive
// sizes fall back to the default.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	if maxEntries <= 0 {
		maxEntries = defaultCacheSize
	}
	cache, _ := lru.New[string, domain.GeocodingResult](maxEntries) // only fails for size <= 0
	return &CachedGeocoder{inner: inner, cache: cache, metrics: metrics}
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	key := cacheKey(lat, lon)
	if result, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return result, err
	}
	// Empty results are not cached so they can be retried.
	if result.FormattedAddress != "" {
		c.cache.Add(key, result)
	}
	return result, nil
}

// Len reports the number of cached entries.
func (c *CachedGeocoder) Len() int {
	return c.cache.Len()
}

func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("rev:%.6f,%.6f", lat, lon)
}
