package geocode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/store"
)

// CachedGeocoder answers from the city_geolocations cache and asks the wrapped
// geocoder only for cities it has never seen. Misses are cached too.
type CachedGeocoder struct {
	next   Geocoder
	store  *store.Store
	logger *zap.Logger
}

// NewCachedGeocoder wraps next with the cache in s
func NewCachedGeocoder(next Geocoder, s *store.Store, logger *zap.Logger) *CachedGeocoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedGeocoder{next: next, store: s, logger: logger.Named("geocode_cache")}
}

// Geocode implements Geocoder
func (c *CachedGeocoder) Geocode(ctx context.Context, city string) (*Location, error) {
	city = NormalizeCity(city)
	if city == "" {
		return nil, nil
	}

	cached, err := c.store.GetGeolocation(ctx, city)
	switch {
	case err == nil:
		if !cached.Found {
			return nil, nil
		}
		loc := NewLocation(city, cached.Latitude.Float64, cached.Longitude.Float64, cached.Altitude.Float64)
		return &loc, nil
	case !errors.Is(err, store.ErrNotCached):
		return nil, err
	}

	loc, err := c.next.Geocode(ctx, city)
	if err != nil {
		return nil, err
	}

	entry := store.Geolocation{Yeshuv: city, Found: loc != nil}
	if loc != nil {
		entry.Latitude = sql.NullFloat64{Float64: loc.Latitude(), Valid: true}
		entry.Longitude = sql.NullFloat64{Float64: loc.Longitude(), Valid: true}
		entry.Altitude = sql.NullFloat64{Float64: loc.Altitude(), Valid: true}
	}
	if err := c.store.PutGeolocation(ctx, entry); err != nil {
		c.logger.Warn("Failed to cache geolocation", zap.String("city", city), zap.Error(err))
	}
	return loc, nil
}

// Resolve geocodes every distinct non-empty city sequentially. Cities without a match
// are absent from the result. The first service failure stops the run.
func Resolve(ctx context.Context, g Geocoder, cities []string) (map[string]Location, error) {
	out := make(map[string]Location)
	seen := make(map[string]struct{})
	for _, raw := range cities {
		city := NormalizeCity(raw)
		if city == "" {
			continue
		}
		if _, dup := seen[city]; dup {
			continue
		}
		seen[city] = struct{}{}

		loc, err := g.Geocode(ctx, city)
		if err != nil {
			return out, fmt.Errorf("geocoding %s: %w", city, err)
		}
		if loc != nil {
			out[city] = *loc
		}
	}
	return out, nil
}
