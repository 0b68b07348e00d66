package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Geolocation is a cached geocoding result. Found is false for cities the
// geocoder could not resolve.
type Geolocation struct {
	Yeshuv    string          `db:"yeshuv"`
	Latitude  sql.NullFloat64 `db:"latitude"`
	Longitude sql.NullFloat64 `db:"longitude"`
	Altitude  sql.NullFloat64 `db:"altitude"`
	Found     bool            `db:"found"`
	FetchedAt time.Time       `db:"fetched_at"`
}

// GetGeolocation returns the cached result for a city, or ErrNotCached
func (s *Store) GetGeolocation(ctx context.Context, yeshuv string) (*Geolocation, error) {
	var g Geolocation
	err := s.db.GetContext(ctx, &g, `
		SELECT yeshuv, latitude, longitude, altitude, found, fetched_at
		FROM city_geolocations WHERE yeshuv = ?`, yeshuv)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotCached, yeshuv)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read geolocation for %s: %w", yeshuv, err)
	}
	return &g, nil
}

// PutGeolocation stores a result; an existing entry is kept
func (s *Store) PutGeolocation(ctx context.Context, g Geolocation) error {
	if g.FetchedAt.IsZero() {
		g.FetchedAt = time.Now().UTC()
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT OR IGNORE INTO city_geolocations (yeshuv, latitude, longitude, altitude, found, fetched_at)
		VALUES (:yeshuv, :latitude, :longitude, :altitude, :found, :fetched_at)`, g)
	if err != nil {
		return fmt.Errorf("failed to cache geolocation for %s: %w", g.Yeshuv, err)
	}
	s.logger.Debug("Cached geolocation", zap.String("yeshuv", g.Yeshuv), zap.Bool("found", g.Found))
	return nil
}

// Geolocations returns every cached result ordered by city
func (s *Store) Geolocations(ctx context.Context) ([]Geolocation, error) {
	var out []Geolocation
	err := s.db.SelectContext(ctx, &out, `
		SELECT yeshuv, latitude, longitude, altitude, found, fetched_at
		FROM city_geolocations ORDER BY yeshuv`)
	if err != nil {
		return nil, fmt.Errorf("failed to list geolocations: %w", err)
	}
	return out, nil
}
