// Package geocode resolves facility city names to coordinates through a
// Nominatim-compatible search API.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"
)

// ErrExternalService wraps failures of the remote geocoder
var ErrExternalService = errors.New("geocoding service failure")

// Location is a resolved city
type Location struct {
	Name  string
	Point *geom.Point // XYZ: longitude, latitude, altitude
}

// NewLocation builds a location from coordinates
func NewLocation(name string, lat, lon, alt float64) Location {
	return Location{Name: name, Point: geom.NewPointFlat(geom.XYZ, []float64{lon, lat, alt})}
}

// Latitude returns the Y coordinate
func (l Location) Latitude() float64 { return l.Point.Y() }

// Longitude returns the X coordinate
func (l Location) Longitude() float64 { return l.Point.X() }

// Altitude returns the Z coordinate
func (l Location) Altitude() float64 { return l.Point.Z() }

// Geocoder resolves one city. A nil location with a nil error means no match.
type Geocoder interface {
	Geocode(ctx context.Context, city string) (*Location, error)
}

// Options configures the Nominatim client
type Options struct {
	BaseURL     string
	UserAgent   string
	CountryCode string
	Timeout     time.Duration
	MinDelay    time.Duration
}

// DefaultOptions matches the public Nominatim usage policy
func DefaultOptions() Options {
	return Options{
		BaseURL:     "https://nominatim.openstreetmap.org",
		UserAgent:   "myGeocoder",
		CountryCode: "il",
		Timeout:     4 * time.Second,
		MinDelay:    1500 * time.Millisecond,
	}
}

// NominatimClient queries the search endpoint one request at a time
type NominatimClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	opts       Options
	logger     *zap.Logger
}

// NewNominatimClient creates a rate-limited client
func NewNominatimClient(opts Options, logger *zap.Logger) *NominatimClient {
	def := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = def.BaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if opts.MinDelay > 0 {
		limit = rate.Every(opts.MinDelay)
	}

	return &NominatimClient{
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		opts:       opts,
		logger:     logger.Named("geocode"),
	}
}

// Geocode looks up a single city
func (c *NominatimClient) Geocode(ctx context.Context, city string) (*Location, error) {
	city = NormalizeCity(city)
	if city == "" {
		return nil, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("format", "json")
	q.Set("limit", "1")
	if c.opts.CountryCode != "" {
		q.Set("countrycodes", c.opts.CountryCode)
	}
	endpoint := strings.TrimRight(c.opts.BaseURL, "/") + "/search?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocoding request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExternalService, city, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response for %s: %v", ErrExternalService, city, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrExternalService, city, resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON for %s", ErrExternalService, city)
	}

	first := gjson.GetBytes(body, "0")
	if !first.Exists() {
		c.logger.Debug("No geocoding match", zap.String("city", city))
		return nil, nil
	}

	lat, lon := first.Get("lat"), first.Get("lon")
	if !lat.Exists() || !lon.Exists() {
		return nil, fmt.Errorf("%w: result for %s has no coordinates", ErrExternalService, city)
	}
	loc := NewLocation(city, lat.Float(), lon.Float(), 0)
	c.logger.Debug("Geocoded city",
		zap.String("city", city),
		zap.Float64("lat", loc.Latitude()),
		zap.Float64("lon", loc.Longitude()))
	return &loc, nil
}

// NormalizeCity trims and composes a city name so equal names share a cache entry
func NormalizeCity(city string) string {
	return norm.NFC.String(strings.TrimSpace(city))
}
