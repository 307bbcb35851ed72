// Package geocode resolves free-text locations to coordinates via the
// Nominatim search API and detects the caller's location from its IP.
package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"golang.org/x/time/rate"

	"github.com/sells-group/supplier-cli/internal/resilience"
)

const (
	defaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent = "SupplierRecommendationSystem/1.0"
)

// Client geocodes free-text locations.
type Client interface {
	// Geocode returns the best match for query. An unmatched query is not an
	// error: the result has Matched=false.
	Geocode(ctx context.Context, query string) (*Result, error)
}

// Result holds one geocoding outcome. Point is lon/lat (XY) in WGS84.
type Result struct {
	Query       string
	DisplayName string
	Point       *geom.Point
	Matched     bool
}

// Lat returns the latitude, or 0 when unmatched.
func (r *Result) Lat() float64 {
	if r == nil || r.Point == nil {
		return 0
	}
	return r.Point.Y()
}

// Lon returns the longitude, or 0 when unmatched.
func (r *Result) Lon() float64 {
	if r == nil || r.Point == nil {
		return 0
	}
	return r.Point.X()
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithBaseURL overrides the Nominatim base URL.
func WithBaseURL(u string) Option {
	return func(g *geocoder) { g.baseURL = u }
}

// WithUserAgent sets the User-Agent Nominatim requires.
func WithUserAgent(ua string) Option {
	return func(g *geocoder) { g.userAgent = ua }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) { g.http = hc }
}

// WithRateLimit sets requests per second. Public Nominatim allows 1.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithoutCache disables the in-memory result cache.
func WithoutCache() Option {
	return func(g *geocoder) { g.cache = nil }
}

type geocoder struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	cache     *cache
}

// NewClient creates a Nominatim geocoder with an in-memory cache.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		http:      &http.Client{Timeout: 15 * time.Second},
		limiter:   rate.NewLimiter(1, 1),
		cache:     newCache(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (g *geocoder) Geocode(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &Result{Matched: false}, nil
	}

	key := cacheKey(query)
	if r, ok := g.cache.get(key); ok {
		return r, nil
	}

	r, err := g.search(ctx, query)
	if err != nil {
		return nil, err
	}
	g.cache.set(key, r)
	return r, nil
}

func (g *geocoder) search(ctx context.Context, query string) (*Result, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit wait")
	}

	params := url.Values{"q": {query}, "format": {"json"}, "limit": {"1"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resilience.NewStatusError("geocode", resp.StatusCode, string(body))
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}
	if len(places) == 0 {
		return &Result{Query: query, Matched: false}, nil
	}

	lat, latErr := strconv.ParseFloat(places[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(places[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return nil, eris.Errorf("geocode: invalid coordinates %q,%q", places[0].Lat, places[0].Lon)
	}

	return &Result{
		Query:       query,
		DisplayName: places[0].DisplayName,
		Point:       geom.NewPointFlat(geom.XY, []float64{lon, lat}),
		Matched:     true,
	}, nil
}
