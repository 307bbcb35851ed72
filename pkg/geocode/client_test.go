package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocode(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantErr     string
		wantMatched bool
	}{
		{
			name:        "match",
			status:      http.StatusOK,
			body:        `[{"lat":"30.2711","lon":"-97.7437","display_name":"Austin, Travis County, Texas, United States"}]`,
			wantMatched: true,
		},
		{
			name:   "no_match",
			status: http.StatusOK,
			body:   `[]`,
		},
		{
			name:    "bad_coordinates",
			status:  http.StatusOK,
			body:    `[{"lat":"north","lon":"-97"}]`,
			wantErr: "invalid coordinates",
		},
		{
			name:    "rate_limited",
			status:  http.StatusTooManyRequests,
			body:    `slow down`,
			wantErr: "unexpected status 429",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/search", r.URL.Path)
				assert.Equal(t, "Austin, United States", r.URL.Query().Get("q"))
				assert.Equal(t, "json", r.URL.Query().Get("format"))
				assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(WithBaseURL(srv.URL), WithUserAgent("test-agent"), WithRateLimit(100))
			res, err := c.Geocode(context.Background(), "Austin, United States")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMatched, res.Matched)
			if tt.wantMatched {
				assert.InDelta(t, 30.2711, res.Lat(), 1e-6)
				assert.InDelta(t, -97.7437, res.Lon(), 1e-6)
			}
		})
	}
}

func TestGeocode_EmptyQuery(t *testing.T) {
	res, err := NewClient(WithBaseURL("http://127.0.0.1:0")).Geocode(context.Background(), "   ")
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Equal(t, 0.0, res.Lat())
}

func TestGeocode_CachesResults(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`[{"lat":"48.8566","lon":"2.3522"}]`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(100))
	for _, q := range []string{"Paris, France", "paris,  FRANCE", "Paris, France"} {
		_, err := c.Geocode(context.Background(), q)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load(), "case and whitespace variants share a cache entry")

	uncached := NewClient(WithBaseURL(srv.URL), WithRateLimit(100), WithoutCache())
	_, err := uncached.Geocode(context.Background(), "Paris, France")
	require.NoError(t, err)
	_, err = uncached.Geocode(context.Background(), "Paris, France")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCacheKey_Normalizes(t *testing.T) {
	assert.Equal(t, cacheKey("New York, US"), cacheKey("  new   york, us "))
	assert.NotEqual(t, cacheKey("New York"), cacheKey("York"))
}

func TestIPLocator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ip":"1.2.3.4","city":"New York","country":"US"}`))
	}))
	defer srv.Close()

	loc, err := NewIPLocator(srv.URL, srv.Client()).Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "New York, US", loc)
}

func TestIPLocator_Incomplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ip":"1.2.3.4"}`))
	}))
	defer srv.Close()

	_, err := NewIPLocator(srv.URL, nil).Locate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no city/country")
}
