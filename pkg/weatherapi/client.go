// Package weatherapi is a client for the weatherapi.com forecast API.
package weatherapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/supplier-cli/internal/resilience"
)

const (
	defaultBaseURL = "https://api.weatherapi.com/v1"
	// DefaultDays is the forecast horizon used for supplier risk.
	DefaultDays = 14
)

// Client fetches daily forecasts.
type Client interface {
	Forecast(ctx context.Context, query string, days int) (*ForecastResponse, error)
}

// ForecastResponse is the subset of GET /forecast.json the engine reads.
type ForecastResponse struct {
	Location Location `json:"location"`
	Forecast Forecast `json:"forecast"`
}

// Location identifies the resolved place.
type Location struct {
	Name    string  `json:"name"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Forecast holds the per-day entries.
type Forecast struct {
	Days []ForecastDay `json:"forecastday"`
}

// ForecastDay is one forecast date.
type ForecastDay struct {
	Date string `json:"date"`
	Day  Day    `json:"day"`
}

// Day holds the daily aggregates.
type Day struct {
	MaxTempC      float64   `json:"maxtemp_c"`
	MinTempC      float64   `json:"mintemp_c"`
	AvgTempC      float64   `json:"avgtemp_c"`
	TotalPrecipMM float64   `json:"totalprecip_mm"`
	MaxWindKPH    float64   `json:"maxwind_kph"`
	Condition     Condition `json:"condition"`
}

// Condition is the textual weather summary.
type Condition struct {
	Text string `json:"text"`
	Code int    `json:"code"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit sets requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a weatherapi.com client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Forecast(ctx context.Context, query string, days int) (*ForecastResponse, error) {
	if days <= 0 {
		days = DefaultDays
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "weatherapi: rate limit wait")
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", query)
	params.Set("days", strconv.Itoa(days))
	params.Set("aqi", "no")
	params.Set("alerts", "no")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast.json?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "weatherapi: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "weatherapi: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "weatherapi: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resilience.NewStatusError("weatherapi", resp.StatusCode, string(body))
	}

	var out ForecastResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "weatherapi: unmarshal response")
	}
	return &out, nil
}
