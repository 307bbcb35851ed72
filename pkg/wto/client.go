// Package wto is a client for the WTO quantitative restrictions (QRS) API.
package wto

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/supplier-cli/internal/resilience"
)

const defaultBaseURL = "https://api.wto.org/qrs"

// Client queries in-force tariff lines for a reporter member and product.
type Client interface {
	Restrictions(ctx context.Context, reporterCode, productCode string) (*RestrictionsResponse, error)
}

// RestrictionsResponse is the subset of GET /qrs the engine reads.
type RestrictionsResponse struct {
	Items []Item `json:"items"`
}

// Item is one in-force line.
type Item struct {
	ProductCode string  `json:"product_code,omitempty"`
	DutyRate    float64 `json:"duty_rate"`
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

// NewClient creates a WTO API client authenticated with a subscription key.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Restrictions(ctx context.Context, reporterCode, productCode string) (*RestrictionsResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "wto: rate limit wait")
	}

	params := url.Values{}
	params.Set("reporter_member_code", reporterCode)
	params.Set("in_force_only", "true")
	params.Set("product_ids", productCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/qrs?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "wto: create request")
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "wto: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "wto: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resilience.NewStatusError("wto", resp.StatusCode, string(body))
	}

	var out RestrictionsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "wto: unmarshal response")
	}
	return &out, nil
}
