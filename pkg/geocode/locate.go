package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/supplier-cli/internal/resilience"
)

const defaultIPInfoURL = "https://ipinfo.io/json"

// Locator detects the caller's "city, country".
type Locator interface {
	Locate(ctx context.Context) (string, error)
}

type ipinfoResponse struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

type ipLocator struct {
	url  string
	http *http.Client
}

// NewIPLocator returns a Locator backed by ipinfo.io. An empty url uses the
// public endpoint.
func NewIPLocator(url string, hc *http.Client) Locator {
	if url == "" {
		url = defaultIPInfoURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Second}
	}
	return &ipLocator{url: url, http: hc}
}

func (l *ipLocator) Locate(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return "", eris.Wrap(err, "geocode: locate build request")
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "geocode: locate request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "geocode: locate read body")
	}
	if resp.StatusCode != http.StatusOK {
		return "", resilience.NewStatusError("ipinfo", resp.StatusCode, string(body))
	}

	var info ipinfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return "", eris.Wrap(err, "geocode: locate parse response")
	}
	city := strings.TrimSpace(info.City)
	country := strings.TrimSpace(info.Country)
	if city == "" || country == "" {
		return "", eris.New("geocode: locate returned no city/country")
	}
	return city + ", " + country, nil
}
