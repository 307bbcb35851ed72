package signal

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/supplier-cli/pkg/weatherapi"
)

// ForecastDays is the forecast horizon requested from the provider.
const ForecastDays = 14

// Extreme-day thresholds.
const (
	HeatThresholdC   = 35.0
	ColdThresholdC   = 0.0
	RainThresholdMM  = 20.0
	WindThresholdKPH = 40.0
)

// Extreme weather types, in evaluation order.
const (
	ExtremeHeat  = "extreme heat"
	ExtremeCold  = "extreme cold"
	ExtremeRain  = "heavy rain"
	ExtremeWind  = "strong winds"
	ExtremeStorm = "severe storm"
)

var stormTerms = []string{"storm", "hurricane", "flood", "cyclone", "tornado"}

// WeatherDay is one summarized forecast day.
type WeatherDay struct {
	Date        string  `json:"date"`
	AvgTempC    float64 `json:"avg_temp_c"`
	MaxTempC    float64 `json:"max_temp_c"`
	MinTempC    float64 `json:"min_temp_c"`
	PrecipMM    float64 `json:"precip_mm"`
	MaxWindKPH  float64 `json:"max_wind_kph"`
	Condition   string  `json:"condition"`
	Extreme     bool    `json:"extreme"`
	ExtremeType string  `json:"extreme_type,omitempty"`
}

// WeatherSummary is the normalized forecast for one location.
type WeatherSummary struct {
	Location    string       `json:"location"`
	Days        []WeatherDay `json:"days"`
	ExtremeDays int          `json:"extreme_days"`
}

// HasExtreme reports whether any day is extreme.
func (w WeatherSummary) HasExtreme() bool { return w.ExtremeDays > 0 }

// ExtremeType returns the first matching extreme type for a day, or "" when
// the day is not extreme. Condition matching is a case-insensitive substring
// test.
func ExtremeType(d WeatherDay) string {
	switch {
	case d.AvgTempC > HeatThresholdC:
		return ExtremeHeat
	case d.AvgTempC < ColdThresholdC:
		return ExtremeCold
	case d.PrecipMM > RainThresholdMM:
		return ExtremeRain
	case d.MaxWindKPH > WindThresholdKPH:
		return ExtremeWind
	}
	cond := strings.ToLower(d.Condition)
	for _, term := range stormTerms {
		if strings.Contains(cond, term) {
			return ExtremeStorm
		}
	}
	return ""
}

// SummarizeForecast converts a provider response into a WeatherSummary and
// flags extreme days.
func SummarizeForecast(location string, resp *weatherapi.ForecastResponse) WeatherSummary {
	out := WeatherSummary{Location: location}
	if resp == nil {
		return out
	}
	out.Days = make([]WeatherDay, 0, len(resp.Forecast.Days))
	for _, fd := range resp.Forecast.Days {
		d := WeatherDay{
			Date:       fd.Date,
			AvgTempC:   fd.Day.AvgTempC,
			MaxTempC:   fd.Day.MaxTempC,
			MinTempC:   fd.Day.MinTempC,
			PrecipMM:   fd.Day.TotalPrecipMM,
			MaxWindKPH: fd.Day.MaxWindKPH,
			Condition:  fd.Day.Condition.Text,
		}
		d.ExtremeType = ExtremeType(d)
		d.Extreme = d.ExtremeType != ""
		if d.Extreme {
			out.ExtremeDays++
		}
		out.Days = append(out.Days, d)
	}
	return out
}

// WeatherAdapter implements WeatherProvider over weatherapi.com.
type WeatherAdapter struct {
	client weatherapi.Client
	days   int
	opts   Options
}

// NewWeatherAdapter wraps client. days <= 0 uses ForecastDays.
func NewWeatherAdapter(client weatherapi.Client, days int, opts Options) *WeatherAdapter {
	if days <= 0 {
		days = ForecastDays
	}
	return &WeatherAdapter{client: client, days: days, opts: opts}
}

// Weather implements WeatherProvider. An empty location is Unavailable.
func (a *WeatherAdapter) Weather(ctx context.Context, location string) Signal[WeatherSummary] {
	location = strings.TrimSpace(location)
	if location == "" {
		return Unavailable[WeatherSummary]("empty location")
	}
	if a == nil || a.client == nil {
		return Unavailable[WeatherSummary]("weather provider not configured")
	}
	return lookup(ctx, NameWeather, a.opts, func(ctx context.Context) (WeatherSummary, error) {
		resp, err := a.client.Forecast(ctx, location, a.days)
		if err != nil {
			return WeatherSummary{}, err
		}
		if len(resp.Forecast.Days) == 0 {
			return WeatherSummary{}, eris.Errorf("signal: no forecast days for %q", location)
		}
		return SummarizeForecast(location, resp), nil
	})
}
