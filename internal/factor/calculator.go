package factor

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/supplier-cli/internal/config"
	"github.com/sells-group/supplier-cli/internal/model"
	"github.com/sells-group/supplier-cli/internal/signal"
)

// Input is everything needed to score one supplier.
type Input struct {
	Supplier       model.SupplierRecord
	Complaints     model.ComplaintStats
	Category       string
	ProductCode    string
	SourceLocation string
}

// Result holds the factors plus the signals that produced them.
type Result struct {
	Factors  model.FactorSet
	Location Location
	Weather  signal.Signal[signal.WeatherSummary]
	Tariff   signal.Signal[signal.TariffSummary]
	Distance signal.Signal[float64]
}

// Calculator queries the risk providers for one supplier and computes its
// FactorSet. It holds no per-request state and is safe for concurrent use.
type Calculator struct {
	cfg      config.ScoringConfig
	weather  signal.WeatherProvider
	tariff   signal.TariffProvider
	distance signal.DistanceProvider
	now      func() time.Time
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithClock overrides time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) { c.now = now }
}

// NewCalculator creates a Calculator. Nil providers behave as permanently
// Unavailable.
func NewCalculator(cfg config.ScoringConfig, weather signal.WeatherProvider, tariff signal.TariffProvider, distance signal.DistanceProvider, opts ...Option) *Calculator {
	c := &Calculator{
		cfg:      cfg,
		weather:  weather,
		tariff:   tariff,
		distance: distance,
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Compute gathers signals and computes all six factors. A failing provider
// only affects its own factor.
func (c *Calculator) Compute(ctx context.Context, in Input) Result {
	rec := in.Supplier
	loc := ResolveLocation(rec)
	res := Result{Location: loc}

	res.Weather = signal.Unavailable[signal.WeatherSummary]("no usable supplier location")
	if loc.Status == LocationValid {
		res.Weather = c.fetchWeather(ctx, loc.Query)
	}

	res.Tariff = c.fetchTariff(ctx, TradeCode(loc.Country), in.ProductCode)

	res.Distance = signal.Unavailable[float64]("no source or supplier location")
	source := strings.TrimSpace(in.SourceLocation)
	if loc.Status == LocationValid && source != "" {
		res.Distance = c.fetchDistance(ctx, source, loc.Query)
	}

	res.Factors = model.FactorSet{
		Complaint:    Complaint(c.cfg, in.Complaints),
		Weather:      Weather(c.cfg, loc, res.Weather),
		Tariff:       Tariff(c.cfg, res.Tariff),
		ProductMatch: ProductMatch(c.cfg, rec.Domain, in.Category),
		Expiration:   Expiration(c.cfg, rec, c.now()),
		Distance:     Distance(c.cfg, loc, source, res.Distance),
	}

	for _, u := range []struct {
		name   string
		ok     bool
		reason string
		asked  bool
	}{
		{signal.NameWeather, res.Weather.IsAvailable(), res.Weather.Reason(), loc.Status == LocationValid},
		{signal.NameTariff, res.Tariff.IsAvailable(), res.Tariff.Reason(), true},
		{signal.NameDistance, res.Distance.IsAvailable(), res.Distance.Reason(), loc.Status == LocationValid && source != ""},
	} {
		if u.asked && !u.ok {
			zap.L().Warn("risk signal unavailable",
				zap.String("signal", u.name),
				zap.String("supplier", rec.Name),
				zap.String("reason", u.reason),
			)
		}
	}

	return res
}

func (c *Calculator) fetchWeather(ctx context.Context, query string) signal.Signal[signal.WeatherSummary] {
	if c.weather == nil {
		return signal.Unavailable[signal.WeatherSummary]("weather provider not configured")
	}
	return c.weather.Weather(ctx, query)
}

func (c *Calculator) fetchTariff(ctx context.Context, tradeCode, productCode string) signal.Signal[signal.TariffSummary] {
	if c.tariff == nil {
		return signal.Unavailable[signal.TariffSummary]("tariff provider not configured")
	}
	return c.tariff.Tariff(ctx, tradeCode, productCode)
}

func (c *Calculator) fetchDistance(ctx context.Context, from, to string) signal.Signal[float64] {
	if c.distance == nil {
		return signal.Unavailable[float64]("distance provider not configured")
	}
	return c.distance.Distance(ctx, from, to)
}
