package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/supplier-cli/internal/classify"
	"github.com/sells-group/supplier-cli/internal/config"
	"github.com/sells-group/supplier-cli/internal/dataset"
	"github.com/sells-group/supplier-cli/internal/explain"
	"github.com/sells-group/supplier-cli/internal/factor"
	"github.com/sells-group/supplier-cli/internal/metrics"
	"github.com/sells-group/supplier-cli/internal/recommend"
	"github.com/sells-group/supplier-cli/internal/resilience"
	"github.com/sells-group/supplier-cli/internal/scorer"
	"github.com/sells-group/supplier-cli/internal/signal"
	"github.com/sells-group/supplier-cli/internal/store"
	anthropicpkg "github.com/sells-group/supplier-cli/pkg/anthropic"
	"github.com/sells-group/supplier-cli/pkg/geocode"
	"github.com/sells-group/supplier-cli/pkg/weatherapi"
	"github.com/sells-group/supplier-cli/pkg/wto"
)

// engineEnv holds the loaded dataset, the wired engine, and the optional
// feedback store needed by the recommend/serve/feedback commands.
type engineEnv struct {
	Dataset  *dataset.Dataset
	Engine   *recommend.Engine
	Store    store.Store // may be nil
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
}

// Close releases resources held by the environment.
func (e *engineEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEngine validates configuration, loads the dataset, and wires every
// provider into a recommend.Engine. Callers should defer env.Close().
func initEngine(ctx context.Context, withStore bool) (*engineEnv, error) {
	if err := validateAll(cfg); err != nil {
		return nil, err
	}

	ds, err := dataset.LoadDir(cfg.Dataset.Dir)
	if err != nil {
		return nil, eris.Wrap(err, "load dataset")
	}

	reg := prometheus.NewRegistry()
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		return nil, eris.Wrap(err, "register metrics")
	}

	engine, err := buildEngine(cfg, m)
	if err != nil {
		return nil, err
	}

	env := &engineEnv{Dataset: ds, Engine: engine, Metrics: m, Registry: reg}
	if withStore {
		st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "open store")
		}
		env.Store = st
	}

	zap.L().Info("engine ready",
		zap.String("dataset", cfg.Dataset.Dir),
		zap.Int("workers", cfg.Engine.Workers),
		zap.Bool("llm", cfg.Anthropic.Key != ""),
		zap.Bool("store", env.Store != nil),
	)
	return env, nil
}

// validateAll checks the application config and the scoring constants.
func validateAll(c *config.Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return scorer.ValidateConfig(c.Scoring)
}

// buildEngine wires the HTTP clients, resilience guards, adapters, and
// collaborators described by c.
func buildEngine(c *config.Config, m *metrics.Metrics) (*recommend.Engine, error) {
	retry := resilience.FromRetryConfig(c.Retry.MaxAttempts, c.Retry.InitialBackoffMs, c.Retry.MaxBackoffMs)
	circuit := resilience.FromCircuitConfig(c.Circuit.FailureThreshold, c.Circuit.ResetTimeoutSecs)
	adapterTimeout := time.Duration(c.Engine.AdapterTimeoutSecs) * time.Second

	opts := func(provider string) signal.Options {
		return signal.Options{
			Timeout: adapterTimeout,
			Guard:   resilience.NewGuard(provider, retry, circuit),
			Metrics: m,
		}
	}

	var weatherOpts []weatherapi.Option
	if c.Weather.BaseURL != "" {
		weatherOpts = append(weatherOpts, weatherapi.WithBaseURL(c.Weather.BaseURL))
	}
	if c.Weather.RateLimit > 0 {
		weatherOpts = append(weatherOpts, weatherapi.WithRateLimit(c.Weather.RateLimit))
	}
	var weatherClient weatherapi.Client
	if c.Weather.Key != "" {
		weatherClient = weatherapi.NewClient(c.Weather.Key, weatherOpts...)
	} else {
		zap.L().Warn("weather key not set, weather signal disabled")
	}

	tariffOpts := []wto.Option{wto.WithBaseURL(c.Tariff.BaseURL)}
	if c.Tariff.RateLimit > 0 {
		tariffOpts = append(tariffOpts, wto.WithRateLimit(c.Tariff.RateLimit))
	}
	var tariffClient wto.Client
	if c.Tariff.Key != "" {
		tariffClient = wto.NewClient(c.Tariff.Key, tariffOpts...)
	} else {
		zap.L().Warn("tariff key not set, tariff signal disabled")
	}

	geoOpts := []geocode.Option{geocode.WithUserAgent(c.Geocode.UserAgent)}
	if c.Geocode.BaseURL != "" {
		geoOpts = append(geoOpts, geocode.WithBaseURL(c.Geocode.BaseURL))
	}
	if c.Geocode.RateLimit > 0 {
		geoOpts = append(geoOpts, geocode.WithRateLimit(c.Geocode.RateLimit))
	}
	geocoder := geocode.NewClient(geoOpts...)

	calc := factor.NewCalculator(c.Scoring,
		signal.NewWeatherAdapter(weatherClient, c.Weather.Days, opts(signal.NameWeather)),
		signal.NewTariffAdapter(tariffClient, opts(signal.NameTariff)),
		signal.NewDistanceAdapter(geocoder, opts(signal.NameDistance)),
	)

	table := classify.DefaultTable()
	if c.Classify.TablePath != "" {
		t, err := classify.LoadTable(c.Classify.TablePath)
		if err != nil {
			return nil, eris.Wrap(err, "load classification table")
		}
		table = t
	}

	engineOpts := []recommend.Option{
		recommend.WithMetrics(m),
		recommend.WithWorkers(c.Engine.Workers),
		recommend.WithTopK(c.Engine.TopK),
		recommend.WithTiebreakSeed(c.Engine.TiebreakSeed),
		recommend.WithRequestTimeout(time.Duration(c.Engine.RequestTimeoutSecs) * time.Second),
	}

	var resolver classify.Resolver
	if c.Anthropic.Key != "" {
		llm := anthropicpkg.NewClient(c.Anthropic.Key)
		resolver = classify.NewLLMResolver(llm, c.Anthropic.Model)
		engineOpts = append(engineOpts, recommend.WithExplainer(explain.NewLLMExplainer(llm, c.Anthropic.Model, c.Anthropic.MaxTokens)))
	} else {
		zap.L().Warn("anthropic key not set, using fallback classification and summary explanations")
	}
	classifier := classify.NewClassifier(resolver, table, time.Duration(c.Classify.TimeoutSecs)*time.Second, m)

	if c.Geocode.DetectLocation {
		engineOpts = append(engineOpts, recommend.WithLocator(geocode.NewIPLocator(c.Geocode.IPInfoURL, nil)))
	}

	return recommend.NewEngine(calc, classifier, c.Scoring, engineOpts...), nil
}
