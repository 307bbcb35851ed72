package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Dataset   DatasetConfig   `yaml:"dataset" mapstructure:"dataset"`
	Weather   WeatherConfig   `yaml:"weather" mapstructure:"weather"`
	Tariff    TariffConfig    `yaml:"tariff" mapstructure:"tariff"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Classify  ClassifyConfig  `yaml:"classify" mapstructure:"classify"`
	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Circuit   CircuitConfig   `yaml:"circuit" mapstructure:"circuit"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DatasetConfig locates the reference data directory.
type DatasetConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// WeatherConfig holds weatherapi.com settings.
type WeatherConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	Days      int     `yaml:"days" mapstructure:"days"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// TariffConfig holds WTO API settings.
type TariffConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// GeocodeConfig holds Nominatim and ipinfo settings.
type GeocodeConfig struct {
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string  `yaml:"user_agent" mapstructure:"user_agent"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	IPInfoURL string  `yaml:"ipinfo_url" mapstructure:"ipinfo_url"`
	// DetectLocation enables IP-based source location when a request has none.
	DetectLocation bool `yaml:"detect_location" mapstructure:"detect_location"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ClassifyConfig configures product classification.
type ClassifyConfig struct {
	// TablePath optionally replaces the built-in keyword fallback table.
	TablePath   string `yaml:"table_path" mapstructure:"table_path"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// EngineConfig tunes the recommendation orchestrator.
type EngineConfig struct {
	Workers            int   `yaml:"workers" mapstructure:"workers"`
	TopK               int   `yaml:"top_k" mapstructure:"top_k"`
	AdapterTimeoutSecs int   `yaml:"adapter_timeout_secs" mapstructure:"adapter_timeout_secs"`
	RequestTimeoutSecs int   `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	TiebreakSeed       int64 `yaml:"tiebreak_seed" mapstructure:"tiebreak_seed"` // 0 = random per request
}

// RetryConfig configures adapter retries.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// CircuitConfig configures per-provider circuit breakers.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ScoringConfig holds every constant of the composite score. Defaults are in
// scorer.DefaultConfig.
type ScoringConfig struct {
	BaseScore   float64 `yaml:"base_score" mapstructure:"base_score"`
	TiebreakMax float64 `yaml:"tiebreak_max" mapstructure:"tiebreak_max"`
	MinScore    float64 `yaml:"min_score" mapstructure:"min_score"`
	MaxScore    float64 `yaml:"max_score" mapstructure:"max_score"`

	ComplaintNone    float64 `yaml:"complaint_none" mapstructure:"complaint_none"`
	ComplaintCap     float64 `yaml:"complaint_cap" mapstructure:"complaint_cap"`
	ComplaintDivisor float64 `yaml:"complaint_divisor" mapstructure:"complaint_divisor"`

	WeatherClear         float64 `yaml:"weather_clear" mapstructure:"weather_clear"`
	WeatherPerExtremeDay float64 `yaml:"weather_per_extreme_day" mapstructure:"weather_per_extreme_day"`
	WeatherCap           float64 `yaml:"weather_cap" mapstructure:"weather_cap"`
	WeatherMissing       float64 `yaml:"weather_missing" mapstructure:"weather_missing"`
	WeatherInvalid       float64 `yaml:"weather_invalid" mapstructure:"weather_invalid"`
	WeatherUnavailable   float64 `yaml:"weather_unavailable" mapstructure:"weather_unavailable"`

	TariffHigh        float64 `yaml:"tariff_high" mapstructure:"tariff_high"`
	TariffLow         float64 `yaml:"tariff_low" mapstructure:"tariff_low"`
	TariffUnavailable float64 `yaml:"tariff_unavailable" mapstructure:"tariff_unavailable"`

	ProductMatch    float64 `yaml:"product_match" mapstructure:"product_match"`
	ProductMismatch float64 `yaml:"product_mismatch" mapstructure:"product_mismatch"`

	ExpirationPerProduct float64 `yaml:"expiration_per_product" mapstructure:"expiration_per_product"`
	ExpirationCap        float64 `yaml:"expiration_cap" mapstructure:"expiration_cap"`

	DistanceNearKM      float64 `yaml:"distance_near_km" mapstructure:"distance_near_km"`
	DistanceMidKM       float64 `yaml:"distance_mid_km" mapstructure:"distance_mid_km"`
	DistanceNear        float64 `yaml:"distance_near" mapstructure:"distance_near"`
	DistanceMid         float64 `yaml:"distance_mid" mapstructure:"distance_mid"`
	DistanceFar         float64 `yaml:"distance_far" mapstructure:"distance_far"`
	DistanceUnavailable float64 `yaml:"distance_unavailable" mapstructure:"distance_unavailable"`
}

// StoreConfig configures the feedback store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// scoringDefaults mirrors scorer.DefaultConfig so env/file overrides merge
// over the documented constants. config cannot import scorer.
var scoringDefaults = map[string]float64{
	"base_score":              50,
	"tiebreak_max":            2,
	"min_score":               0,
	"max_score":               100,
	"complaint_none":          10,
	"complaint_cap":           20,
	"complaint_divisor":       10,
	"weather_clear":           5,
	"weather_per_extreme_day": 3,
	"weather_cap":             15,
	"weather_missing":         -5,
	"weather_invalid":         0,
	"weather_unavailable":     0,
	"tariff_high":             -10,
	"tariff_low":              5,
	"tariff_unavailable":      0,
	"product_match":           15,
	"product_mismatch":        -5,
	"expiration_per_product":  5,
	"expiration_cap":          15,
	"distance_near_km":        5000,
	"distance_mid_km":         10000,
	"distance_near":           10,
	"distance_mid":            5,
	"distance_far":            0,
	"distance_unavailable":    -5,
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SUPPLIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys without a real default are registered empty so
	// AutomaticEnv can resolve them.
	for _, k := range []string{"weather.key", "tariff.key", "anthropic.key", "classify.table_path"} {
		v.SetDefault(k, "")
	}
	v.SetDefault("dataset.dir", "data")
	v.SetDefault("weather.base_url", "https://api.weatherapi.com/v1")
	v.SetDefault("weather.days", 14)
	v.SetDefault("weather.rate_limit", 5)
	v.SetDefault("tariff.base_url", "https://api.wto.org/qrs")
	v.SetDefault("tariff.rate_limit", 5)
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "SupplierRecommendationSystem/1.0")
	v.SetDefault("geocode.rate_limit", 1)
	v.SetDefault("geocode.ipinfo_url", "https://ipinfo.io/json")
	v.SetDefault("geocode.detect_location", false)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("classify.timeout_secs", 15)
	v.SetDefault("engine.workers", 8)
	v.SetDefault("engine.top_k", 5)
	v.SetDefault("engine.adapter_timeout_secs", 10)
	v.SetDefault("engine.request_timeout_secs", 120)
	v.SetDefault("engine.tiebreak_seed", 0)
	v.SetDefault("retry.max_attempts", 2)
	v.SetDefault("retry.initial_backoff_ms", 250)
	v.SetDefault("retry.max_backoff_ms", 2000)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 30)
	for k, val := range scoringDefaults {
		v.SetDefault("scoring."+k, val)
	}
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "supplier.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks engine, store and server settings. Scoring constants are
// validated by scorer.ValidateConfig.
func (c *Config) Validate() error {
	var errs []string

	if c.Engine.Workers < 1 {
		errs = append(errs, "engine.workers must be >= 1")
	}
	if c.Engine.TopK < 0 {
		errs = append(errs, "engine.top_k must be >= 0")
	}
	if c.Engine.AdapterTimeoutSecs < 1 {
		errs = append(errs, "engine.adapter_timeout_secs must be >= 1")
	}
	if c.Engine.RequestTimeoutSecs < c.Engine.AdapterTimeoutSecs {
		errs = append(errs, "engine.request_timeout_secs must be >= engine.adapter_timeout_secs")
	}
	if c.Weather.Days < 1 || c.Weather.Days > 14 {
		errs = append(errs, fmt.Sprintf("weather.days must be between 1 and 14, got %d", c.Weather.Days))
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for postgres")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 0 and 65535")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
