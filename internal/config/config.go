// README: Config loader: struct defaults, optional YAML file, then SURGE_* env overrides.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// PeakWindow is an inclusive hour range, e.g. 7-9.
type PeakWindow struct {
	Start int `yaml:"start" validate:"min=0,max=23"`
	End   int `yaml:"end" validate:"min=0,max=23,gtefield=Start"`
}

type PricingConfig struct {
	BasePrice      float64 `yaml:"base_price" default:"150" validate:"gt=0"`
	Currency       string  `yaml:"currency" default:"INR" validate:"required"`
	CurrencySymbol string  `yaml:"currency_symbol" default:"₹"`
}

type ForecastConfig struct {
	PeakHours      []PeakWindow  `yaml:"peak_hours" validate:"dive"`
	SurgeThreshold float64       `yaml:"surge_threshold" default:"0.15" validate:"gte=0"`
	DropWindow     time.Duration `yaml:"drop_window" default:"6h" validate:"gt=0"`
	Horizon        int           `yaml:"horizon" default:"24" validate:"min=2"`
	ResponsePoints int           `yaml:"response_points" default:"6" validate:"min=0"`
	Timezone       string        `yaml:"timezone" default:"Asia/Kolkata"`

	loc *time.Location
}

type Config struct {
	HTTP struct {
		Addr              string        `yaml:"addr" default:":8000"`
		ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" default:"10s"`
		RateLimitRPS      float64       `yaml:"rate_limit_rps" default:"50"`
		RateLimitBurst    int           `yaml:"rate_limit_burst" default:"100"`
		LegacyErrorStatus bool          `yaml:"legacy_error_status"`
	} `yaml:"http"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Artifacts struct {
		// Location is a local directory or a gs://bucket/prefix URI.
		Location        string `yaml:"location" default:"./artifacts" validate:"required"`
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"artifacts"`
	Inference struct {
		Concurrency int64         `yaml:"concurrency" validate:"min=0"`
		Timeout     time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"inference"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Forecast ForecastConfig `yaml:"forecast"`
	DB       struct {
		DSN string `yaml:"dsn"`
	} `yaml:"db"`
	Redis struct {
		Addr     string        `yaml:"addr"`
		RouteTTL time.Duration `yaml:"route_ttl" default:"6h"`
	} `yaml:"redis"`
	Maps struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"maps"`
}

var defaultPeakHours = []PeakWindow{{Start: 7, End: 9}, {Start: 16, End: 19}}

// Load builds the config. SURGE_CONFIG optionally points at a YAML file; env
// variables win over the file.
func Load() (Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return cfg, fmt.Errorf("config defaults: %w", err)
	}
	if path := os.Getenv("SURGE_CONFIG"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if len(cfg.Forecast.PeakHours) == 0 {
		cfg.Forecast.PeakHours = append([]PeakWindow(nil), defaultPeakHours...)
	}
	if err := cfg.Forecast.resolveLocation(); err != nil {
		return cfg, err
	}
	if cfg.Inference.Concurrency == 0 {
		cfg.Inference.Concurrency = int64(runtime.GOMAXPROCS(0))
	}
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.HTTP.Addr = envOrDefault("SURGE_HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.ShutdownTimeout = envOrDefaultDuration("SURGE_HTTP_SHUTDOWN_TIMEOUT", cfg.HTTP.ShutdownTimeout)
	cfg.HTTP.RateLimitRPS = envOrDefaultFloat("SURGE_RATE_LIMIT_RPS", cfg.HTTP.RateLimitRPS)
	cfg.HTTP.RateLimitBurst = envOrDefaultInt("SURGE_RATE_LIMIT_BURST", cfg.HTTP.RateLimitBurst)
	cfg.HTTP.LegacyErrorStatus = envOrDefaultBool("SURGE_LEGACY_ERROR_STATUS", cfg.HTTP.LegacyErrorStatus)

	cfg.Log.Level = envOrDefault("SURGE_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOrDefault("SURGE_LOG_FORMAT", cfg.Log.Format)
	cfg.Log.Output = envOrDefault("SURGE_LOG_OUTPUT", cfg.Log.Output)

	cfg.Artifacts.Location = envOrDefault("SURGE_ARTIFACTS", cfg.Artifacts.Location)
	cfg.Artifacts.CredentialsFile = envOrDefault("SURGE_GCS_CREDENTIALS_FILE", cfg.Artifacts.CredentialsFile)
	cfg.Inference.Concurrency = int64(envOrDefaultInt("SURGE_INFERENCE_CONCURRENCY", int(cfg.Inference.Concurrency)))
	cfg.Inference.Timeout = envOrDefaultDuration("SURGE_INFERENCE_TIMEOUT", cfg.Inference.Timeout)

	cfg.Pricing.BasePrice = envOrDefaultFloat("SURGE_BASE_PRICE", cfg.Pricing.BasePrice)
	cfg.Pricing.Currency = envOrDefault("SURGE_CURRENCY", cfg.Pricing.Currency)
	cfg.Pricing.CurrencySymbol = envOrDefault("SURGE_CURRENCY_SYMBOL", cfg.Pricing.CurrencySymbol)

	if v := os.Getenv("SURGE_PEAK_HOURS"); v != "" {
		windows, err := ParsePeakHours(v)
		if err != nil {
			return err
		}
		cfg.Forecast.PeakHours = windows
	}
	cfg.Forecast.SurgeThreshold = envOrDefaultFloat("SURGE_THRESHOLD", cfg.Forecast.SurgeThreshold)
	cfg.Forecast.DropWindow = envOrDefaultDuration("SURGE_DROP_WINDOW", cfg.Forecast.DropWindow)
	cfg.Forecast.Timezone = envOrDefault("SURGE_TIMEZONE", cfg.Forecast.Timezone)

	cfg.DB.DSN = envOrDefault("SURGE_DB_DSN", cfg.DB.DSN)
	cfg.Redis.Addr = envOrDefault("SURGE_REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.RouteTTL = envOrDefaultDuration("SURGE_ROUTE_CACHE_TTL", cfg.Redis.RouteTTL)
	cfg.Maps.APIKey = envOrDefault("GOOGLE_MAPS_API_KEY", cfg.Maps.APIKey)
	return nil
}

// ParsePeakHours parses "7-9,16-19" into inclusive windows.
func ParsePeakHours(s string) ([]PeakWindow, error) {
	var out []PeakWindow
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, ok := strings.Cut(part, "-")
		if !ok {
			return nil, fmt.Errorf("peak window %q: want start-end", part)
		}
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("peak window %q: %w", part, err)
		}
		end, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, fmt.Errorf("peak window %q: %w", part, err)
		}
		if start < 0 || end > 23 || start > end {
			return nil, fmt.Errorf("peak window %q out of range", part)
		}
		out = append(out, PeakWindow{Start: start, End: end})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no peak windows in %q", s)
	}
	return out, nil
}

// Location is the forecast time zone resolved by Load. A Config built by hand
// without Load forecasts in UTC.
func (c ForecastConfig) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

func (c *ForecastConfig) resolveLocation() error {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid forecast timezone %q: %w", c.Timezone, err)
	}
	c.loc = loc
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
