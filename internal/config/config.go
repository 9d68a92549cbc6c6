// Package config loads the server configuration from a YAML file and the
// FOURGEARS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"fourgears/internal/github"
	"fourgears/internal/quote"
	"fourgears/internal/storage/sqlstore"
	"fourgears/internal/util"
)

// Config is the full server configuration.
type Config struct {
	Addr            string         `yaml:"addr"`
	StaticDir       string         `yaml:"static_dir"`
	ShutdownTimeout time.Duration  `yaml:"shutdown_timeout"`
	Database        DatabaseConfig `yaml:"database"`
	Log             LogConfig      `yaml:"log"`
	SecretKey       string         `yaml:"secret_key"`
	GitHub          GitHubConfig   `yaml:"github"`
	Pricing         PricingConfig  `yaml:"pricing"`
	Notify          NotifyConfig   `yaml:"notify"`
}

// DatabaseConfig selects the store driver.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GitHubConfig points the mirroring client at an account.
type GitHubConfig struct {
	APIURL  string        `yaml:"api_url"`
	Owner   string        `yaml:"owner"`
	Timeout time.Duration `yaml:"timeout"`
}

// PricingConfig is the quote rate card.
type PricingConfig struct {
	MarketBaseFee    float64 `yaml:"market_base_fee"`
	MarketHourlyRate float64 `yaml:"market_hourly_rate"`
	UrgentSurcharge  float64 `yaml:"urgent_surcharge"`
	BaseFee          float64 `yaml:"base_fee"`
	HourlyRate       float64 `yaml:"hourly_rate"`
}

// NotifyConfig guards the submission webhook.
type NotifyConfig struct {
	WebhookSecret string `yaml:"webhook_secret"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Addr:            ":8080",
		StaticDir:       "web/dist",
		ShutdownTimeout: 5 * time.Second,
		Database:        DatabaseConfig{Driver: sqlstore.DriverSQLite, DSN: "data/fourgears.db"},
		Log:             LogConfig{Level: "info", Format: "json"},
		GitHub:          GitHubConfig{APIURL: github.DefaultAPIURL, Timeout: 10 * time.Second},
		Pricing: PricingConfig{
			MarketBaseFee:    3500,
			MarketHourlyRate: 120,
			UrgentSurcharge:  500,
			BaseFee:          1500,
			HourlyRate:       65,
		},
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Addr = util.EnvOrDefault("FOURGEARS_ADDR", c.Addr)
	c.StaticDir = util.EnvOrDefault("FOURGEARS_STATIC_DIR", c.StaticDir)
	c.Database.Driver = util.EnvOrDefault("FOURGEARS_DB_DRIVER", c.Database.Driver)
	c.Database.DSN = util.EnvOrDefault("FOURGEARS_DB_DSN", c.Database.DSN)
	c.Log.Level = util.EnvOrDefault("FOURGEARS_LOG_LEVEL", c.Log.Level)
	c.Log.Format = util.EnvOrDefault("FOURGEARS_LOG_FORMAT", c.Log.Format)
	c.SecretKey = util.EnvOrDefault("FOURGEARS_SECRET_KEY", c.SecretKey)
	c.GitHub.APIURL = util.EnvOrDefault("FOURGEARS_GITHUB_API_URL", c.GitHub.APIURL)
	c.GitHub.Owner = util.EnvOrDefault("FOURGEARS_GITHUB_OWNER", c.GitHub.Owner)
	c.GitHub.Timeout = util.EnvDuration("FOURGEARS_GITHUB_TIMEOUT", c.GitHub.Timeout)
	c.Notify.WebhookSecret = util.EnvOrDefault("FOURGEARS_WEBHOOK_SECRET", c.Notify.WebhookSecret)
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case sqlstore.DriverSQLite, sqlstore.DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, errors.New("database.dsn: must not be empty"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout: must be positive"))
	}
	if c.GitHub.Timeout <= 0 {
		errs = append(errs, errors.New("github.timeout: must be positive"))
	}
	for _, price := range []struct {
		name  string
		value float64
	}{
		{"market_base_fee", c.Pricing.MarketBaseFee},
		{"market_hourly_rate", c.Pricing.MarketHourlyRate},
		{"urgent_surcharge", c.Pricing.UrgentSurcharge},
		{"base_fee", c.Pricing.BaseFee},
		{"hourly_rate", c.Pricing.HourlyRate},
	} {
		if price.value < 0 {
			errs = append(errs, fmt.Errorf("pricing.%s: must not be negative", price.name))
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Pricing converts the rate card for the quote calculator.
func (p PricingConfig) Pricing() quote.Pricing {
	return quote.Pricing{
		MarketBaseFee:    decimal.NewFromFloat(p.MarketBaseFee),
		MarketHourlyRate: decimal.NewFromFloat(p.MarketHourlyRate),
		UrgentSurcharge:  decimal.NewFromFloat(p.UrgentSurcharge),
		BaseFee:          decimal.NewFromFloat(p.BaseFee),
		HourlyRate:       decimal.NewFromFloat(p.HourlyRate),
	}
}

// NewLogger builds the slog logger described by the log section.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(l.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(l.Format) == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}
