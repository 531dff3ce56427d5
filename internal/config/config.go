// Package config loads checkoutctl settings from an optional YAML file and
// CHECKOUT_ environment variables. Environment values win over the file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/strongdm/checkout-actions/pkg/analytics"
	"github.com/strongdm/checkout-actions/pkg/apiclient"
)

// EnvPrefix is the prefix of all environment overrides. CHECKOUT_API_CLIENTKEY
// sets api.clientkey.
const EnvPrefix = "CHECKOUT_"

type Config struct {
	API       APIConfig       `koanf:"api"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	CXDB      CXDBConfig      `koanf:"cxdb"`
	Log       LogConfig       `koanf:"log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Tracing   TracingConfig   `koanf:"tracing"`
}

type APIConfig struct {
	Environment string        `koanf:"environment"` // test, live-eu, live-us, live-au, live-apse
	URL         string        `koanf:"url"`         // Optional: overrides the environment's checkout shopper URL
	ClientKey   string        `koanf:"clientkey"`
	Timeout     time.Duration `koanf:"timeout"`
}

type AnalyticsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Level   string `koanf:"level"` // initial, all
	URL     string `koanf:"url"`   // Optional: overrides the environment's analytics URL

	FlushInterval time.Duration `koanf:"flushinterval"`
	InfoLimit     int           `koanf:"infolimit"`
	LogLimit      int           `koanf:"loglimit"`
	ErrorLimit    int           `koanf:"errorlimit"`

	QueueSize int    `koanf:"queuesize"` // Events queued ahead of the delivery sinks
	Spool     string `koanf:"spool"`     // Optional: sqlite spool path
	Verbose   bool   `koanf:"verbose"`   // Also print events to stderr
}

type CXDBConfig struct {
	Addr      string `koanf:"addr"` // Empty disables the error journal
	ClientTag string `koanf:"clienttag"`
}

type LogConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"` // text, json
	File       string `koanf:"file"`   // Empty logs to stderr
	MaxSizeMB  int    `koanf:"maxsizemb"`
	MaxBackups int    `koanf:"maxbackups"`
	MaxAgeDays int    `koanf:"maxagedays"`
}

type MetricsConfig struct {
	Addr string `koanf:"addr"` // Empty disables the metrics listener
}

type TracingConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"servicename"`
}

var defaults = map[string]any{
	"api.environment":         "test",
	"api.timeout":             "30s",
	"analytics.enabled":       true,
	"analytics.level":         string(analytics.LevelAll),
	"analytics.flushinterval": "10s",
	"analytics.infolimit":     50,
	"analytics.loglimit":      10,
	"analytics.errorlimit":    5,
	"analytics.queuesize":     1000,
	"cxdb.clienttag":          "checkoutctl",
	"log.level":               "info",
	"log.format":              "text",
	"log.maxsizemb":           100,
	"log.maxbackups":          3,
	"log.maxagedays":          28,
	"tracing.servicename":     "checkoutctl",
}

// Load reads path (skipped when empty), then the environment, then fills
// defaults for anything unset.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			if err := k.Set(key, value); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be checked by decoding alone.
func (c *Config) Validate() error {
	var errs []error
	if _, err := apiclient.LookupEnvironment(c.API.Environment); err != nil {
		errs = append(errs, err)
	}
	switch analytics.Level(c.Analytics.Level) {
	case analytics.LevelInitial, analytics.LevelAll:
	default:
		errs = append(errs, fmt.Errorf("config: analytics.level must be %q or %q, got %q",
			analytics.LevelInitial, analytics.LevelAll, c.Analytics.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Analytics.InfoLimit < 0 || c.Analytics.LogLimit < 0 || c.Analytics.ErrorLimit < 0 {
		errs = append(errs, errors.New("config: analytics limits must not be negative"))
	}
	if c.Analytics.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("config: analytics.queuesize must be positive, got %d", c.Analytics.QueueSize))
	}
	return errors.Join(errs...)
}

// Environment resolves the API environment, applying URL overrides.
func (c *Config) Environment() (apiclient.Environment, error) {
	environment, err := apiclient.LookupEnvironment(c.API.Environment)
	if err != nil {
		return apiclient.Environment{}, err
	}
	if c.API.URL != "" {
		environment.CheckoutShopperURL = c.API.URL
	}
	if c.Analytics.URL != "" {
		environment.AnalyticsURL = c.Analytics.URL
	}
	return environment, nil
}

// AnalyticsConfiguration builds the provider configuration.
func (c *Config) AnalyticsConfiguration() analytics.Configuration {
	cfg := analytics.DefaultConfiguration(c.API.ClientKey)
	cfg.Enabled = c.Analytics.Enabled
	cfg.Level = analytics.Level(c.Analytics.Level)
	return cfg
}
