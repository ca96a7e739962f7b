// Package config loads client configuration from an optional YAML file and
// CITYPULSE_* environment variables. The only required setting is the
// backend base URL.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the client.
type Config struct {
	Backend   BackendConfig   `mapstructure:"backend"`
	Search    SearchConfig    `mapstructure:"search"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// BackendConfig describes how to reach the dashboard backend.
type BackendConfig struct {
	// BaseURL is the API root, e.g. "http://localhost:8001".
	BaseURL string `mapstructure:"base_url"`

	// RequestTimeout is the fixed transport timeout.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// RefreshInterval is the dashboard auto-refresh period.
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`

	// RateLimit caps outgoing requests per second (0 disables).
	RateLimit float64 `mapstructure:"rate_limit"`
}

// SearchConfig tunes the search session.
type SearchConfig struct {
	// Debounce is the suggestion quiet period.
	Debounce time.Duration `mapstructure:"debounce"`

	// Size is the primary search result count.
	Size int `mapstructure:"size"`

	// SuggestionSize is the autocomplete list length.
	SuggestionSize int `mapstructure:"suggestion_size"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// Load reads configuration from the given file (optional, "" skips it) with
// environment variables taking precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CITYPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("backend.base_url is required (set CITYPULSE_BACKEND_BASE_URL)")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// base_url must exist as a key for AutomaticEnv to bind it on Unmarshal.
	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.request_timeout", 30*time.Second)
	v.SetDefault("backend.refresh_interval", 30*time.Second)
	v.SetDefault("backend.rate_limit", 0)

	v.SetDefault("search.debounce", 300*time.Millisecond)
	v.SetDefault("search.size", 50)
	v.SetDefault("search.suggestion_size", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
}
