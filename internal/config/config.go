// Package config defines the epidata CLI configuration and how it is loaded.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file, an optional .env file and EPIDATA_ env vars on top.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"time"

	"github.com/okian/epidata/pkg/epidata"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// BaseURL is the Epidata endpoint, e.g. https://delphi.cmu.edu/epidata/api.php.
	BaseURL string `koanf:"base_url"`

	// Auth is the default token for restricted sources.
	Auth string `koanf:"auth"`

	// TimeoutMS bounds each request. Zero disables the timeout.
	TimeoutMS int `koanf:"timeout_ms"`

	// RateLimit caps requests per second. Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`

	// RateBurst is the token bucket capacity used with RateLimit.
	RateBurst int64 `koanf:"rate_burst"`

	// UserAgent is sent with every request.
	UserAgent string `koanf:"user_agent"`

	// MetricsAddr, when set, serves /metrics and /healthz, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`

	// JaegerEndpoint, when set, exports spans to a Jaeger collector.
	JaegerEndpoint string `koanf:"jaeger_endpoint"`

	// ServiceName is the tracing service name.
	ServiceName string `koanf:"service_name"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		BaseURL:     epidata.DefaultBaseURL,
		TimeoutMS:   30_000,
		RateBurst:   1,
		UserAgent:   epidata.DefaultUserAgent,
		ServiceName: "epidata",
	}
}

// Timeout returns TimeoutMS as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
