package config

import (
	"context"
	"errors"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "EPIDATA_"
	envConfigFile = "EPIDATA_CONFIG"
	envDotenvFile = "EPIDATA_ENV_FILE"
	defaultDotenv = ".env"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if EPIDATA_CONFIG is set
//  3. env (prefix EPIDATA_), including values from a .env file
//
// The .env file (EPIDATA_ENV_FILE, default ./.env) never overrides
// variables already present in the process environment.
func Load(_ context.Context) (*Config, error) {
	base := New()

	if err := loadDotenv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, loadFailed(path, err)
		}
	}

	// EPIDATA_TIMEOUT_MS -> timeout_ms. Underscores are kept to match the
	// flat koanf tags on the struct.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, loadFailed("", err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, loadFailed("", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotenv() error {
	path := os.Getenv(envDotenvFile)
	explicit := path != ""
	if !explicit {
		path = defaultDotenv
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return loadFailed(path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return loadFailed(path, err)
	}
	return nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if c.BaseURL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("base_url", "must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if c.TimeoutMS < 0 {
		return invalid("timeout_ms", "must not be negative")
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return invalid("rate_limit/rate_burst", "must not be negative")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return invalid("log_format", "must be text or json, got %q", c.LogFormat)
	}
	return nil
}
