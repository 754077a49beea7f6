// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

// Package config loads process configuration for TrailPass.
//
// Precedence, lowest to highest: built-in defaults, YAML config file,
// command-line flags, environment variables. Secrets (database URL,
// token signing secret) are only ever read from the environment so
// they never end up in a config file checked into a repo.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Environment variables holding secrets.
const (
	EnvVarDatabaseURL = "DATABASE_URL"
	EnvVarJWTSecret   = "TRAILPASS_JWT_SECRET"
)

// MinJWTSecretLen mirrors the token service's minimum secret length.
const MinJWTSecretLen = 32

// Config is the process-wide configuration. It is built once at
// startup and treated as read-only afterwards.
type Config struct {
	Env               string        `koanf:"env"`
	ListenAddr        string        `koanf:"listen_addr"`
	ObservabilityAddr string        `koanf:"observability_addr"`
	PublicBaseURL     string        `koanf:"public_base_url"`
	LogFormat         string        `koanf:"log_format"`
	DatabaseURL       string        `koanf:"database_url"`
	JWTSecret         string        `koanf:"jwt_secret"`
	TokenTTL          time.Duration `koanf:"token_ttl"`
	CookieTTLDays     int           `koanf:"cookie_ttl_days"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Env:               EnvDevelopment,
		ListenAddr:        ":8080",
		ObservabilityAddr: "127.0.0.1:9100",
		PublicBaseURL:     "http://localhost:8080",
		LogFormat:         "json",
		TokenTTL:          24 * time.Hour,
		CookieTTLDays:     90,
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// optional flag overrides, and environment secrets.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg := Default()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}

	if v := os.Getenv(EnvVarDatabaseURL); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv(EnvVarJWTSecret); v != "" {
		cfg.JWTSecret = v
	}

	return &cfg, nil
}

// Validate checks that the configuration is complete enough to serve.
func (c *Config) Validate() error {
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return oops.Code("CONFIG_INVALID").
			With("env", c.Env).
			Errorf("env must be %q or %q", EnvDevelopment, EnvProduction)
	}
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("%s environment variable is required", EnvVarDatabaseURL)
	}
	if len(c.JWTSecret) < MinJWTSecretLen {
		return oops.Code("CONFIG_INVALID").
			With("min_bytes", MinJWTSecretLen).
			Errorf("%s must be at least %d bytes", EnvVarJWTSecret, MinJWTSecretLen)
	}
	if c.TokenTTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("token_ttl must be positive")
	}
	if c.CookieTTLDays <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("cookie_ttl_days must be positive")
	}
	return nil
}

// IsProduction reports whether the process runs in production mode.
// Production enables the Secure cookie attribute and hides internal
// error detail from responses.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}
