// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/trailpass/trailpass/internal/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfigFile(t *testing.T, values map[string]any) string {
	t.Helper()
	data, err := yaml.Marshal(values)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults without file or flags", func(t *testing.T) {
		cfg, err := config.Load("", nil)
		require.NoError(t, err)

		def := config.Default()
		assert.Equal(t, def.Env, cfg.Env)
		assert.Equal(t, def.ListenAddr, cfg.ListenAddr)
		assert.Equal(t, def.TokenTTL, cfg.TokenTTL)
		assert.Equal(t, def.CookieTTLDays, cfg.CookieTTLDays)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := writeConfigFile(t, map[string]any{
			"env":             "production",
			"listen_addr":     ":9999",
			"token_ttl":       "2h",
			"cookie_ttl_days": 30,
		})

		cfg, err := config.Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, config.EnvProduction, cfg.Env)
		assert.Equal(t, ":9999", cfg.ListenAddr)
		assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
		assert.Equal(t, 30, cfg.CookieTTLDays)
		// Untouched keys keep their defaults.
		assert.Equal(t, config.Default().ObservabilityAddr, cfg.ObservabilityAddr)
	})

	t.Run("flags override file", func(t *testing.T) {
		path := writeConfigFile(t, map[string]any{"listen_addr": ":9999"})

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("listen_addr", config.Default().ListenAddr, "")
		require.NoError(t, flags.Parse([]string{"--listen_addr", ":7777"}))

		cfg, err := config.Load(path, flags)
		require.NoError(t, err)
		assert.Equal(t, ":7777", cfg.ListenAddr)
	})

	t.Run("environment provides secrets", func(t *testing.T) {
		t.Setenv(config.EnvVarDatabaseURL, "postgres://db.internal/trailpass")
		t.Setenv(config.EnvVarJWTSecret, testSecret)

		cfg, err := config.Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, "postgres://db.internal/trailpass", cfg.DatabaseURL)
		assert.Equal(t, testSecret, cfg.JWTSecret)
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := config.Load("/nonexistent/config.yaml", nil)
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		cfg := config.Default()
		cfg.DatabaseURL = "postgres://localhost/trailpass"
		cfg.JWTSecret = testSecret
		return &cfg
	}

	t.Run("complete config passes", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("rejects unknown env", func(t *testing.T) {
		cfg := valid()
		cfg.Env = "staging"
		assert.Error(t, cfg.Validate())
	})

	t.Run("requires database url", func(t *testing.T) {
		cfg := valid()
		cfg.DatabaseURL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects short jwt secret", func(t *testing.T) {
		cfg := valid()
		cfg.JWTSecret = "short"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects non-positive ttls", func(t *testing.T) {
		cfg := valid()
		cfg.TokenTTL = 0
		assert.Error(t, cfg.Validate())

		cfg = valid()
		cfg.CookieTTLDays = -1
		assert.Error(t, cfg.Validate())
	})
}

func TestIsProduction(t *testing.T) {
	cfg := config.Default()
	assert.False(t, cfg.IsProduction())

	cfg.Env = config.EnvProduction
	assert.True(t, cfg.IsProduction())
}
