package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroviewer/hydroviewer/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_PORT", "APP_ENV", "PAGE_URL", "API_BASE", "STATIC_DIR", "AXIS_MIN", "AXIS_MAX",
		"SESSION_IDLE_TTL", "PRELOAD_INTERVAL", "CORS_ALLOWED_ORIGINS", "OTEL_ENABLED",
		"DB_ENABLED", "DATABASE_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, config.LocalAPIBase, cfg.Data.APIBase)
	assert.Equal(t, "2010-01-01", cfg.Data.AxisMin)
	assert.Equal(t, "2025-12-31", cfg.Data.AxisMax)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("PAGE_URL", "https://example.github.io/hydro/")
	t.Setenv("SESSION_IDLE_TTL", "5m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.True(t, cfg.IsProduction())
	assert.Empty(t, cfg.Data.APIBase)
	assert.Equal(t, 5*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "port", env: map[string]string{"APP_PORT": "70000"}},
		{name: "file page without static dir", env: map[string]string{"PAGE_URL": "file:///srv/index.html"}},
		{name: "axis not a date", env: map[string]string{"AXIS_MIN": "yesterday"}},
		{name: "axis reversed", env: map[string]string{"AXIS_MIN": "2020-01-01", "AXIS_MAX": "2019-01-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestResolveAPIBase(t *testing.T) {
	tests := []struct {
		name     string
		pageURL  string
		override string
		want     string
	}{
		{name: "localhost", pageURL: "http://localhost:8080/", want: config.LocalAPIBase},
		{name: "loopback ip", pageURL: "http://127.0.0.1:5500/index.html", want: config.LocalAPIBase},
		{name: "file scheme", pageURL: "file://localhost/srv/index.html", want: ""},
		{name: "deployed", pageURL: "https://user.github.io/repo/", want: ""},
		{name: "override", pageURL: "https://user.github.io/repo/", override: "https://api.example/", want: "https://api.example"},
		{name: "off", pageURL: "http://localhost:8080/", override: "off", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.ResolveAPIBase(tt.pageURL, tt.override))
		})
	}
}
