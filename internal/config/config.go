// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/hydroviewer/hydroviewer/internal/database"
	"github.com/hydroviewer/hydroviewer/internal/hydro"
	"github.com/hydroviewer/hydroviewer/internal/view"
)

// LocalAPIBase is the backend origin used when the page is served from a loopback host.
const LocalAPIBase = "http://127.0.0.1:8000"

// APIBaseOff forces static-only operation when given as API_BASE.
const APIBaseOff = "off"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all runtime configuration.
type Config struct {
	App       AppConfig
	Data      DataConfig
	Session   SessionConfig
	Preload   PreloadConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
	Database  database.Config
}

// AppConfig describes the process.
type AppConfig struct {
	Port        int
	Environment string
}

// DataConfig locates the static bundle and the optional backend.
type DataConfig struct {
	// PageURL is where the viewer page is served; static documents resolve under it.
	PageURL string

	// StaticDir serves the bundle from disk instead of PageURL.
	StaticDir string

	// APIBase is the backend origin. Empty means static-only.
	APIBase string

	AxisMin string
	AxisMax string
}

// SessionConfig controls viewer sessions.
type SessionConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// PreloadConfig controls domain warming.
type PreloadConfig struct {
	Interval    time.Duration
	Concurrency int
}

// HTTPConfig controls the API surface.
type HTTPConfig struct {
	AllowedOrigins []string
	RateLimit      int // requests per minute per IP
	ChartRateLimit int // chart renders per minute per IP
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	SampleRatio float64
}

// Load reads configuration from the environment, after loading .env if present.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	pageURL := getEnv("PAGE_URL", "http://localhost:8080/")
	cfg := &Config{
		App: AppConfig{
			Port:        getEnvAsInt("APP_PORT", 8080),
			Environment: getEnv("APP_ENV", "development"),
		},
		Data: DataConfig{
			PageURL:   pageURL,
			StaticDir: getEnv("STATIC_DIR", ""),
			APIBase:   ResolveAPIBase(pageURL, os.Getenv("API_BASE")),
			AxisMin:   getEnv("AXIS_MIN", view.DefaultAxisMin),
			AxisMax:   getEnv("AXIS_MAX", view.DefaultAxisMax),
		},
		Session: SessionConfig{
			IdleTTL:       getEnvAsDuration("SESSION_IDLE_TTL", 30*time.Minute),
			SweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", time.Minute),
		},
		Preload: PreloadConfig{
			Interval:    getEnvAsDuration("PRELOAD_INTERVAL", 15*time.Minute),
			Concurrency: getEnvAsInt("PRELOAD_CONCURRENCY", 3),
		},
		HTTP: HTTPConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
			RateLimit:      getEnvAsInt("RATE_LIMIT_PER_MINUTE", 300),
			ChartRateLimit: getEnvAsInt("CHART_RATE_LIMIT_PER_MINUTE", 60),
		},
		Telemetry: TelemetryConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1),
		},
		Database: database.ConfigFromEnv(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("%w: APP_PORT %d out of range", ErrInvalidConfig, c.App.Port)
	}
	if c.Data.StaticDir == "" {
		u, err := url.Parse(c.Data.PageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("%w: PAGE_URL %q must be http(s) unless STATIC_DIR is set", ErrInvalidConfig, c.Data.PageURL)
		}
	}
	lo, okLo := hydro.ParseTime(c.Data.AxisMin)
	hi, okHi := hydro.ParseTime(c.Data.AxisMax)
	if !okLo || !okHi {
		return fmt.Errorf("%w: axis bounds %q..%q are not dates", ErrInvalidConfig, c.Data.AxisMin, c.Data.AxisMax)
	}
	if !lo.Before(hi) {
		return fmt.Errorf("%w: AXIS_MIN must precede AXIS_MAX", ErrInvalidConfig)
	}
	return nil
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// ResolveAPIBase picks the backend origin. An explicit override wins, with "off"
// meaning static-only. Otherwise a page served over a non-file scheme from
// localhost or 127.0.0.1 talks to the local backend, and anything else is static-only.
func ResolveAPIBase(pageURL, override string) string {
	override = strings.TrimSpace(override)
	if strings.EqualFold(override, APIBaseOff) {
		return ""
	}
	if override != "" {
		return strings.TrimRight(override, "/")
	}

	u, err := url.Parse(pageURL)
	if err != nil || u.Scheme == "file" {
		return ""
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1":
		return LocalAPIBase
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
