package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/hydroviewer/hydroviewer/internal/api/models"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

// Default rate limits.
var (
	// StandardRateLimit applies to catalog, session and settings endpoints.
	StandardRateLimit = RateLimitConfig{RequestLimit: 300, WindowLength: time.Minute}

	// ChartRateLimit applies to PNG rendering.
	ChartRateLimit = RateLimitConfig{RequestLimit: 60, WindowLength: time.Minute}
)

// PerMinute returns a one-minute window allowing n requests, or def when n is not
// positive.
func PerMinute(n int, def RateLimitConfig) RateLimitConfig {
	if n <= 0 {
		return def
	}
	return RateLimitConfig{RequestLimit: n, WindowLength: time.Minute}
}

// RateLimitByIP creates a rate limiter keyed by client IP. Run chi's RealIP first so
// proxied clients are told apart.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(limitExceeded(cfg.WindowLength)),
	)
}

// limitExceeded writes a Problem response. httprate does not expose the reset time,
// so Retry-After is the full window.
func limitExceeded(window time.Duration) http.HandlerFunc {
	retryAfter := strconv.Itoa(int(window.Seconds()))
	return func(w http.ResponseWriter, r *http.Request) {
		problem := models.NewTooManyRequests(GetRequestID(r.Context()), "Rate limit exceeded. Please try again later.")
		problem.Instance = r.URL.Path
		w.Header().Set("Retry-After", retryAfter)
		problem.Write(w)
	}
}
