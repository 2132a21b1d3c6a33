// Package api provides the HTTP API for the hydrology viewer.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/hydroviewer/hydroviewer/internal/api/handler"
	"github.com/hydroviewer/hydroviewer/internal/api/middleware"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics // optional

	AllowedOrigins []string
	RateLimit      middleware.RateLimitConfig
	ChartRateLimit middleware.RateLimitConfig

	Ops      handler.OpsConfig
	Catalog  handler.Catalog
	Sessions handler.SessionStore
	Settings handler.SettingsService
	Clock    clockwork.Clock
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "hydroviewer-api"
	}
	if cfg.RateLimit.RequestLimit <= 0 {
		cfg.RateLimit = middleware.StandardRateLimit
	}
	if cfg.ChartRateLimit.RequestLimit <= 0 {
		cfg.ChartRateLimit = middleware.ChartRateLimit
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.RequireJSON)

	opsHandler := handler.NewOpsHandler(cfg.Ops)
	catalogHandler := handler.NewCatalogHandler(cfg.Catalog)
	sessionHandler := handler.NewSessionHandler(cfg.Sessions, cfg.Logger)
	settingsHandler := handler.NewSettingsHandler(cfg.Settings, cfg.Clock, cfg.Logger)

	standardRateLimit := middleware.RateLimitByIP(cfg.RateLimit)
	chartRateLimit := middleware.RateLimitByIP(cfg.ChartRateLimit)

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints are probed by orchestrators and are not rate limited.
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)

			r.Get("/stations/discharge", catalogHandler.ListDischargeStations)
			r.Get("/stations/noaa", catalogHandler.ListNOAAStations)
			r.Get("/sensors", catalogHandler.ListSensors)
			r.Get("/storms", catalogHandler.ListStorms)
			r.Get("/ids/{raw}", catalogHandler.NormalizeID)
			r.Get("/map", catalogHandler.GetMap)

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", sessionHandler.Create)
				r.Route("/{sessionId}", func(r chi.Router) {
					r.Get("/", sessionHandler.Get)
					r.Delete("/", sessionHandler.Delete)
					r.Post("/selection", sessionHandler.Select)
					r.Put("/storm", sessionHandler.SetStorm)
					r.Get("/view", sessionHandler.GetView)
					r.Get("/layers", sessionHandler.GetLayers)
					r.Put("/layers/{layer}", sessionHandler.ToggleLayer)
					r.With(chartRateLimit).Get("/charts/{panel}.png", sessionHandler.GetChart)
				})
			})

			r.Route("/admin", func(r chi.Router) {
				r.Get("/domains", settingsHandler.Get)
				r.Put("/domains", settingsHandler.Update)
			})
		})
	})

	return r
}
