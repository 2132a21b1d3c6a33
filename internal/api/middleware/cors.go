package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the browser viewer, possibly served from another origin such as a
// static host, to call the API. An empty list allows any origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id", "traceparent", "tracestate"},
		ExposedHeaders:   []string{"X-Request-Id", "Location", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
