package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"kanban-board-backend/pkg/config"
)

// CORS builds the CORS middleware from configuration.
func CORS(cfg *config.Config) func(http.Handler) http.Handler {
	corsOptions := cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
			http.MethodPatch,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Requested-With",
		},
		AllowCredentials: true,
		MaxAge:           300,
	}

	// Credentials cannot be combined with a wildcard origin.
	if len(cfg.AllowedOrigins) > 0 && cfg.AllowedOrigins[0] == "*" {
		corsOptions.AllowCredentials = false
	}

	return cors.Handler(corsOptions)
}
