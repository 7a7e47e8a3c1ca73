package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

// CORS applies the configured origin policy for the storefront and admin
// frontends.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", CartSessionHeader, "X-Requested-With"},
		ExposedHeaders:   []string{CartSessionHeader, "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
