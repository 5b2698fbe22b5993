package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/RavensCloud/instagram-gofun/internal/api/handler"
	mw "github.com/RavensCloud/instagram-gofun/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(
	reelsHandler *handler.ReelsHandler,
	healthHandler *handler.HealthHandler,
	maxInFlight int,
	allowedOrigins []string,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(mw.CORS(allowedOrigins))
	// Browser-fallback retrievals can take a while; bound both wall time and
	// how many retrievals run at once.
	r.Use(middleware.Timeout(2 * time.Minute))

	// Health and metadata (no throttling)
	r.Get("/health", healthHandler.Live)
	r.Get("/", healthHandler.Meta)

	r.Route("/api/reels", func(r chi.Router) {
		r.Use(middleware.Throttle(maxInFlight))

		r.Get("/user/{username}", reelsHandler.ByUsername)
		r.Post("/url", reelsHandler.ByURL)
		r.Post("/batch", reelsHandler.Batch)
	})

	return r
}
