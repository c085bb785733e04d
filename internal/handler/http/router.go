package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inkshelf/inkshelf/internal/domain"
	"github.com/inkshelf/inkshelf/internal/service"
	"github.com/inkshelf/inkshelf/pkg/health"
	"github.com/inkshelf/inkshelf/pkg/middleware"
)

// RouterConfig carries the deployment-specific knobs the router needs.
type RouterConfig struct {
	CORS       middleware.CORSConfig
	PprofCIDRs []string
	Tracing    bool
}

// NewRouter creates a chi router with all review service routes registered.
func NewRouter(
	bookService *service.BookService,
	reviewService *service.ReviewService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("reviews"))
	if cfg.Tracing {
		r.Use(middleware.Tracing("reviews"))
	}
	r.Use(middleware.Identity())
	r.Use(middleware.RequestLogger(logger))

	// Health check and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	bookHandler := NewBookHandler(bookService, logger)
	reviewHandler := NewReviewHandler(reviewService, logger)

	// Catalog endpoints. Reads are public; writes are admin only.
	r.Route("/api/v1/books", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", bookHandler.ListBooks)
		r.Get("/{idOrSlug}", bookHandler.GetBook)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin))

			r.Post("/", bookHandler.CreateBook)
			r.Put("/{id}", bookHandler.UpdateBook)
			r.Delete("/{id}", bookHandler.DeleteBook)
		})
	})

	// Review endpoints nested under books
	r.Route("/api/v1/books/{bookId}/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", reviewHandler.ListBookReviews)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser())

			r.Post("/", reviewHandler.CreateReview)
		})
	})

	// Review endpoints addressed by review ID
	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/recent", reviewHandler.RecentReviews)
		r.Get("/{id}", reviewHandler.GetReview)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser())

			r.Patch("/{id}", reviewHandler.UpdateReview)
			r.Delete("/{id}", reviewHandler.DeleteReview)
			r.Post("/{id}/like", reviewHandler.ToggleLike)
		})
	})

	// Per-user review listings
	r.Route("/api/v1/users/{userId}/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", reviewHandler.ListUserReviews)
	})

	// Moderation queue
	r.Route("/api/v1/moderation", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.RequireRole(domain.RoleModerator, domain.RoleAdmin))

		r.Get("/reviews", reviewHandler.ListPendingReviews)
	})

	// Admin tooling
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.RequireRole(domain.RoleAdmin))

		r.Post("/books/{bookId}/rating/recompute", bookHandler.RecomputeRating)
	})

	return r
}
