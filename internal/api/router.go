package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aiden123456789/Whispers/internal/metrics"
)

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	CORSOrigins []string      // Allowed browser origins, all when empty
	PostLimit   int           // Posts allowed per window and client IP, 0 disables the limit
	PostWindow  time.Duration // Window of the post limit
	APILimit    int           // Requests per minute and client IP on /api routes, 0 disables the limit
}

// NewRouter wires the handlers, the live feed and the metrics endpoint into one http.Handler.
func NewRouter(
	log *slog.Logger,
	cfg RouterConfig,
	h *Handler,
	stream http.Handler,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
) http.Handler {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log, m))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLimiter(cfg.APILimit))

		r.Get("/messages", h.ListWhispers)
		r.With(postLimiter(cfg.PostLimit, cfg.PostWindow)).Post("/messages", h.PostWhisper)
		r.Get("/messages/nearby", h.NearbyWhispers)
		r.Get("/messages/clusters", h.ClusterWhispers)
		r.Get("/messages/around", h.AroundWhispers)
		if stream != nil {
			r.Get("/messages/stream", stream.ServeHTTP)
		}

		r.Post("/subscribe", h.Subscribe)
		r.Get("/push/key", h.PushKey)
	})

	return r
}
