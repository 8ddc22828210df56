package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/saige-footwear/contact-relay/internal/config"
	"github.com/saige-footwear/contact-relay/internal/contact"
	"github.com/saige-footwear/contact-relay/internal/health"
	"github.com/saige-footwear/contact-relay/internal/obs"
	"github.com/saige-footwear/contact-relay/internal/security"
)

// RouterOptions configures the HTTP surface.
type RouterOptions struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Deps    *Dependencies
	Health  health.Handler
	Headers security.Headers
	// Metrics enables per-route HTTP metrics when non-nil.
	Metrics *obs.HTTPMetrics
	// MetricsHandler is mounted at /metrics when non-nil.
	MetricsHandler http.Handler
	Tracing        bool
}

// NewRouter assembles the middleware chain and routes.
func NewRouter(opts RouterOptions) http.Handler {
	cfg := opts.Config

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if opts.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if opts.Metrics != nil {
		r.Use(obs.HTTPObs{Metrics: opts.Metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: opts.Logger}.Middleware)
	r.Use(opts.Headers.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins(),
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
		// The relay answers preflights itself with 204.
		OptionsPassthrough: true,
	}))

	if opts.MetricsHandler != nil {
		r.Handle("/metrics", opts.MetricsHandler)
	}
	r.Get("/health/live", opts.Health.Live)
	r.Get("/health/ready", opts.Health.Ready)

	contactHandler := &contact.Handler{Svc: opts.Deps.Contact, Logger: opts.Logger}
	r.With(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware).Handle(cfg.ContactPath, contactHandler)
	return r
}
