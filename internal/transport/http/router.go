// Package httptransport assembles the HTTP surface: middleware stack, the
// public endpoints and the authenticated API.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"casefile/internal/platform/middleware"
	"casefile/internal/platform/ratelimit"
	"casefile/internal/transport/http/shared"
)

// Registrar mounts a vertical's authenticated endpoints.
type Registrar interface {
	Register(r chi.Router)
}

// PublicRegistrar mounts endpoints that take no bearer token.
type PublicRegistrar interface {
	RegisterPublic(r chi.Router)
}

// Deps carries everything the router needs.
type Deps struct {
	Logger    *slog.Logger
	Validator middleware.JWTValidator

	Handlers       []Registrar
	PublicHandlers []PublicRegistrar

	// PublicLimiter throttles the unauthenticated surface when set.
	PublicLimiter ratelimit.Limiter
	PublicLimit   int
	PublicWindow  time.Duration

	Health func(r chi.Router)
}

// NewRouter builds the full HTTP handler.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Health != nil {
		d.Health(r)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Public surface: citizen tips and the wanted list.
	r.Group(func(pub chi.Router) {
		pub.Use(middleware.ContentTypeJSON)
		if d.PublicLimiter != nil {
			pub.Use(middleware.RateLimit(d.PublicLimiter, d.PublicLimit, d.PublicWindow, d.Logger))
		}
		for _, h := range d.PublicHandlers {
			h.RegisterPublic(pub)
		}
	})

	// Authenticated API.
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		api.Use(middleware.RequireAuth(d.Validator, d.Logger))
		for _, h := range d.Handlers {
			h.Register(api)
		}
	})

	return r
}
