package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"healthfirst/internal/registration"
	"healthfirst/internal/verification"
)

// Handler exposes the registration API over HTTP.
type Handler struct {
	registration *registration.Service
	verification *verification.Service
	logger       *slog.Logger

	// pings are dependency health checks run by /health, keyed by name.
	pings map[string]func(context.Context) error
}

type HandlerOption func(*Handler)

// WithHealthCheck registers a dependency ping reported by /health.
func WithHealthCheck(name string, ping func(context.Context) error) HandlerOption {
	return func(h *Handler) { h.pings[name] = ping }
}

func NewHandler(reg *registration.Service, ver *verification.Service, logger *slog.Logger, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		registration: reg,
		verification: ver,
		logger:       logger,
		pings:        make(map[string]func(context.Context) error),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes builds the router. All API endpoints live under /api/v1; health and
// metrics stay at the root for probes and scrapers.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/provider", func(r chi.Router) {
			r.Post("/register", h.registerProvider)
			r.Post("/login", h.loginProvider)
			r.Post("/verify-email", h.verifyEmail)
			r.Post("/resend-verification", h.resendVerification)
			r.Get("/specializations", h.listSpecializations)
			r.Get("/{id}", h.getProvider)
		})
		r.Route("/patient", func(r chi.Router) {
			r.Post("/register", h.registerPatient)
			r.Post("/login", h.loginPatient)
			r.Post("/verify-email", h.verifyEmail)
			r.Post("/resend-verification", h.resendVerification)
		})
	})

	r.Get("/health", h.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	status := make(map[string]string, len(h.pings))
	healthy := true
	for name, ping := range h.pings {
		if err := ping(r.Context()); err != nil {
			h.logger.Warn("health check failed", "dependency", name, "error", err)
			status[name] = "down"
			healthy = false
			continue
		}
		status[name] = "up"
	}
	if !healthy {
		writeJSON(w, http.StatusServiceUnavailable, envelope{
			Success: false,
			Message: "degraded",
			Data:    status,
		})
		return
	}
	writeSuccess(w, http.StatusOK, "ok", status)
}
