package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDependencies collects handler dependencies for NewRouter.
type RouterDependencies struct {
	Handler          *Handler
	AllowedOrigins   []string
	AllowCredentials bool
}

// NewRouter wires the HTTP routes exposed by the analysis API on a chi
// router: request logging, CORS, recovery, and request-ID tracing as global
// middleware, then POST /analyze, GET /healthz, GET /metrics.
func NewRouter(logger *slog.Logger, deps RouterDependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(recoverMiddleware(logger))
	r.Use(tracingMiddleware)
	r.Use(loggingMiddleware(logger))
	if len(deps.AllowedOrigins) > 0 {
		r.Use(corsMiddleware(deps.AllowedOrigins, deps.AllowCredentials))
	}

	r.Get("/healthz", deps.Handler.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/analyze", deps.Handler.Analyze)

	return r
}
