package http

import (
	"net/http"

	"ammindexer/internal/api/http/handlers"
	"ammindexer/internal/api/http/mw"
	"ammindexer/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func BuildRouter(h *handlers.Handler, logMW *mw.LoggingMiddleware, metricsHandler http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	if logMW != nil {
		r.Use(logMW.Handler)
	}

	if metricsHandler == nil {
		metricsHandler = metrics.Handler()
	}

	r.Get("/healthz", h.Healthz)
	r.Get("/readiness", h.Readiness)
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	return r
}
