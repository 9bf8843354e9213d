package handlers

import (
	"context"
	"net/http"
	"time"

	"ammindexer/pkg/httputil"

	"gitlab.com/nevasik7/alerting/logger"
)

const readinessTimeout = 5 * time.Second

// DependencyChecker reports whether every backing service is reachable.
type DependencyChecker interface {
	CheckDependency(ctx context.Context) error
}

type Handler struct {
	Log     logger.Logger
	Checker DependencyChecker
}

func NewHandler(log logger.Logger, checker DependencyChecker) *Handler {
	if checker == nil {
		panic("dependency checker cannot be nil")
	}

	return &Handler{Log: log, Checker: checker}
}

func (a *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	if err := httputil.OK(w, map[string]string{"status": "alive"}); err != nil {
		a.Log.Errorf("Healthz handler error: %s", err.Error())
	}
}

// Readiness checks the entity store, dedupe, NATS and the history sink.
func (a *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := a.Checker.CheckDependency(ctx); err != nil {
		a.Log.Warnf("Readiness check failed: %v", err)
		err = httputil.Error(w, r, http.StatusServiceUnavailable, "dependencies_unhealthy", "dependencies check failed", map[string]any{
			"error": err.Error(),
		})
		if err != nil {
			a.Log.Errorf("Readiness handler error: %s", err.Error())
		}
		return
	}

	if err := httputil.OK(w, map[string]string{"dependencies": "healthy"}); err != nil {
		a.Log.Errorf("Readiness handler error: %s", err.Error())
	}
}
