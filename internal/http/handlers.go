package http

import (
	"context"
	"net/http"
	"time"

	"salarydash/internal/metrics"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().
		Field("status", "ok").
		Field("timestamp", s.now().UTC().Format(time.RFC3339)).
		Field("uptime", time.Since(s.started).Round(time.Second).String()).
		Write(w)
}

// handleReady checks that the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]any{
		"rate_limiter": map[string]any{"active_clients": s.limiter.ActiveClients()},
	}
	if c := s.deps.Categories; c != nil && c.Cache() != nil {
		checks["category_cache"] = map[string]any{"entries": c.Cache().Size()}
	}

	if s.deps.Store == nil {
		checks["store"] = "not_configured"
		ErrorResponse(http.StatusServiceUnavailable, "store not configured").Field("checks", checks).Write(w)
		return
	}
	if err := s.deps.Store.Ping(ctx); err != nil {
		checks["store"] = "failed: " + err.Error()
		ErrorResponse(http.StatusServiceUnavailable, "store unavailable").Field("checks", checks).Write(w)
		return
	}
	checks["store"] = "ok"

	NewJSONResponse().
		Field("status", "ready").
		Field("timestamp", s.now().UTC().Format(time.RFC3339)).
		Field("checks", checks).
		Write(w)
}

func (s *Server) metricsHandler() http.Handler {
	return metrics.Handler()
}
