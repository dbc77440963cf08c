package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jeeprep/jee-prep-api/internal/websocket"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// HealthHandler serves GET /api/health.
type HealthHandler struct {
	checks   map[string]HealthCheck
	metrics  websocket.MetricsProvider
	sessions SessionService
	timeout  time.Duration
}

// NewHealthHandler creates the handler. metrics and sessions may be nil.
func NewHealthHandler(checks map[string]HealthCheck, metrics websocket.MetricsProvider, sessions SessionService) *HealthHandler {
	return &HealthHandler{
		checks:   checks,
		metrics:  metrics,
		sessions: sessions,
		timeout:  2 * time.Second,
	}
}

// Health answers 503 when any dependency check fails.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = "down: " + err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "up"
	}

	resp := gin.H{"status": "ok", "dependencies": deps, "time": time.Now().UTC()}
	if status != http.StatusOK {
		resp["status"] = "degraded"
	}
	if h.metrics != nil {
		resp["websocket"] = h.metrics.GetMetrics()
	}
	if h.sessions != nil {
		resp["active_sessions"] = h.sessions.ActiveCount()
	}
	c.JSON(status, resp)
}
