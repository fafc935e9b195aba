package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is anything the readiness check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles health check endpoints
type HealthHandlers struct {
	checks    map[string]Pinger
	version   string
	startedAt time.Time
}

// NewHealthHandlers takes the named dependencies probed by Ready. Nil
// entries are reported as disabled.
func NewHealthHandlers(version string, checks map[string]Pinger) *HealthHandlers {
	return &HealthHandlers{
		checks:    checks,
		version:   version,
		startedAt: time.Now(),
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
}

// Health is the liveness probe.
func (h *HealthHandlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, h.status("healthy"))
}

// Ready probes every dependency and answers 503 when any is down.
func (h *HealthHandlers) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	health := h.status("healthy")
	health.Services = make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if check == nil {
			health.Services[name] = "disabled"
			continue
		}
		if err := check.Ping(ctx); err != nil {
			health.Services[name] = "unhealthy"
			health.Status = "unhealthy"
			continue
		}
		health.Services[name] = "healthy"
	}

	if health.Status != "healthy" {
		return c.JSON(http.StatusServiceUnavailable, health)
	}
	return c.JSON(http.StatusOK, health)
}

func (h *HealthHandlers) status(s string) *HealthStatus {
	return &HealthStatus{
		Status:    s,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		Version:   h.version,
	}
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }
