package handlers

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 3 * time.Second

// Pinger is anything the health check can probe: the pgx pool, the redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	checks   map[string]Pinger
	critical map[string]bool
	version  string
	started  time.Time
}

// NewHealthHandlers creates a new health handlers instance
func NewHealthHandlers(version string) *HealthHandlers {
	return &HealthHandlers{
		checks:   make(map[string]Pinger),
		critical: make(map[string]bool),
		version:  version,
		started:  time.Now(),
	}
}

// Register adds a dependency check. Critical dependencies gate readiness.
func (h *HealthHandlers) Register(name string, p Pinger, critical bool) {
	h.checks[name] = p
	h.critical[name] = critical
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Services   map[string]string `json:"services"`
	Uptime     string            `json:"uptime"`
	Version    string            `json:"version"`
	Goroutines int               `json:"goroutines"`
}

func (h *HealthHandlers) run(ctx context.Context) (map[string]error, []string) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]error, len(names))
	for _, name := range names {
		results[name] = h.checks[name].Ping(ctx)
	}
	return results, names
}

// HealthCheck handles GET /health. Any failing dependency reports "degraded".
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	results, names := h.run(c.Request().Context())

	health := &HealthStatus{
		Status:     "healthy",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Services:   make(map[string]string, len(names)),
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Version:    h.version,
		Goroutines: runtime.NumGoroutine(),
	}
	for _, name := range names {
		if results[name] != nil {
			health.Services[name] = "unhealthy"
			health.Status = "degraded"
			continue
		}
		health.Services[name] = "healthy"
	}
	return c.JSON(http.StatusOK, health)
}

// ReadinessCheck handles GET /health/ready
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	results, names := h.run(c.Request().Context())

	var failed []string
	for _, name := range names {
		if h.critical[name] && results[name] != nil {
			failed = append(failed, name)
		}
	}
	if len(failed) > 0 {
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "not_ready",
			"failures": failed,
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

// LivenessCheck handles GET /health/live
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
