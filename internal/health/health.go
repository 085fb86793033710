package health

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vyrodovalexey/recommendations/internal/observability"
)

// Status represents the health status.
type Status string

const (
	// StatusHealthy indicates the service is healthy.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy indicates the service is unhealthy.
	StatusUnhealthy Status = "unhealthy"
	// StatusDegraded indicates the service is degraded but operational.
	StatusDegraded Status = "degraded"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadinessResponse represents the readiness check response.
type ReadinessResponse struct {
	Status    Status           `json:"status"`
	Checks    map[string]Check `json:"checks,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Check represents an individual health check result.
type Check struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// CheckFunc is a function that performs a health check.
type CheckFunc func() Check

// Checker provides health and readiness checking functionality.
type Checker struct {
	version   string
	startTime time.Time
	logger    observability.Logger
	metrics   *Metrics
	draining  atomic.Bool

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// Option configures a Checker.
type Option func(*Checker)

// WithMetrics records probe results on m.
func WithMetrics(m *Metrics) Option {
	return func(c *Checker) {
		c.metrics = m
	}
}

// NewChecker creates a new health checker.
func NewChecker(version string, logger observability.Logger, opts ...Option) *Checker {
	if logger == nil {
		logger = observability.NopLogger()
	}

	c := &Checker{
		version:   version,
		startTime: time.Now(),
		logger:    logger,
		checks:    make(map[string]CheckFunc),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// RegisterCheck registers a readiness check. A check registered under an
// existing name replaces it.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// UnregisterCheck removes a readiness check.
func (c *Checker) UnregisterCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// SetDraining marks the service as draining. Readiness reports unhealthy
// until the flag is cleared.
func (c *Checker) SetDraining(draining bool) {
	if c.draining.Swap(draining) != draining {
		c.logger.Info("health draining state changed", observability.Bool("draining", draining))
	}
}

// IsDraining reports whether the service is draining.
func (c *Checker) IsDraining() bool {
	return c.draining.Load()
}

// Health returns the health status.
func (c *Checker) Health() HealthResponse {
	c.metrics.recordProbe("health")

	return HealthResponse{
		Status:    StatusHealthy,
		Version:   c.version,
		Uptime:    time.Since(c.startTime).Round(time.Second).String(),
		Timestamp: time.Now(),
	}
}

// Readiness returns the readiness status.
func (c *Checker) Readiness() ReadinessResponse {
	c.metrics.recordProbe("readiness")

	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	funcs := make([]CheckFunc, len(names))
	for i, name := range names {
		funcs[i] = c.checks[name]
	}
	c.mu.RUnlock()

	response := ReadinessResponse{
		Status:    StatusHealthy,
		Checks:    make(map[string]Check, len(names)+1),
		Timestamp: time.Now(),
	}

	for i, name := range names {
		check := funcs[i]()
		response.Checks[name] = check
		c.metrics.recordCheck(name, check.Status)
		response.Status = worst(response.Status, check.Status)
	}

	if c.IsDraining() {
		response.Checks[drainingCheckName] = Check{Status: StatusUnhealthy, Message: "server is shutting down"}
		response.Status = StatusUnhealthy
	}

	c.metrics.recordCheck("overall", response.Status)

	return response
}

func worst(a, b Status) Status {
	switch {
	case a == StatusUnhealthy || b == StatusUnhealthy:
		return StatusUnhealthy
	case a == StatusDegraded || b == StatusDegraded:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}

// HealthHandler returns an HTTP handler for the health endpoint.
func (c *Checker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		c.writeJSON(w, http.StatusOK, c.Health())
	}
}

// ReadinessHandler returns an HTTP handler for the readiness endpoint.
// Unhealthy readiness responds 503.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response := c.Readiness()

		statusCode := http.StatusOK
		if response.Status == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.writeJSON(w, statusCode, response)
	}
}

// LivenessHandler returns an HTTP handler for the liveness endpoint (simple ping).
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		c.metrics.recordProbe("liveness")

		w.Header().Set(HeaderContentType, ContentTypeJSON)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

// Register mounts the probe handlers on mux.
func (c *Checker) Register(mux *http.ServeMux) {
	mux.Handle(PathHealth, c.HealthHandler())
	mux.Handle(PathReadiness, c.ReadinessHandler())
	mux.Handle(PathLiveness, c.LivenessHandler())
}

func (c *Checker) writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set(HeaderContentType, ContentTypeJSON)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		c.logger.Error("failed to encode health response", observability.Error(err))
	}
}
