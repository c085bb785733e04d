package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Checker is a function that checks the health of a dependency.
type Checker func(ctx context.Context) error

// Status represents the health status of a component.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Response is the JSON response returned by the health endpoint.
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the result of a single health check.
type CheckResult struct {
	Status   Status `json:"status"`
	Critical bool   `json:"critical"`
	Error    string `json:"error,omitempty"`
}

type check struct {
	checker  Checker
	critical bool
}

// Handler provides HTTP health check endpoints.
type Handler struct {
	mu     sync.RWMutex
	checks map[string]check
}

// NewHandler creates a new health check handler.
func NewHandler() *Handler {
	return &Handler{
		checks: make(map[string]check),
	}
}

// Register adds a named health checker. Registered checks are critical.
func (h *Handler) Register(name string, checker Checker) {
	h.RegisterCritical(name, checker)
}

// RegisterCritical adds a checker whose failure makes the service not ready.
func (h *Handler) RegisterCritical(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check{checker: checker, critical: true}
}

// RegisterNonCritical adds a checker whose failure only degrades the service.
// Readiness still reports 200 so the instance keeps receiving traffic.
func (h *Handler) RegisterNonCritical(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check{checker: checker, critical: false}
}

// LivenessHandler returns a simple liveness check (always 200 if the process is running).
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(Response{
			Status:    StatusUp,
			Timestamp: time.Now().UTC(),
		})
	}
}

// ReadinessHandler checks all registered dependencies. A failing critical
// check yields 503; failing non-critical checks yield 200 with a degraded
// overall status.
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		h.mu.RLock()
		checks := make(map[string]check, len(h.checks))
		for k, v := range h.checks {
			checks[k] = v
		}
		h.mu.RUnlock()

		results := make(map[string]CheckResult, len(checks))
		overallStatus := StatusUp
		criticalDown := false

		for name, c := range checks {
			if err := c.checker(ctx); err != nil {
				results[name] = CheckResult{Status: StatusDown, Critical: c.critical, Error: err.Error()}
				if c.critical {
					criticalDown = true
				} else if overallStatus == StatusUp {
					overallStatus = StatusDegraded
				}
			} else {
				results[name] = CheckResult{Status: StatusUp, Critical: c.critical}
			}
		}
		if criticalDown {
			overallStatus = StatusDown
		}

		resp := Response{
			Status:    overallStatus,
			Timestamp: time.Now().UTC(),
			Checks:    results,
		}

		w.Header().Set("Content-Type", "application/json")
		if overallStatus == StatusDown {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
