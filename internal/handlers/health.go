package handlers

import (
	"context"
	"net/http"
	"time"

	domain "github.com/veldpost/api/internal/domain"
	"github.com/veldpost/api/internal/platform/httpx"
)

// HealthReporter collects the readiness state of downstream dependencies.
type HealthReporter interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}

// HealthHandlers serves the /healthz and /readyz endpoints.
type HealthHandlers struct {
	reporter HealthReporter
	started  time.Time
	now      func() time.Time
}

// HealthOption customises the health handler set.
type HealthOption func(*HealthHandlers)

// WithHealthReporter wires the dependency probe used by /readyz.
func WithHealthReporter(reporter HealthReporter) HealthOption {
	return func(h *HealthHandlers) {
		h.reporter = reporter
	}
}

// WithHealthClock injects a custom clock primarily for tests.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.now = clock
		}
	}
}

// NewHealthHandlers constructs the health handler set.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		started: time.Now(),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Healthz reports process liveness without touching any dependency.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    domain.HealthStatusOK,
		"uptime":    now.Sub(h.started).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}

// Readyz evaluates downstream dependencies and reports 503 until all of them
// respond.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.reporter == nil {
		httpx.WriteError(ctx, w, httpx.NewError("not_ready", "health reporter not configured", http.StatusServiceUnavailable))
		return
	}

	report, err := h.reporter.Collect(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("health_check_failed", err.Error(), http.StatusServiceUnavailable))
		return
	}

	checks := make(map[string]map[string]any, len(report.Checks))
	var details []string
	for name, check := range report.Checks {
		entry := map[string]any{
			"status":    check.Status,
			"latencyMs": check.Latency.Milliseconds(),
		}
		if check.Error != "" {
			entry["error"] = check.Error
			details = append(details, name+": "+check.Error)
		}
		checks[name] = entry
	}

	status := http.StatusOK
	if report.Status != domain.HealthStatusOK {
		status = http.StatusServiceUnavailable
	}

	payload := map[string]any{
		"status": report.Status,
		"checks": checks,
	}
	if len(details) > 0 {
		payload["details"] = details
	}
	writeJSONResponse(w, status, payload)
}
