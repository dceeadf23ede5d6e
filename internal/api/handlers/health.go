package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthCheck is the body of GET /health.
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

type CheckResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Pinger is the storage view health needs.
type Pinger interface {
	Ping(ctx context.Context) error
	Kind() string
}

// migrationReporter is implemented by stores that track schema versions.
type migrationReporter interface {
	MigrationStatus(ctx context.Context) (version int64, dirty bool, err error)
}

type HealthChecker struct {
	store     Pinger
	version   string
	gitCommit string
}

func NewHealthChecker(store Pinger, version, gitCommit string) *HealthChecker {
	return &HealthChecker{store: store, version: version, gitCommit: gitCommit}
}

// Health reports "healthy" (200), "degraded" (200) or "unhealthy" (503).
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
			return
		default:
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]CheckResult{"storage": h.checkStorage(ctx)}
		if mr, ok := h.store.(migrationReporter); ok {
			checks["migrations"] = checkMigrations(ctx, mr)
		}

		status, code := "healthy", http.StatusOK
		for _, check := range checks {
			if check.Status == "fail" {
				status, code = "unhealthy", http.StatusServiceUnavailable
				break
			}
			if check.Status == "warn" {
				status = "degraded"
			}
		}

		writeJSON(w, code, HealthCheck{
			Status:    status,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    checks,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func (h *HealthChecker) checkStorage(ctx context.Context) CheckResult {
	if h.store == nil {
		return CheckResult{Status: "fail", Message: "Storage not initialized"}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.store.Ping(pingCtx)
	latency := time.Since(start).Milliseconds()
	details := map[string]any{"backend": h.store.Kind()}
	if err != nil {
		details["error"] = err.Error()
		return CheckResult{Status: "fail", Message: "Storage ping failed", LatencyMs: latency, Details: details}
	}
	return CheckResult{Status: "pass", Message: "Storage reachable", LatencyMs: latency, Details: details}
}

func checkMigrations(ctx context.Context, mr migrationReporter) CheckResult {
	migCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	version, dirty, err := mr.MigrationStatus(migCtx)
	latency := time.Since(start).Milliseconds()
	switch {
	case err != nil:
		return CheckResult{Status: "fail", Message: "Failed to query migration version", LatencyMs: latency,
			Details: map[string]any{"error": err.Error()}}
	case dirty:
		return CheckResult{Status: "fail", Message: "Database in dirty migration state", LatencyMs: latency,
			Details: map[string]any{"version": version, "dirty": true}}
	}
	return CheckResult{Status: "pass", Message: "Migrations applied", LatencyMs: latency,
		Details: map[string]any{"version": version}}
}

// Healthz is a liveness probe that never touches storage.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
