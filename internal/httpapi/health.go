package httpapi

import (
	"context"
	"net/http"
	"time"
)

// handleHealth and handlePing implement spec.md §4.6's liveness
// probes: always 200 while the process is up, no dependency checks.
func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

// handleHealthReady implements spec.md §4.6's readiness probe: 200
// only once every required store answers a ping, 503 otherwise so a
// load balancer can hold traffic back during startup.
func (a *App) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := a.dependencyChecks(ctx)

	for _, ok := range checks {
		if !ok {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "not_ready", "checks": checks})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ready", "checks": checks})
}

// handleHealthDetailed implements spec.md §4.6's operator-facing
// endpoint: per-dependency status plus process uptime. It answers 503
// when the shared cache or the document store fails its ping, 200
// otherwise; an analytics ping failure is reported but does not change
// the status.
func (a *App) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := a.dependencyChecks(ctx)
	code, status := http.StatusOK, "ok"
	if pg, ok := checks["postgres"]; !checks["redis"] || (ok && !pg) {
		code, status = http.StatusServiceUnavailable, "degraded"
	}
	writeJSON(w, code, map[string]interface{}{
		"status":  status,
		"uptime":  time.Since(a.StartedAt).String(),
		"checks":  checks,
		"missing": a.Config.Degraded(),
	})
}

func (a *App) dependencyChecks(ctx context.Context) map[string]bool {
	checks := map[string]bool{
		"redis": a.Shared.Ping(ctx) == nil,
	}
	if a.Analytics != nil {
		checks["clickhouse"] = a.Analytics.Ping(ctx) == nil
	}
	if a.Postgres != nil {
		checks["postgres"] = a.Postgres.Ping(ctx) == nil
	}
	return checks
}
