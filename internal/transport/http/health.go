package http

import (
	"context"
	"net/http"
	"runtime"
	"time"
)

var startTime = time.Now()

// Health is a liveness probe; it answers as long as the process serves.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(startTime).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready is a readiness probe: database, template store, and queue backlog.
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if h.DB != nil {
		if err := h.DB.Pool().Ping(ctx); err != nil {
			checks["database"] = "unreachable: " + err.Error()
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}

	if pinger, ok := h.Sections.(interface{ Ping(context.Context) error }); ok {
		if err := pinger.Ping(ctx); err != nil {
			checks["template_store"] = "unreachable: " + err.Error()
			healthy = false
		} else {
			checks["template_store"] = "ok"
		}
	}

	status := http.StatusOK
	state := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	writeJSON(w, status, map[string]any{
		"status":        state,
		"checks":        checks,
		"queue_backlog": h.Q.Len(),
		"goroutines":    runtime.NumGoroutine(),
		"heap_mb":       mem.HeapAlloc / (1 << 20),
	})
}
