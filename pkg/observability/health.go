package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// BackendChecker verifies connectivity to the storage backend.
type BackendChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	backend BackendChecker
}

// NewHealthHandler creates a handler probing the given backend. A nil
// backend makes readiness equivalent to liveness.
func NewHealthHandler(backend BackendChecker) *HealthHandler {
	return &HealthHandler{backend: backend}
}

// Liveness always reports healthy while the process is serving.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, StatusHealthy, "")
}

// Readiness checks the storage backend with a bounded probe.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.backend == nil {
		writeStatus(w, http.StatusOK, StatusHealthy, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := h.backend.HealthCheck(ctx); err != nil {
		writeStatus(w, http.StatusServiceUnavailable, StatusUnhealthy, err.Error())
		return
	}
	writeStatus(w, http.StatusOK, StatusHealthy, "")
}

func writeStatus(w http.ResponseWriter, code int, status, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"message":   message,
		"timestamp": time.Now(),
	})
}
