package handlers

import (
	"net/http"
	"time"
)

// healthResponse reports process liveness plus per-collaborator
// reachability for GET /health.
type healthResponse struct {
	Status    string             `json:"status"`
	Timestamp time.Time          `json:"timestamp"`
	Checks    map[string]string  `json:"checks,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// ServiceHealth handles GET /health.
func (h *Handlers) ServiceHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]string, len(h.checks)),
	}

	for name, check := range h.checks {
		state := check(r.Context())
		resp.Checks[name] = state
		if state != "ok" {
			resp.Status = "degraded"
		}
	}
	if h.metrics != nil {
		resp.Metrics = h.metrics.Snapshot()
	}

	h.writeJSON(w, http.StatusOK, resp)
}
