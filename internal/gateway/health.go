package gateway

import (
	"encoding/json"
	"net/http"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status    string `json:"status"` // "ok" or "degraded"
	Scheduler string `json:"scheduler"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
// Returns 200 while the check-in loop runs, 503 otherwise.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: "ok", Scheduler: "running"}

		switch {
		case g.source == nil:
			resp.Status, resp.Scheduler = "degraded", "absent"
		case !g.source.Started():
			resp.Status, resp.Scheduler = "degraded", "stopped"
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == "degraded" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
