package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/flemzord/dailyclaim/internal/checkin"
)

// StatusSource exposes the check-in scheduler's state.
type StatusSource interface {
	Started() bool
	Status() checkin.Status
	NextPrune() time.Time
}

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Uptime    int64           `json:"uptime_seconds"`
	Scheduler *checkin.Status `json:"scheduler,omitempty"`
	NextPrune time.Time       `json:"next_prune,omitzero"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := StatusResponse{
			Uptime: int64(time.Since(g.startedAt).Seconds()),
		}

		if g.source != nil {
			st := g.source.Status()
			resp.Scheduler = &st
			resp.NextPrune = g.source.NextPrune()
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
