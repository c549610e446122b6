package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/alscos/clawdash/internal/sysinfo"
)

type healthResponse struct {
	System   sysinfo.Snapshot `json:"system"`
	Clawdbot json.RawMessage  `json:"clawdbot"`
	Errors   []string         `json:"errors"`
}

type statusResponse struct {
	Status   string          `json:"status"`
	Sessions json.RawMessage `json:"sessions,omitempty"`
}

// handleHealth always answers 200; whatever could not be collected is
// missing or marked inside the body.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := healthResponse{
		System:   s.sys.Snapshot(ctx),
		Clawdbot: s.app.Health(ctx),
		Errors:   s.app.RecentLogs(ctx),
	}
	writeJSON(w, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := statusResponse{
		Status:   s.app.Status(ctx),
		Sessions: s.app.Sessions(ctx),
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
