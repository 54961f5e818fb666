package runtime

import (
	"net/http"

	"github.com/drblury/mqflow/internal/runtime/jsoncodec"
)

// registerStatusHandlers exposes the pollers and the per-target counts as
// JSON next to the metrics endpoint.
func (s *Service) registerStatusHandlers(port int) {
	s.RegisterHTTPHandler(port, "/api/pollers", http.HandlerFunc(s.handleGetPollers))
	s.RegisterHTTPHandler(port, "/api/targets", http.HandlerFunc(s.handleGetTargets))
}

func (s *Service) handleGetPollers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, s.Pollers())
}

func (s *Service) handleGetTargets(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		http.Error(w, "metrics disabled", http.StatusNotFound)
		return
	}
	s.writeJSON(w, r, s.metrics.GetSnapshot())
}

func (s *Service) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := jsoncodec.Encode(w, v); err != nil {
		s.Logger.Error("Failed to encode response", err, nil)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
