// Package api is the plain-HTTP surface next to the websocket endpoint: the
// liveness probe and a read-only lecture history endpoint.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Firefly-HackGT/firefly-backend/internal/history"
	"github.com/Firefly-HackGT/firefly-backend/internal/lecture"
)

// Server handles everything that is not a websocket. It holds no session
// state of its own, so the health probe answers regardless of lecture
// traffic.
type Server struct {
	recorder history.Recorder
	registry *lecture.Registry
	router   *http.ServeMux
}

func NewServer(recorder history.Recorder, registry *lecture.Registry) *Server {
	s := &Server{
		recorder: recorder,
		registry: registry,
		router:   http.NewServeMux(),
	}
	s.router.HandleFunc("/healthz", s.healthz)
	s.router.HandleFunc("/api/lectures", s.lectures)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"active_lectures": s.registry.Len(),
	})
}

// lectures serves GET /api/lectures?kind=student|professor&name=<person>.
func (s *Server) lectures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	kind := history.PersonKind(r.URL.Query().Get("kind"))
	name := r.URL.Query().Get("name")
	if !kind.Valid() || name == "" {
		s.writeError(w, http.StatusBadRequest, "kind must be student or professor and name is required")
		return
	}

	records, err := s.recorder.FetchLectures(r.Context(), kind, name)
	if err != nil {
		slog.Error("history fetch failed", "kind", kind, "name", name, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to fetch lectures")
		return
	}
	if records == nil {
		records = []history.LectureRecord{}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"lectures": records})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
