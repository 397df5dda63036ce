package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chatcore-ai/chatcore/pkg/types"
)

// listSessions handles GET /session
func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.store.ListActive()

	// Ensure we return an empty array [] instead of null
	if sessions == nil {
		sessions = []types.SessionInfo{}
	}

	writeJSON(w, http.StatusOK, sessions)
}

// getSession handles GET /session/{sessionID}
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	info, ok := s.store.Get(sessionID)
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Session not found")
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// deleteSession handles DELETE /session/{sessionID}
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if !s.store.Close(sessionID) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Session not found")
		return
	}

	writeSuccess(w)
}

// health handles GET /health
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"activeSessions": len(s.store.ListActive()),
	})
}
