package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chatcore-ai/chatcore/internal/logging"
	"github.com/chatcore-ai/chatcore/pkg/types"
)

// SendMessageRequest represents the request to send a message.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// sendMessage handles POST /session/{sessionID}/message. It streams
// the invocation as SSE; the session is created on first use.
func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "content is required")
		return
	}

	sse, err := prepareSSE(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	invocationID := generateID()
	log := logging.With().
		Str("sessionID", sessionID).
		Str("invocationID", invocationID).
		Logger()
	log.Debug().Msg("starting invocation stream")

	s.coordinator.StreamInvoke(r.Context(), sessionID, req.Content, func(ev types.StreamEvent) error {
		return sse.writeEvent("message", ev)
	})

	log.Debug().Msg("invocation stream finished")
}
