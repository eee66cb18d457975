package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/askql/askql/internal/service"
)

// SessionHandler exposes session memory over HTTP.
type SessionHandler struct {
	svc *service.QueryService
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(svc *service.QueryService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// History returns the queries recorded for a session, oldest first.
// GET /api/v1/session/{sessionID}/history
func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "Session ID is required")
		return
	}

	history, err := h.svc.History(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load history: "+err.Error())
		return
	}
	if history == nil {
		history = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"history":    history,
	})
}

// Clear drops all memory for a session.
// DELETE /api/v1/session/{sessionID}
func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "Session ID is required")
		return
	}

	if err := h.svc.ClearSession(r.Context(), sessionID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear session: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"cleared":    true,
	})
}
