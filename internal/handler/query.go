// Package handler exposes the query service over HTTP.
package handler

import (
	"net/http"
	"strings"

	"github.com/askql/askql/internal/service"
)

// QueryHandler serves natural-language query requests.
type QueryHandler struct {
	svc *service.QueryService
}

// NewQueryHandler creates a QueryHandler.
func NewQueryHandler(svc *service.QueryService) *QueryHandler {
	return &QueryHandler{svc: svc}
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

// Execute runs one natural-language query.
// POST /api/v1/query
func (h *QueryHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "Field 'query' is required")
		return
	}

	result := h.svc.ExecuteQuery(r.Context(), req.Query, req.SessionID)
	writeJSON(w, http.StatusOK, result)
}
