package handler

import (
	"net/http"

	"github.com/askql/askql/internal/executor"
	"github.com/askql/askql/internal/intent"
)

// TablesHandler lists the tables visible to the query service.
type TablesHandler struct {
	exec *executor.Executor
}

// NewTablesHandler creates a TablesHandler.
func NewTablesHandler(exec *executor.Executor) *TablesHandler {
	return &TablesHandler{exec: exec}
}

// List returns the names of all base tables in the configured schema.
// GET /api/v1/tables
func (h *TablesHandler) List(w http.ResponseWriter, r *http.Request) {
	res := h.exec.Execute(r.Context(), intent.TablesRequest{})
	if res.Err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tables: "+res.Err.Error())
		return
	}

	names := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		if name, ok := row["table_name"].(string); ok {
			names = append(names, name)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tables": names,
	})
}
