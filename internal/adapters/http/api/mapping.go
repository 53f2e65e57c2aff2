package api

import (
	"errors"
	"net/http"

	"github.com/okian/redzone/internal/domain/mapping"
)

// MappingHandler exposes the player mapping refresh cycle.
type MappingHandler struct {
	deps Dependencies
}

// NewMappingHandler creates a new mapping handler.
func NewMappingHandler(deps Dependencies) *MappingHandler {
	return &MappingHandler{deps: deps}
}

// HandleSync handles GET and POST /mapping/sync requests. A GET reports
// the last sync record; a POST runs a refresh, forced when ?force=true.
func (h *MappingHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.deps.MappingLastSync())
	case http.MethodPost:
		force := r.URL.Query().Get("force") == "true"
		result, err := h.deps.TriggerMappingSync(r.Context(), force)
		if err != nil {
			if errors.Is(err, mapping.ErrSyncInProgress) {
				writeError(w, http.StatusConflict, "sync_in_progress", err)
				return
			}
			writeError(w, http.StatusInternalServerError, "sync_failed", err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}
