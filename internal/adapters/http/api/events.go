package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/redzone/internal/adapters/repository"
)

const defaultEventLimit = 20

// EventsHandler serves recently attributed scoring events.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandleRecentEvents handles GET /events/recent requests. The league_id
// query parameter is required; limit defaults to 20.
func (h *EventsHandler) HandleRecentEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	leagueID := r.URL.Query().Get("league_id")
	if leagueID == "" {
		writeError(w, http.StatusBadRequest, "missing_league_id", ErrMissingLeagueID)
		return
	}

	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit", ErrInvalidLimit)
			return
		}
		limit = parsed
	}

	events, err := h.deps.RecentEvents(r.Context(), leagueID, limit)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidLimit) {
			writeError(w, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "events_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
