package api

import (
	"net/http"
)

// ControlsHandler exposes operational controls for the polling pipeline.
type ControlsHandler struct {
	deps Dependencies
}

// NewControlsHandler creates a new controls handler.
func NewControlsHandler(deps Dependencies) *ControlsHandler {
	return &ControlsHandler{deps: deps}
}

type ackResponse struct {
	Status string `json:"status"`
}

// HandleManualPoll handles POST /controls/poll requests by forcing an
// immediate poll of every provider.
func (h *ControlsHandler) HandleManualPoll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if err := h.deps.ManualPoll(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "poll_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "polled"})
}

// HandlePrimaryToggle handles POST /controls/primary requests. The enabled
// query parameter selects whether the primary provider forwards live events.
func (h *ControlsHandler) HandlePrimaryToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	var err error
	switch r.URL.Query().Get("enabled") {
	case "true":
		err = h.deps.EnablePrimaryLiveEvents(r.Context())
	case "false":
		err = h.deps.DisablePrimaryLiveEvents(r.Context())
	default:
		writeError(w, http.StatusBadRequest, "invalid_enabled", ErrInvalidToggle)
		return
	}
	if err != nil {
		writeError(w, http.StatusConflict, "primary_toggle_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "ok"})
}

// HandleEmergencyStop handles POST /controls/emergency-stop requests.
func (h *ControlsHandler) HandleEmergencyStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	h.deps.EmergencyStopAll()
	writeJSON(w, http.StatusOK, ackResponse{Status: "stopped"})
}

// HandleReset handles POST /controls/reset requests. The target query
// parameter chooses which guard to reset: emergency-stop, circuits or
// quotas.
func (h *ControlsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	switch r.URL.Query().Get("target") {
	case "emergency-stop":
		if err := h.deps.ResetEmergencyStop(r.Context()); err != nil {
			writeError(w, http.StatusConflict, "reset_failed", err)
			return
		}
	case "circuits":
		h.deps.ResetCircuits()
	case "quotas":
		h.deps.ResetQuotas()
	default:
		writeError(w, http.StatusBadRequest, "invalid_target", ErrInvalidResetTarget)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "reset"})
}
