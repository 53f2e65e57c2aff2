// Package api declares HTTP contracts and route registration helpers for
// the diagnostics and control surface.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/redzone/internal/app"
	"github.com/okian/redzone/internal/domain/mapping"
	"github.com/okian/redzone/internal/domain/model"
)

// Dependencies required by HTTP handlers. An interface bundle keeps the
// handler layer loosely coupled to the service implementation.
type Dependencies interface {
	GetServiceStatus(ctx context.Context) service.Status
	RecentEvents(ctx context.Context, leagueID string, limit int) ([]model.AttributedEvent, error)
	TriggerMappingSync(ctx context.Context, force bool) (mapping.SyncResult, error)
	MappingLastSync() mapping.SyncRecord
	ManualPoll(ctx context.Context) error
	EnablePrimaryLiveEvents(ctx context.Context) error
	DisablePrimaryLiveEvents(ctx context.Context) error
	EmergencyStopAll()
	ResetEmergencyStop(ctx context.Context) error
	ResetCircuits()
	ResetQuotas()
}

// Server wires HTTP routes for the control API.
type Server struct {
	healthHandler   *HealthHandler
	statusHandler   *StatusHandler
	eventsHandler   *EventsHandler
	mappingHandler  *MappingHandler
	controlsHandler *ControlsHandler
}

// NewServer creates an API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statusHandler:   NewStatusHandler(deps),
		eventsHandler:   NewEventsHandler(deps),
		mappingHandler:  NewMappingHandler(deps),
		controlsHandler: NewControlsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/status", MetricsMiddleware(s.statusHandler.HandleStatus, "status"))
	mux.HandleFunc("/events/recent", MetricsMiddleware(s.eventsHandler.HandleRecentEvents, "events_recent"))
	mux.HandleFunc("/cache/stats", MetricsMiddleware(s.statusHandler.HandleCacheStats, "cache_stats"))
	mux.HandleFunc("/mapping/sync", MetricsMiddleware(s.mappingHandler.HandleSync, "mapping_sync"))
	mux.HandleFunc("/controls/poll", MetricsMiddleware(s.controlsHandler.HandleManualPoll, "controls_poll"))
	mux.HandleFunc("/controls/primary", MetricsMiddleware(s.controlsHandler.HandlePrimaryToggle, "controls_primary"))
	mux.HandleFunc("/controls/emergency-stop", MetricsMiddleware(s.controlsHandler.HandleEmergencyStop, "controls_emergency_stop"))
	mux.HandleFunc("/controls/reset", MetricsMiddleware(s.controlsHandler.HandleReset, "controls_reset"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
