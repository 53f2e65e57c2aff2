package service

import (
	"context"
	"time"

	"github.com/okian/redzone/internal/adapters/provider"
	"github.com/okian/redzone/internal/adapters/repository"
	"github.com/okian/redzone/internal/domain/mapping"
	"github.com/okian/redzone/internal/domain/model"
	"github.com/okian/redzone/internal/domain/scoring"
)

// Status is the full diagnostic snapshot served by the HTTP API.
type Status struct {
	Started       bool                      `json:"started"`
	PrimaryLive   bool                      `json:"primary_live"`
	EmergencyStop bool                      `json:"emergency_stop"`
	LiveWindow    bool                      `json:"live_window"`
	PollInterval  string                    `json:"poll_interval"`
	QueueLength   int                       `json:"queue_length"`
	DedupeSize    int64                     `json:"dedupe_size"`
	Providers     map[string]provider.State `json:"providers"`
	Mapping       mapping.SyncRecord        `json:"mapping"`
	MappingCount  int                       `json:"mapping_count"`
	Cache         repository.CacheStats     `json:"cache"`
}

// GetServiceStatus assembles the pipeline-wide snapshot.
func (s *Service) GetServiceStatus(ctx context.Context) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := Status{Started: s.started}
	if !s.started {
		return status
	}

	now := time.Now()
	status.PrimaryLive = s.coordinator.PrimaryLive()
	status.EmergencyStop = s.coordinator.EmergencyStopped()
	status.LiveWindow = s.policy.InLiveWindow(now)
	status.PollInterval = s.policy.IntervalFor(now).String()
	status.QueueLength = s.eventQueue.Len(ctx)
	status.DedupeSize = s.deduper.Size()
	status.Providers = s.coordinator.Status()
	status.Mapping = s.mappingSvc.LastSync()
	if n, err := s.mappingSvc.Count(ctx); err == nil {
		status.MappingCount = n
	}
	status.Cache = s.cache.Stats(ctx)
	return status
}

// RecentEvents returns a league's attributed events, newest first.
func (s *Service) RecentEvents(ctx context.Context, leagueID string, limit int) ([]model.AttributedEvent, error) {
	return s.cache.RecentEvents(ctx, leagueID, limit)
}

// CacheStats returns event cache occupancy.
func (s *Service) CacheStats(ctx context.Context) repository.CacheStats {
	return s.cache.Stats(ctx)
}

// TriggerMappingSync runs a player mapping sync. With force, a fresh table
// is refreshed anyway.
func (s *Service) TriggerMappingSync(ctx context.Context, force bool) (mapping.SyncResult, error) {
	return s.mappingSvc.SyncAll(ctx, force)
}

// MappingLastSync returns metadata of the most recent sync run.
func (s *Service) MappingLastSync() mapping.SyncRecord {
	return s.mappingSvc.LastSync()
}

// ManualPoll polls both providers immediately.
func (s *Service) ManualPoll(ctx context.Context) error {
	return s.coordinator.ManualPollAll(ctx)
}

// EnablePrimaryLiveEvents switches event forwarding to the primary provider.
func (s *Service) EnablePrimaryLiveEvents(ctx context.Context) error {
	return s.coordinator.EnablePrimaryLiveEvents(ctx)
}

// DisablePrimaryLiveEvents switches event forwarding to the backup provider.
func (s *Service) DisablePrimaryLiveEvents(ctx context.Context) error {
	return s.coordinator.DisablePrimaryLiveEvents(ctx)
}

// EmergencyStopAll halts all provider polling until reset.
func (s *Service) EmergencyStopAll() {
	s.coordinator.EmergencyStopAll()
}

// ResetEmergencyStop clears the kill switch and resumes polling.
func (s *Service) ResetEmergencyStop(ctx context.Context) error {
	return s.coordinator.ResetEmergencyStop(ctx)
}

// ResetCircuits closes both providers' circuit breakers.
func (s *Service) ResetCircuits() {
	s.coordinator.ResetCircuits()
}

// ResetQuotas clears both providers' daily quota counters.
func (s *Service) ResetQuotas() {
	s.coordinator.ResetQuotas()
}

// SetRosters replaces one league's roster entries.
func (s *Service) SetRosters(leagueID string, entries []model.RosterEntry) {
	s.engine.SetRosters(leagueID, entries)
}

// SetLeagueRules installs custom scoring rules for a league.
func (s *Service) SetLeagueRules(leagueID string, rules scoring.Rules) {
	s.scorebook.SetLeagueRules(leagueID, rules)
}

// OnAttributed registers a subscriber for attributed events.
func (s *Service) OnAttributed(fn func(model.AttributedEvent)) {
	s.engine.OnAttributed(fn)
}
