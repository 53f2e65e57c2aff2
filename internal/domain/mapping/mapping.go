// Package mapping resolves provider-specific player identifiers to
// canonical player records carrying every platform's id, so an event from
// one provider can be matched against a roster fetched from another.
package mapping

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/redzone/internal/domain/model"
	"github.com/okian/redzone/pkg/logger"
	"github.com/okian/redzone/pkg/metrics"
)

// Store persists canonical player mappings. Upserts are keyed by canonical
// id; for any platform a given platform-specific id belongs to at most one
// mapping.
type Store interface {
	// GetByPlatformID resolves a platform-native id to a canonical player.
	// Returns ErrNotFound (wrapped or bare) when no mapping claims the id.
	GetByPlatformID(ctx context.Context, platform model.Platform, id string) (model.CanonicalPlayer, error)

	// Upsert inserts or replaces mappings by canonical id.
	Upsert(ctx context.Context, players []model.CanonicalPlayer) error

	// Remove deletes mappings by canonical id, returning how many existed.
	Remove(ctx context.Context, ids []string) (int, error)

	// All returns every stored mapping.
	All(ctx context.Context) ([]model.CanonicalPlayer, error)

	// Count returns the number of stored mappings.
	Count(ctx context.Context) (int, error)
}

// Directory is the upstream player directory a sync pulls from.
type Directory interface {
	// ListPlayers returns the full player directory with platform ids.
	ListPlayers(ctx context.Context) ([]model.CanonicalPlayer, error)

	// LookupPlayer resolves one platform id on demand. Implementations may
	// return ErrNotFound when the upstream has no record either.
	LookupPlayer(ctx context.Context, platform model.Platform, id string) (model.CanonicalPlayer, error)
}

// SyncStatus is the lifecycle state of a sync run.
type SyncStatus string

// Sync lifecycle states.
const (
	SyncInProgress SyncStatus = "in_progress"
	SyncCompleted  SyncStatus = "completed"
	SyncFailed     SyncStatus = "failed"
)

// SyncRecord is the metadata of the most recent sync run.
type SyncRecord struct {
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    time.Time  `json:"finished_at"`
	Status        SyncStatus `json:"status"`
	Total         int        `json:"total"`
	Active        int        `json:"active"`
	FailedBatches int        `json:"failed_batches"`
	Error         string     `json:"error,omitempty"`
}

// SyncResult summarizes a completed sync for callers.
type SyncResult struct {
	Total  int
	Active int
}

// Service owns the canonical player mapping table: bulk sync, incremental
// on-demand lookup, and retention cleanup. All other components read the
// table through FindByPlatformID only.
type Service struct {
	store     Store
	directory Directory

	batchSize     int
	staleAfter    time.Duration
	retention     time.Duration
	now           func() time.Time

	mu       sync.Mutex // serializes sync/cleanup
	syncing  bool
	lastSync SyncRecord

	log logger.Logger
}

// NewService creates a mapping service with configuration options.
func NewService(store Store, directory Directory, opts ...Option) *Service {
	s := &Service{
		store:      store,
		directory:  directory,
		batchSize:  defaultBatchSize,
		staleAfter: defaultStaleAfter,
		retention:  defaultRetention,
		now:        time.Now,
		log:        logger.Get().Named("mapping"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// FindByPlatformID resolves a platform-native id to its canonical player.
// On a cache miss it falls back to an on-demand directory lookup and stores
// the result, so a single unmapped player does not force a full resync.
func (s *Service) FindByPlatformID(ctx context.Context, platform model.Platform, id string) (model.CanonicalPlayer, error) {
	player, err := s.store.GetByPlatformID(ctx, platform, id)
	if err == nil {
		return player, nil
	}

	metrics.RecordMappingLookupMiss()
	if s.directory == nil {
		return model.CanonicalPlayer{}, fmt.Errorf("lookup %s/%s: %w", platform, id, ErrNotFound)
	}

	player, err = s.directory.LookupPlayer(ctx, platform, id)
	if err != nil {
		return model.CanonicalPlayer{}, fmt.Errorf("lookup %s/%s: %w", platform, id, err)
	}
	player.UpdatedAt = s.now()
	if err := s.store.Upsert(ctx, []model.CanonicalPlayer{player}); err != nil {
		// The caller still gets the resolved player; only the cache write failed.
		s.log.Warn(ctx, "caching on-demand mapping failed",
			logger.String("platform", string(platform)),
			logger.String("id", id),
			logger.Error(err),
		)
	}
	return player, nil
}

// Count returns the number of stored mappings.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// SyncAll performs a full resync from the player directory. Re-running with
// identical upstream data is a no-op for table content: batches upsert by
// canonical id. A failed batch is logged and skipped so a partial upstream
// outage cannot wipe mappings for untouched players; the sync record is then
// marked failed. When force is false and the last completed sync is still
// fresh, the sync is skipped.
func (s *Service) SyncAll(ctx context.Context, force bool) (SyncResult, error) {
	if s.directory == nil {
		return SyncResult{}, ErrNoDirectory
	}

	s.mu.Lock()
	if s.syncing {
		s.mu.Unlock()
		return SyncResult{}, ErrSyncInProgress
	}
	if !force && !s.needsSyncLocked() {
		res := SyncResult{Total: s.lastSync.Total, Active: s.lastSync.Active}
		s.mu.Unlock()
		return res, nil
	}
	s.syncing = true
	record := SyncRecord{StartedAt: s.now(), Status: SyncInProgress}
	s.lastSync = record
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.syncing = false
		s.mu.Unlock()
	}()

	players, err := s.directory.ListPlayers(ctx)
	if err != nil {
		s.finishSync(record, 0, 0, 0, err)
		metrics.RecordMappingSync(string(SyncFailed))
		return SyncResult{}, fmt.Errorf("list players: %w", err)
	}

	var total, active, failedBatches int
	for start := 0; start < len(players); start += s.batchSize {
		end := start + s.batchSize
		if end > len(players) {
			end = len(players)
		}
		batch := make([]model.CanonicalPlayer, end-start)
		copy(batch, players[start:end])
		for i := range batch {
			batch[i].UpdatedAt = s.now()
		}

		if err := s.store.Upsert(ctx, batch); err != nil {
			failedBatches++
			s.log.Error(ctx, "sync batch failed",
				logger.Int("offset", start),
				logger.Int("size", len(batch)),
				logger.Error(err),
			)
			continue
		}
		total += len(batch)
		for _, p := range batch {
			if p.Active {
				active++
			}
		}
	}

	var syncErr error
	if failedBatches > 0 {
		syncErr = fmt.Errorf("%d sync batches failed", failedBatches)
	}
	s.finishSync(record, total, active, failedBatches, syncErr)

	if count, err := s.store.Count(ctx); err == nil {
		metrics.UpdateMappingCount(count)
	}
	if syncErr != nil {
		metrics.RecordMappingSync(string(SyncFailed))
		return SyncResult{Total: total, Active: active}, syncErr
	}
	metrics.RecordMappingSync(string(SyncCompleted))
	s.log.Info(ctx, "player sync completed",
		logger.Int("total", total),
		logger.Int("active", active),
	)
	return SyncResult{Total: total, Active: active}, nil
}

// CleanupInactive removes mappings for players inactive beyond the
// retention window, returning the number removed.
func (s *Service) CleanupInactive(ctx context.Context) (int, error) {
	players, err := s.store.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("list mappings: %w", err)
	}

	cutoff := s.now().Add(-s.retention)
	var stale []string
	for _, p := range players {
		if !p.Active && p.LastPlayed.Before(cutoff) {
			stale = append(stale, p.ID)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	removed, err := s.store.Remove(ctx, stale)
	if err != nil {
		return 0, fmt.Errorf("remove stale mappings: %w", err)
	}
	if count, err := s.store.Count(ctx); err == nil {
		metrics.UpdateMappingCount(count)
	}
	s.log.Info(ctx, "cleaned up inactive mappings", logger.Int("removed", removed))
	return removed, nil
}

// NeedsSync reports whether the last completed sync is stale.
func (s *Service) NeedsSync() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.needsSyncLocked()
}

// LastSync returns the metadata of the most recent sync run.
func (s *Service) LastSync() SyncRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

func (s *Service) needsSyncLocked() bool {
	if s.lastSync.Status != SyncCompleted {
		return true
	}
	return s.now().Sub(s.lastSync.FinishedAt) > s.staleAfter
}

func (s *Service) finishSync(record SyncRecord, total, active, failedBatches int, err error) {
	record.FinishedAt = s.now()
	record.Total = total
	record.Active = active
	record.FailedBatches = failedBatches
	if err != nil {
		record.Status = SyncFailed
		record.Error = err.Error()
	} else {
		record.Status = SyncCompleted
	}

	s.mu.Lock()
	s.lastSync = record
	s.mu.Unlock()
}
