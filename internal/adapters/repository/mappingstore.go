package repository

import (
	"context"
	"sync"

	"github.com/okian/redzone/internal/domain/mapping"
	"github.com/okian/redzone/internal/domain/model"
)

// memoryMappingStore keeps canonical player mappings in process memory
// with a reverse index per platform id. Suitable for single-instance
// deployments and tests; the Redis store backs multi-instance setups.
type memoryMappingStore struct {
	mu      sync.RWMutex
	players map[string]model.CanonicalPlayer
	// index maps platform -> platform id -> canonical id.
	index map[model.Platform]map[string]string
}

// NewMappingStore creates an empty in-memory mapping store.
func NewMappingStore() mapping.Store {
	return &memoryMappingStore{
		players: make(map[string]model.CanonicalPlayer),
		index:   make(map[model.Platform]map[string]string),
	}
}

func (s *memoryMappingStore) GetByPlatformID(ctx context.Context, platform model.Platform, id string) (model.CanonicalPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := s.index[platform]
	if byID == nil {
		return model.CanonicalPlayer{}, mapping.ErrNotFound
	}
	canonical, ok := byID[id]
	if !ok {
		return model.CanonicalPlayer{}, mapping.ErrNotFound
	}
	return s.players[canonical], nil
}

func (s *memoryMappingStore) Upsert(ctx context.Context, players []model.CanonicalPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, player := range players {
		if player.ID == "" {
			continue
		}
		if old, ok := s.players[player.ID]; ok {
			s.unindexLocked(old)
		}
		s.players[player.ID] = player
		s.indexLocked(player)
	}
	return nil
}

func (s *memoryMappingStore) Remove(ctx context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	for _, id := range ids {
		player, ok := s.players[id]
		if !ok {
			continue
		}
		s.unindexLocked(player)
		delete(s.players, id)
		removed++
	}
	return removed, nil
}

func (s *memoryMappingStore) All(ctx context.Context) ([]model.CanonicalPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.CanonicalPlayer, 0, len(s.players))
	for _, player := range s.players {
		out = append(out, player)
	}
	return out, nil
}

func (s *memoryMappingStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players), nil
}

// indexLocked registers the player's platform ids. Must hold s.mu.
func (s *memoryMappingStore) indexLocked(player model.CanonicalPlayer) {
	for platform, id := range player.PlatformIDs {
		if id == "" {
			continue
		}
		byID := s.index[platform]
		if byID == nil {
			byID = make(map[string]string)
			s.index[platform] = byID
		}
		byID[id] = player.ID
	}
}

// unindexLocked drops the player's platform ids. Must hold s.mu.
func (s *memoryMappingStore) unindexLocked(player model.CanonicalPlayer) {
	for platform, id := range player.PlatformIDs {
		if byID := s.index[platform]; byID != nil && byID[id] == player.ID {
			delete(byID, id)
		}
	}
}
