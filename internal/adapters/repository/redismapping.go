package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/okian/redzone/internal/domain/mapping"
	"github.com/okian/redzone/internal/domain/model"
)

// Redis key layout. Player records live in one hash keyed by canonical id;
// each platform gets its own reverse-index hash from platform id to
// canonical id.
const (
	playersKey         = "mapping:players"
	platformIndexKeyFn = "mapping:index:%s"
)

// redisMappingStore persists the canonical mapping table in Redis so
// multiple instances share one table and a restart skips the bulk sync.
type redisMappingStore struct {
	client *redis.Client
}

// NewRedisMappingStore creates a mapping store backed by the given client.
func NewRedisMappingStore(client *redis.Client) mapping.Store {
	return &redisMappingStore{client: client}
}

func platformIndexKey(platform model.Platform) string {
	return fmt.Sprintf(platformIndexKeyFn, string(platform))
}

func (s *redisMappingStore) GetByPlatformID(ctx context.Context, platform model.Platform, id string) (model.CanonicalPlayer, error) {
	canonical, err := s.client.HGet(ctx, platformIndexKey(platform), id).Result()
	if errors.Is(err, redis.Nil) {
		return model.CanonicalPlayer{}, mapping.ErrNotFound
	}
	if err != nil {
		return model.CanonicalPlayer{}, fmt.Errorf("index lookup: %w", err)
	}

	raw, err := s.client.HGet(ctx, playersKey, canonical).Result()
	if errors.Is(err, redis.Nil) {
		// Index entry outlived its record; treat as missing.
		return model.CanonicalPlayer{}, mapping.ErrNotFound
	}
	if err != nil {
		return model.CanonicalPlayer{}, fmt.Errorf("player fetch: %w", err)
	}

	var player model.CanonicalPlayer
	if err := json.Unmarshal([]byte(raw), &player); err != nil {
		return model.CanonicalPlayer{}, fmt.Errorf("player decode %s: %w", canonical, err)
	}
	return player, nil
}

func (s *redisMappingStore) Upsert(ctx context.Context, players []model.CanonicalPlayer) error {
	if len(players) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, player := range players {
		if player.ID == "" {
			continue
		}
		data, err := json.Marshal(player)
		if err != nil {
			return fmt.Errorf("player encode %s: %w", player.ID, err)
		}
		pipe.HSet(ctx, playersKey, player.ID, data)
		for platform, id := range player.PlatformIDs {
			if id != "" {
				pipe.HSet(ctx, platformIndexKey(platform), id, player.ID)
			}
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("upsert pipeline: %w", err)
	}
	return nil
}

func (s *redisMappingStore) Remove(ctx context.Context, ids []string) (int, error) {
	var removed int
	for _, id := range ids {
		raw, err := s.client.HGet(ctx, playersKey, id).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("player fetch %s: %w", id, err)
		}

		var player model.CanonicalPlayer
		if err := json.Unmarshal([]byte(raw), &player); err != nil {
			return removed, fmt.Errorf("player decode %s: %w", id, err)
		}

		pipe := s.client.Pipeline()
		pipe.HDel(ctx, playersKey, id)
		for platform, platformID := range player.PlatformIDs {
			if platformID != "" {
				pipe.HDel(ctx, platformIndexKey(platform), platformID)
			}
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return removed, fmt.Errorf("remove pipeline %s: %w", id, err)
		}
		removed++
	}
	return removed, nil
}

func (s *redisMappingStore) All(ctx context.Context) ([]model.CanonicalPlayer, error) {
	raw, err := s.client.HGetAll(ctx, playersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("players fetch: %w", err)
	}

	out := make([]model.CanonicalPlayer, 0, len(raw))
	for id, data := range raw {
		var player model.CanonicalPlayer
		if err := json.Unmarshal([]byte(data), &player); err != nil {
			return nil, fmt.Errorf("player decode %s: %w", id, err)
		}
		out = append(out, player)
	}
	return out, nil
}

func (s *redisMappingStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.HLen(ctx, playersKey).Result()
	if err != nil {
		return 0, fmt.Errorf("players count: %w", err)
	}
	return int(n), nil
}
