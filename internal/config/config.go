// Package config defines service configuration and loading.
//
// Conventions:
// - defaults come from New(); file and env layers override them.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
	"time"

	"github.com/okian/redzone/internal/domain/scoring"
)

// League configures one fantasy league the pipeline attributes events to.
type League struct {
	LeagueID string `koanf:"league_id"`
	Platform string `koanf:"platform"`
	Enabled  bool   `koanf:"enabled"`
	TeamName string `koanf:"team_name"`
	Username string `koanf:"username"`
}

// Provider holds one upstream source's credentials and limits.
type Provider struct {
	APIKey      string        `koanf:"api_key"`
	BaseURL     string        `koanf:"base_url"`
	QuotaLimit  int           `koanf:"quota_limit"`
	MinInterval time.Duration `koanf:"min_interval"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory event queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of attribution workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize and DedupeTTL bound the duplicate-suppression cache.
	DedupeSize int           `koanf:"dedupe_size"`
	DedupeTTL  time.Duration `koanf:"dedupe_ttl"`

	// LeagueCacheCapacity caps stored events per league.
	LeagueCacheCapacity int `koanf:"league_cache_capacity"`

	// LiveHoursEnabled turns the game-window schedule on; when false the
	// live interval applies around the clock.
	LiveHoursEnabled bool `koanf:"live_hours_enabled"`

	// LiveInterval and OffHoursInterval drive the adaptive schedule.
	LiveInterval     time.Duration `koanf:"live_interval"`
	OffHoursInterval time.Duration `koanf:"off_hours_interval"`

	// Timezone anchors the game-window schedule, e.g. "America/New_York".
	Timezone string `koanf:"timezone"`

	// BreakerThreshold and BreakerCooldown configure per-provider circuit
	// breaking.
	BreakerThreshold int           `koanf:"breaker_threshold"`
	BreakerCooldown  time.Duration `koanf:"breaker_cooldown"`

	// Tank01 is the primary play-by-play provider.
	Tank01 Provider `koanf:"tank01"`

	// ESPN is the backup scoreboard provider.
	ESPN Provider `koanf:"espn"`

	// MappingStaleAfter ages out the player mapping table; MappingBatchSize
	// bounds per-batch sync writes; MappingRetention drops players inactive
	// longer than this.
	MappingStaleAfter time.Duration `koanf:"mapping_stale_after"`
	MappingBatchSize  int           `koanf:"mapping_batch_size"`
	MappingRetention  time.Duration `koanf:"mapping_retention"`

	// RedisAddr points the mapping store at Redis; empty keeps mappings
	// in process memory.
	RedisAddr string `koanf:"redis_addr"`

	// Scoring holds the default per-stat weights; leagues without custom
	// rules use these.
	Scoring scoring.Rules `koanf:"scoring"`

	// Leagues lists the fantasy leagues to attribute events to.
	Leagues []League `koanf:"leagues"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		QueueSize:           10_000,
		WorkerCount:         runtime.NumCPU() * 2,
		DedupeSize:          50_000,
		DedupeTTL:           6 * time.Hour,
		LeagueCacheCapacity: 50,
		LiveHoursEnabled:    true,
		LiveInterval:        30 * time.Second,
		OffHoursInterval:    10 * time.Minute,
		Timezone:            "America/New_York",
		BreakerThreshold:    5,
		BreakerCooldown:     2 * time.Minute,
		Tank01: Provider{
			QuotaLimit:  1000,
			MinInterval: 1100 * time.Millisecond,
		},
		ESPN: Provider{
			MinInterval: 2 * time.Second,
		},
		MappingStaleAfter: 24 * time.Hour,
		MappingBatchSize:  200,
		MappingRetention:  8 * 7 * 24 * time.Hour,
		Scoring:           scoring.StandardRules(),
	}
}
