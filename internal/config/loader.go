package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if REDZONE_CONFIG is set
//  3. env (prefix REDZONE_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("REDZONE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: REDZONE_ADDR, REDZONE_QUEUE_SIZE, ...
	// Double underscores nest: REDZONE_TANK01__API_KEY -> tank01.api_key.
	envProvider := env.Provider("REDZONE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "redzone_")
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.LiveInterval <= 0 || c.OffHoursInterval <= 0 {
		return fmt.Errorf("%w: polling intervals must be positive", ErrInvalidConfig)
	}
	if c.LeagueCacheCapacity <= 0 {
		return fmt.Errorf("%w: league cache capacity must be positive", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(c.Leagues))
	for _, league := range c.Leagues {
		if league.LeagueID == "" {
			return fmt.Errorf("%w: league without league_id", ErrInvalidConfig)
		}
		if _, dup := seen[league.LeagueID]; dup {
			return fmt.Errorf("%w: duplicate league %s", ErrInvalidConfig, league.LeagueID)
		}
		seen[league.LeagueID] = struct{}{}
	}
	return nil
}
