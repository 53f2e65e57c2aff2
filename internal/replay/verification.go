package replay

import (
	"context"
	"fmt"

	service "github.com/okian/redzone/internal/app"
	"github.com/okian/redzone/internal/config"
	"github.com/okian/redzone/pkg/logger"
)

// verifyResults checks the event cache against the scripted scenario:
// every league saw every scoring play exactly once, with positive points
// and no duplicate event ids.
func verifyResults(ctx context.Context, cfg *Config, svc *service.Service, svcCfg *config.Config, stats *Stats) error {
	logger.Get().Info(ctx, "verifying cached events")

	for _, league := range svcCfg.Leagues {
		events, err := svc.RecentEvents(ctx, league.LeagueID, svcCfg.LeagueCacheCapacity)
		if err != nil {
			return fmt.Errorf("failed to read cache for %s: %w", league.LeagueID, err)
		}

		if len(events) != stats.ScoringPlays {
			return fmt.Errorf("league %s cached %d events, want %d", league.LeagueID, len(events), stats.ScoringPlays)
		}

		seen := make(map[string]struct{}, len(events))
		var total float64
		for _, evt := range events {
			if _, dup := seen[evt.ID]; dup {
				return fmt.Errorf("league %s cached duplicate event %s", league.LeagueID, evt.ID)
			}
			seen[evt.ID] = struct{}{}

			if evt.Points <= 0 {
				return fmt.Errorf("event %s (%s) scored %.2f points", evt.ID, evt.Description, evt.Points)
			}
			if evt.PlayerName == "" || evt.TeamID == "" {
				return fmt.Errorf("event %s missing attribution: player %q team %q", evt.ID, evt.PlayerName, evt.TeamID)
			}
			total += evt.Points
		}

		if cfg.Verbose {
			logger.Get().Info(ctx, "league verified",
				logger.String("league", league.LeagueID),
				logger.Int("events", len(events)),
				logger.Float64("totalPoints", total))
		}
	}

	logger.Get().Info(ctx, "verification passed",
		logger.Int("leagues", len(svcCfg.Leagues)),
		logger.Int("eventsPerLeague", stats.ScoringPlays))
	return nil
}
