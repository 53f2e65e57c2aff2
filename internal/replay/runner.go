package replay

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	service "github.com/okian/redzone/internal/app"
	"github.com/okian/redzone/internal/config"
	"github.com/okian/redzone/internal/domain/model"
	"github.com/okian/redzone/pkg/logger"
)

const (
	drainPollInterval = 20 * time.Millisecond
	drainTimeout      = 10 * time.Second
	replayWorkers     = 4
)

// Run executes a full replay: script games, start the pipeline, reveal
// plays round by round, then verify the cache.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting pipeline replay",
		logger.Int("leagues", cfg.Leagues),
		logger.Int("players", cfg.Players),
		logger.Int("games", cfg.Games),
		logger.Int("playsPerGame", cfg.PlaysPerGame),
		logger.Int("rounds", cfg.Rounds),
		logger.Any("seed", cfg.Seed))

	players := generatePlayers(cfg)
	script := generateScript(cfg, players, stats)
	source := newScriptedSource("replay-feed", script)

	// Every league rosters every player, so each scoring play must
	// surface once per league.
	stats.EventsExpected = stats.ScoringPlays * cfg.Leagues

	svcCfg := serviceConfig(cfg)
	svc := service.New(
		service.WithConfig(svcCfg),
		service.WithDirectory(&scriptedDirectory{players: players}),
		service.WithPrimarySource(idleSource{}),
		service.WithBackupSource(source),
	)

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start pipeline: %w", err)
	}
	defer svc.Stop()

	var attributed atomic.Int64
	svc.OnAttributed(func(model.AttributedEvent) { attributed.Add(1) })

	if _, err := svc.TriggerMappingSync(ctx, true); err != nil {
		return fmt.Errorf("player mapping sync failed: %w", err)
	}

	for _, league := range svcCfg.Leagues {
		svc.SetRosters(league.LeagueID, generateRosters(cfg, league.LeagueID, players))
	}

	playsPerRound := cfg.PlaysPerGame / cfg.Rounds
	if playsPerRound < 1 {
		playsPerRound = 1
	}

	for round := 0; round < cfg.Rounds; round++ {
		if round == cfg.Rounds-1 {
			source.RevealAll()
		} else {
			source.Reveal(playsPerRound)
		}

		if err := svc.ManualPoll(ctx); err != nil {
			return fmt.Errorf("poll round %d failed: %w", round+1, err)
		}
		stats.RoundsPolled++

		if cfg.Verbose {
			logger.Get().Info(ctx, "poll round complete",
				logger.Int("round", round+1),
				logger.Int("attributed", int(attributed.Load())))
		}
	}

	if err := waitForDrain(ctx, &attributed, stats.EventsExpected); err != nil {
		return fmt.Errorf("pipeline did not drain: %w", err)
	}
	stats.EventsAttributed = int(attributed.Load())

	if err := verifyResults(ctx, cfg, svc, svcCfg, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	logger.Get().Info(ctx, "replay completed successfully")
	return nil
}

// serviceConfig adapts the replay scenario into a pipeline config with
// scheduled polling disabled; manual polls drive every round.
func serviceConfig(cfg *Config) *config.Config {
	svcCfg := config.New()
	svcCfg.WorkerCount = replayWorkers
	svcCfg.LiveHoursEnabled = false
	svcCfg.LiveInterval = time.Hour
	svcCfg.LeagueCacheCapacity = cfg.Games * cfg.PlaysPerGame
	for i := 0; i < cfg.Leagues; i++ {
		svcCfg.Leagues = append(svcCfg.Leagues, config.League{
			LeagueID: fmt.Sprintf("replay-league-%d", i+1),
			Platform: "sleeper",
			Enabled:  true,
			TeamName: fmt.Sprintf("Replay Team %d", i+1),
		})
	}
	return svcCfg
}

// waitForDrain blocks until every expected event cleared the queue and
// workers, or the drain timeout passes.
func waitForDrain(ctx context.Context, attributed *atomic.Int64, expected int) error {
	deadline := time.Now().Add(drainTimeout)
	for time.Now().Before(deadline) {
		if int(attributed.Load()) >= expected {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(drainPollInterval):
		}
	}
	return fmt.Errorf("timed out with %d of %d events attributed", attributed.Load(), expected)
}

// displayFinalStats prints the final replay statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var eventsPerSecond float64
	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.EventsAttributed) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("playsScripted", stats.PlaysScripted),
		logger.Int("scoringPlays", stats.ScoringPlays),
		logger.Int("roundsPolled", stats.RoundsPolled),
		logger.Int("eventsExpected", stats.EventsExpected),
		logger.Int("eventsAttributed", stats.EventsAttributed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("eventsPerSecond", eventsPerSecond))
}
