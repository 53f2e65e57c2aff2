package service

import (
	"context"
	"runtime"
	"time"

	"github.com/okian/redzone/internal/domain/schedule"
	"github.com/okian/redzone/pkg/logger"
	"github.com/okian/redzone/pkg/metrics"
)

const (
	housekeepingInterval = 30 * time.Second
	eventRetention       = 24 * time.Hour
)

// orchestrator runs the background housekeeping loop: it logs schedule
// transitions, ages out cached events, and refreshes system metrics.
// The adaptive poll interval itself is pulled by each poller from the
// schedule policy at the top of every cycle.
type orchestrator struct {
	policy *schedule.Policy
	cache  eventEvicter
	log    logger.Logger
}

type eventEvicter interface {
	EvictOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

func newOrchestrator(policy *schedule.Policy, cache eventEvicter, log logger.Logger) *orchestrator {
	return &orchestrator{
		policy: policy,
		cache:  cache,
		log:    log,
	}
}

// run blocks until ctx is cancelled.
func (o *orchestrator) run(ctx context.Context) {
	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()

	wasLive := o.policy.InLiveWindow(time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()

			if live := o.policy.InLiveWindow(now); live != wasLive {
				wasLive = live
				o.log.Info(ctx, "poll schedule window changed",
					logger.Bool("live", live),
					logger.Duration("interval", o.policy.IntervalFor(now)),
				)
			}

			if removed, err := o.cache.EvictOlderThan(ctx, now.Add(-eventRetention)); err != nil {
				o.log.Error(ctx, "event cache eviction failed", logger.Error(err))
			} else if removed > 0 {
				o.log.Debug(ctx, "aged out cached events", logger.Int("removed", removed))
			}

			var mem runtime.MemStats
			runtime.ReadMemStats(&mem)
			metrics.UpdateSystemMemoryUsage(mem.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}
