// Package service wires the polling, attribution, and storage components
// together and implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/redzone/internal/adapters/httpclient"
	"github.com/okian/redzone/internal/adapters/mq/queue"
	workerpool "github.com/okian/redzone/internal/adapters/mq/worker"
	"github.com/okian/redzone/internal/adapters/provider"
	"github.com/okian/redzone/internal/adapters/provider/espnscore"
	"github.com/okian/redzone/internal/adapters/provider/tank01"
	"github.com/okian/redzone/internal/adapters/repository"
	"github.com/okian/redzone/internal/config"
	"github.com/okian/redzone/internal/domain/attribution"
	"github.com/okian/redzone/internal/domain/dedupe"
	"github.com/okian/redzone/internal/domain/mapping"
	"github.com/okian/redzone/internal/domain/model"
	"github.com/okian/redzone/internal/domain/schedule"
	"github.com/okian/redzone/internal/domain/scoring"
	"github.com/okian/redzone/pkg/logger"
)

// backupIntervalFactor trails the backup poller behind the primary cadence.
const backupIntervalFactor = 1.4

// Service owns the full event pipeline: two provider pollers under a
// coordinator, a bounded queue drained by attribution workers, the player
// mapping service, and the per-league event cache.
type Service struct {
	mu sync.RWMutex

	cfg       *config.Config
	directory mapping.Directory

	// Injected sources override the real providers in tests.
	primarySource provider.Source
	backupSource  provider.Source

	deduper     dedupe.Deduper
	eventQueue  queue.Queue
	scorebook   *scoring.Book
	cache       repository.EventCache
	mappingSvc  *mapping.Service
	engine      *attribution.Engine
	coordinator *Coordinator
	workerPool  *workerpool.Pool
	policy      *schedule.Policy

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig supplies the loaded configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithDirectory supplies the upstream player directory for mapping syncs.
func WithDirectory(d mapping.Directory) Option {
	return func(s *Service) {
		s.directory = d
	}
}

// WithPrimarySource overrides the primary provider, mainly for tests.
func WithPrimarySource(src provider.Source) Option {
	return func(s *Service) {
		s.primarySource = src
	}
}

// WithBackupSource overrides the backup provider, mainly for tests.
func WithBackupSource(src provider.Source) Option {
	return func(s *Service) {
		s.backupSource = src
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cfg: config.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start builds and starts every component. Safe to call once; repeated
// calls are no-ops.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	cfg := s.cfg
	s.logger.Info(ctx, "starting event pipeline")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(cfg.DedupeSize),
		dedupe.WithTTL(cfg.DedupeTTL),
	)
	s.eventQueue = queue.NewInMemoryQueue(queue.WithCapacity(cfg.QueueSize))
	s.cache = repository.NewEventCache(repository.WithLeagueCapacity(cfg.LeagueCacheCapacity))
	s.scorebook = scoring.NewBook(scoring.WithDefaultRules(cfg.Scoring))

	var store mapping.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			cancel()
			return fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		store = repository.NewRedisMappingStore(client)
		s.logger.Info(ctx, "using redis mapping store", logger.String("addr", cfg.RedisAddr))
	} else {
		store = repository.NewMappingStore()
	}
	s.mappingSvc = mapping.NewService(store, s.directory,
		mapping.WithBatchSize(cfg.MappingBatchSize),
		mapping.WithStaleAfter(cfg.MappingStaleAfter),
		mapping.WithRetention(cfg.MappingRetention),
	)

	s.engine = attribution.NewEngine(s.mappingSvc, s.scorebook, s.deduper, s.cache)
	s.engine.SetLeagues(leaguesFromConfig(cfg.Leagues))

	s.policy = schedule.NewPolicy(
		schedule.WithLiveHoursEnabled(cfg.LiveHoursEnabled),
		schedule.WithOffHoursInterval(cfg.OffHoursInterval),
		schedule.WithLocation(s.location(ctx, cfg.Timezone)),
	)
	intervalFn := func() time.Duration {
		if !cfg.LiveHoursEnabled {
			return cfg.LiveInterval
		}
		return s.policy.IntervalFor(time.Now())
	}
	// The backup burns no paid quota, so it trails the primary cadence
	// rather than doubling the request volume at full rate.
	backupIntervalFn := func() time.Duration {
		return time.Duration(float64(intervalFn()) * backupIntervalFactor)
	}

	primary := provider.NewPoller(s.primaryOrDefault(),
		provider.WithIntervalFunc(intervalFn),
		provider.WithInterval(cfg.LiveInterval),
		provider.WithFailureThreshold(cfg.BreakerThreshold),
		provider.WithCooldown(cfg.BreakerCooldown),
		provider.WithQuotaLimit(cfg.Tank01.QuotaLimit),
		provider.WithForwarding(false),
	)
	backup := provider.NewPoller(s.backupOrDefault(),
		provider.WithIntervalFunc(backupIntervalFn),
		provider.WithInterval(cfg.LiveInterval),
		provider.WithFailureThreshold(cfg.BreakerThreshold),
		provider.WithCooldown(cfg.BreakerCooldown),
		provider.WithQuotaLimit(cfg.ESPN.QuotaLimit),
		provider.WithForwarding(false),
	)

	forward := func(event model.NormalizedScoringEvent) {
		if !s.eventQueue.Enqueue(runCtx, event) {
			s.logger.Warn(runCtx, "event queue refused event",
				logger.String("play", event.PlayIdentity()),
			)
		}
	}
	primary.OnScoringEvent(forward)
	backup.OnScoringEvent(forward)

	s.coordinator = NewCoordinator(primary, backup, s.logger.Named("coordinator"))

	s.workerPool = workerpool.NewPool(cfg.WorkerCount, s.eventQueue, s.engine)
	s.workerPool.Start(runCtx)

	if err := s.coordinator.Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("starting pollers: %w", err)
	}

	go newOrchestrator(s.policy, s.cache, s.logger.Named("orchestrator")).run(runCtx)

	s.started = true
	s.logger.Info(ctx, "event pipeline started",
		logger.Int("workers", cfg.WorkerCount),
		logger.Int("queue_size", cfg.QueueSize),
		logger.Int("leagues", len(cfg.Leagues)),
	)
	return nil
}

// Stop gracefully shuts down the pipeline: pollers first, then the queue
// drains into the workers.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping event pipeline")

	s.coordinator.Stop()
	_ = s.workerPool.Shutdown(ctx)
	if s.cancel != nil {
		s.cancel()
	}

	s.started = false
	s.logger.Info(ctx, "event pipeline stopped")
}

func (s *Service) primaryOrDefault() provider.Source {
	if s.primarySource != nil {
		return s.primarySource
	}
	opts := []tank01.Option{}
	if s.cfg.Tank01.BaseURL != "" {
		client := httpClientFor(s.cfg.Tank01, "tank01")
		opts = append(opts, tank01.WithClient(client))
	}
	return tank01.New(s.cfg.Tank01.APIKey, opts...)
}

func (s *Service) backupOrDefault() provider.Source {
	if s.backupSource != nil {
		return s.backupSource
	}
	opts := []espnscore.Option{}
	if s.cfg.ESPN.BaseURL != "" {
		opts = append(opts, espnscore.WithClient(httpClientFor(s.cfg.ESPN, "espn")))
	}
	return espnscore.New(opts...)
}

func (s *Service) location(ctx context.Context, name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		s.logger.Warn(ctx, "unknown timezone, using UTC", logger.String("timezone", name))
		return time.UTC
	}
	return loc
}

func httpClientFor(p config.Provider, name string) *httpclient.Client {
	opts := []httpclient.Option{
		httpclient.WithBaseURL(p.BaseURL),
		httpclient.WithProviderName(name),
	}
	if p.MinInterval > 0 {
		opts = append(opts, httpclient.WithMinInterval(p.MinInterval))
	}
	if p.APIKey != "" {
		opts = append(opts, httpclient.WithHeader("x-rapidapi-key", p.APIKey))
	}
	return httpclient.New(opts...)
}

func leaguesFromConfig(leagues []config.League) []model.LeagueConfig {
	out := make([]model.LeagueConfig, 0, len(leagues))
	for _, league := range leagues {
		out = append(out, model.LeagueConfig{
			LeagueID:       league.LeagueID,
			Platform:       model.Platform(league.Platform),
			Enabled:        league.Enabled,
			CustomTeamName: league.TeamName,
			Username:       league.Username,
		})
	}
	return out
}
