package commands

import (
	"fmt"

	"github.com/quantbr/indexa/internal/batch"
	"github.com/quantbr/indexa/internal/contracts"
	"github.com/quantbr/indexa/internal/external/b3quotes"
	"github.com/quantbr/indexa/internal/index"
	"github.com/quantbr/indexa/internal/marketdata"
	"github.com/quantbr/indexa/internal/scheduler"
	"github.com/quantbr/indexa/internal/scheduler/jobs"
	"github.com/quantbr/indexa/internal/screening"
	"github.com/quantbr/indexa/pkg/config"
	"github.com/quantbr/indexa/pkg/database"
	"github.com/quantbr/indexa/pkg/httputil"
	"github.com/quantbr/indexa/pkg/logger"
	"github.com/quantbr/indexa/pkg/redis"
)

// app wires every service of the engine. Commands build it once and
// pick what they need.
type app struct {
	cfg    *config.Config
	logger *logger.Logger
	db     *database.DB
	cache  *redis.Client

	indexes     contracts.IndexRepository
	calendar    contracts.MarketCalendar
	backfiller  *index.Backfiller
	rebalancer  *index.Rebalancer
	recreator   *index.Recreator
	snapshots   *index.SnapshotManager
	status      *index.StatusService
	scheduler   *scheduler.Scheduler
	checkpoints contracts.CheckpointRepository
}

// newApp loads config and builds the full service graph.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, price cache disabled")
		redisClient = &redis.Client{}
	}
	cache := redis.NewCache(redisClient, "indexa")

	httpClient := httputil.New(log, cfg.Quotes.Timeout).WithRateLimit(cfg.Quotes.RateLimit)
	provider := b3quotes.NewClient(httpClient, cfg.Quotes.BaseURL, log)

	calendar := marketdata.NewB3Calendar()
	prices := marketdata.NewPriceGateway(provider, cache, log)
	dividends := marketdata.NewDividendGateway(provider, log)
	universe := marketdata.NewUniverseSource(provider, log)
	valuation := marketdata.NewValuationGateway(provider, log)

	indexes := index.NewPgIndexRepository(db.Pool)
	compositions := index.NewPgCompositionRepository(db.Pool)
	history := index.NewPgHistoryRepository(db.Pool)
	rebalanceLogs := index.NewPgRebalanceLogRepository(db.Pool)
	checkpoints := batch.NewPgCheckpointRepository(db.Pool)

	screener := screening.NewScreener(universe, valuation, log)
	quality := screening.NewQualityFilter(log)
	manager := index.NewCompositionManager(compositions, log)

	calculator := index.NewCalculator(compositions, history, prices, dividends, calendar, log)
	backfiller := index.NewBackfiller(calculator, history, calendar, log)
	rebalancer := index.NewRebalancer(screener, quality, manager, compositions, rebalanceLogs, calendar, log)
	recreator := index.NewRecreator(screener, quality, manager, compositions, history, rebalanceLogs, prices, calendar, log)
	snapshots := index.NewSnapshotManager(compositions, history, log)
	status := index.NewStatusService(compositions, history, checkpoints, dividends, backfiller)

	orchestrator := batch.NewOrchestrator(indexes, checkpoints, cfg.Batch.Budget, log)

	sched := scheduler.New(calendar.Location(), log)
	if err := sched.Register(jobs.NewMarkToMarketJob(orchestrator, backfiller, calendar, log)); err != nil {
		return nil, fmt.Errorf("register mark-to-market job: %w", err)
	}
	if err := sched.Register(jobs.NewScreeningJob(orchestrator, rebalancer, calendar, log)); err != nil {
		return nil, fmt.Errorf("register screening job: %w", err)
	}

	return &app{
		cfg:         cfg,
		logger:      log,
		db:          db,
		cache:       redisClient,
		indexes:     indexes,
		calendar:    calendar,
		backfiller:  backfiller,
		rebalancer:  rebalancer,
		recreator:   recreator,
		snapshots:   snapshots,
		status:      status,
		scheduler:   sched,
		checkpoints: checkpoints,
	}, nil
}

// Close releases the database and cache connections.
func (a *app) Close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
