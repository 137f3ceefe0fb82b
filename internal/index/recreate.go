package index

import (
	"context"
	"fmt"
	"time"

	"github.com/quantbr/indexa/internal/contracts"
	"github.com/quantbr/indexa/internal/screening"
	"github.com/quantbr/indexa/pkg/logger"
)

// Recreator wipes an index's state and rebuilds it from scratch: fresh
// screening, fresh composition and a first history point at the base
// level.
type Recreator struct {
	screener     *screening.Screener
	quality      *screening.QualityFilter
	manager      *CompositionManager
	compositions contracts.CompositionRepository
	history      contracts.HistoryRepository
	logs         contracts.RebalanceLogRepository
	prices       contracts.PriceGateway
	calendar     contracts.MarketCalendar
	logger       *logger.Logger
}

// NewRecreator creates a new recreator.
func NewRecreator(
	screener *screening.Screener,
	quality *screening.QualityFilter,
	manager *CompositionManager,
	compositions contracts.CompositionRepository,
	history contracts.HistoryRepository,
	logs contracts.RebalanceLogRepository,
	prices contracts.PriceGateway,
	calendar contracts.MarketCalendar,
	log *logger.Logger,
) *Recreator {
	return &Recreator{
		screener:     screener,
		quality:      quality,
		manager:      manager,
		compositions: compositions,
		history:      history,
		logs:         logs,
		prices:       prices,
		calendar:     calendar,
		logger:       log,
	}
}

// Recreate destroys all history, audit and composition state of the
// index and rebuilds it. The new series opens at exactly the base
// level. Failure to produce a first point is an explicit error, never
// a silent half-recreated index.
func (r *Recreator) Recreate(ctx context.Context, def *contracts.IndexDefinition) error {
	log := r.logger.WithFields(map[string]interface{}{
		"index":  def.Ticker,
		"module": "recreate",
	})
	log.Warn("Recreating index from scratch")

	if err := r.history.DeleteAll(ctx, def.ID); err != nil {
		return fmt.Errorf("wipe history: %w", err)
	}
	if err := r.logs.DeleteAll(ctx, def.ID); err != nil {
		return fmt.Errorf("wipe rebalance log: %w", err)
	}
	if err := r.compositions.Replace(ctx, def.ID, nil, nil); err != nil {
		return fmt.Errorf("wipe composition: %w", err)
	}

	result, err := r.screener.Screen(ctx, def.Config)
	if err != nil {
		return fmt.Errorf("screen %s: %w", def.Ticker, err)
	}
	candidates := result.Candidates
	if def.Config.QualityCheck {
		candidates = r.quality.Apply(candidates).Valid
	}
	if len(candidates) == 0 {
		return fmt.Errorf("recreate %s: screening produced no eligible candidates, index left empty", def.Ticker)
	}

	date := r.latestTradingDay()
	target := BuildTargetComposition(def.ID, candidates, nil, def.Config.Weighting, date)

	changes := make([]Change, 0, len(target))
	for _, a := range target {
		changes = append(changes, Change{
			Action:    contracts.ActionEntry,
			Ticker:    a.Ticker,
			Reason:    fmt.Sprintf("composição inicial com peso %.2f%%", a.TargetWeight*100),
			NewWeight: a.TargetWeight,
		})
	}
	if err := r.manager.UpdateComposition(ctx, def.ID, target, changes, date); err != nil {
		return err
	}

	if err := r.writeFirstPoint(ctx, def, target, date); err != nil {
		return err
	}

	log.WithField("assets", len(target)).Info("Index recreated")
	return nil
}

// writeFirstPoint anchors the new series at the base level with a full
// snapshot of the opening composition.
func (r *Recreator) writeFirstPoint(ctx context.Context, def *contracts.IndexDefinition, assets []contracts.CompositionAsset, date time.Time) error {
	tickers := make([]string, 0, len(assets))
	for _, a := range assets {
		tickers = append(tickers, a.Ticker)
	}
	quotes, err := r.prices.LatestPrices(ctx, tickers)
	if err != nil {
		return fmt.Errorf("price opening composition: %w", err)
	}

	closes := make(map[string]float64, len(quotes))
	for ticker, q := range quotes {
		closes[ticker] = q.Price
	}
	for _, a := range assets {
		if _, ok := closes[a.Ticker]; !ok {
			closes[a.Ticker] = a.EntryPrice
		}
	}

	point := contracts.HistoryPoint{
		IndexID:           def.ID,
		Date:              date,
		Points:            contracts.BasePoints,
		DailyChange:       0,
		DividendsReceived: 0,
		DividendsByTicker: map[string]float64{},
		Snapshot:          contracts.SnapshotFromComposition(assets, closes),
	}
	if err := r.history.Insert(ctx, point); err != nil {
		return fmt.Errorf("recreate %s: first history point could not be created: %w", def.Ticker, err)
	}
	return nil
}

// latestTradingDay walks back from today to the most recent open day.
func (r *Recreator) latestTradingDay() time.Time {
	d := r.calendar.Today()
	for !r.calendar.WasMarketOpen(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
