package jobs

import (
	"context"
	"fmt"

	"github.com/quantbr/indexa/internal/batch"
	"github.com/quantbr/indexa/internal/contracts"
	"github.com/quantbr/indexa/internal/index"
	"github.com/quantbr/indexa/pkg/logger"
)

// MarkToMarketJob computes the daily point for every index after the
// B3 close, backfilling any days the previous runs missed.
type MarkToMarketJob struct {
	orchestrator *batch.Orchestrator
	backfiller   *index.Backfiller
	calendar     contracts.MarketCalendar
	logger       *logger.Logger
}

// NewMarkToMarketJob creates the daily mark-to-market job.
func NewMarkToMarketJob(orchestrator *batch.Orchestrator, backfiller *index.Backfiller, calendar contracts.MarketCalendar, log *logger.Logger) *MarkToMarketJob {
	return &MarkToMarketJob{
		orchestrator: orchestrator,
		backfiller:   backfiller,
		calendar:     calendar,
		logger:       log,
	}
}

// The job name doubles as the operator token for manual triggers and
// must match the checkpoint job type.
func (j *MarkToMarketJob) Name() string { return string(contracts.JobMarkToMarket) }

// After the close on weekdays, São Paulo time.
func (j *MarkToMarketJob) Schedule() string { return "30 22 * * 1-5" }

func (j *MarkToMarketJob) Run(ctx context.Context) error {
	if !j.calendar.WasMarketOpen(j.calendar.Today()) {
		j.logger.Info("Market closed today, mark-to-market skipped")
		return nil
	}

	result, err := j.orchestrator.RunAll(ctx, contracts.JobMarkToMarket, func(ctx context.Context, def *contracts.IndexDefinition) error {
		filled, err := j.backfiller.FillMissingHistory(ctx, def.ID)
		if err != nil {
			return err
		}
		j.logger.WithFields(map[string]interface{}{
			"index":  def.Ticker,
			"filled": filled,
		}).Info("Index history updated")
		return nil
	})
	if err != nil {
		return fmt.Errorf("mark-to-market run: %w", err)
	}
	if result.Failed > 0 {
		j.logger.WithField("failed", result.Failed).Warn("Mark-to-market finished with failures")
	}
	return nil
}
