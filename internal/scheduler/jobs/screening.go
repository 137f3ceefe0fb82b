package jobs

import (
	"context"
	"fmt"

	"github.com/quantbr/indexa/internal/batch"
	"github.com/quantbr/indexa/internal/contracts"
	"github.com/quantbr/indexa/internal/index"
	"github.com/quantbr/indexa/pkg/logger"
)

// ScreeningJob re-screens every index's universe and rebalances the
// compositions that drifted past their thresholds.
type ScreeningJob struct {
	orchestrator *batch.Orchestrator
	rebalancer   *index.Rebalancer
	calendar     contracts.MarketCalendar
	logger       *logger.Logger
}

// NewScreeningJob creates the weekly screening job.
func NewScreeningJob(orchestrator *batch.Orchestrator, rebalancer *index.Rebalancer, calendar contracts.MarketCalendar, log *logger.Logger) *ScreeningJob {
	return &ScreeningJob{
		orchestrator: orchestrator,
		rebalancer:   rebalancer,
		calendar:     calendar,
		logger:       log,
	}
}

func (j *ScreeningJob) Name() string { return string(contracts.JobScreening) }

// Monday mornings before the open, São Paulo time.
func (j *ScreeningJob) Schedule() string { return "0 8 * * 1" }

func (j *ScreeningJob) Run(ctx context.Context) error {
	today := j.calendar.Today()
	if !j.calendar.WasMarketOpen(today) {
		j.logger.Info("Market closed today, screening skipped")
		return nil
	}

	result, err := j.orchestrator.RunAll(ctx, contracts.JobScreening, func(ctx context.Context, def *contracts.IndexDefinition) error {
		return j.rebalancer.Run(ctx, def, today)
	})
	if err != nil {
		return fmt.Errorf("screening run: %w", err)
	}
	if result.Failed > 0 {
		j.logger.WithField("failed", result.Failed).Warn("Screening finished with failures")
	}
	return nil
}
