package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quantbr/indexa/internal/contracts"
	"github.com/quantbr/indexa/pkg/logger"
)

// ProcessFunc runs one job over one index.
type ProcessFunc func(ctx context.Context, def *contracts.IndexDefinition) error

// Result summarizes one orchestrator run.
type Result struct {
	RunID           string   `json:"run_id"`
	Total           int      `json:"total"`
	Processed       int      `json:"processed"`
	Skipped         int      `json:"skipped"`
	Failed          int      `json:"failed"`
	Errors          []string `json:"errors,omitempty"`
	BudgetExhausted bool     `json:"budget_exhausted"`
}

// Orchestrator walks every index sequentially under a wall-clock
// budget. One index failing never stops the run; progress is
// checkpointed so an interrupted run resumes where it left off.
type Orchestrator struct {
	indexes     contracts.IndexRepository
	checkpoints contracts.CheckpointRepository
	budget      time.Duration
	logger      *logger.Logger
	now         func() time.Time
}

// NewOrchestrator creates a new orchestrator with the given budget.
func NewOrchestrator(indexes contracts.IndexRepository, checkpoints contracts.CheckpointRepository, budget time.Duration, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		indexes:     indexes,
		checkpoints: checkpoints,
		budget:      budget,
		logger:      log,
		now:         time.Now,
	}
}

// RunAll applies process to every index. The budget is checked between
// indices, never mid-index, so a started index always finishes. When a
// same-day run was cut short, its run id is reused and indices already
// checkpointed under it are skipped.
func (o *Orchestrator) RunAll(ctx context.Context, jobType contracts.JobType, process ProcessFunc) (*Result, error) {
	defs, err := o.indexes.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}

	runID, err := o.resolveRunID(ctx, jobType)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: runID, Total: len(defs)}
	deadline := o.now().Add(o.budget)

	log := o.logger.WithFields(map[string]interface{}{
		"job":    string(jobType),
		"run_id": runID,
		"total":  len(defs),
	})
	log.Info("Batch run started")

	for i := range defs {
		def := &defs[i]

		if o.now().After(deadline) {
			result.BudgetExhausted = true
			log.WithField("remaining", len(defs)-i).Warn("Budget exhausted, run will resume later")
			break
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		cp, err := o.checkpoints.Get(ctx, jobType, &def.ID)
		if err != nil {
			return result, fmt.Errorf("load checkpoint %s: %w", def.Ticker, err)
		}
		if cp != nil && cp.RunID == runID {
			result.Skipped++
			continue
		}

		if err := process(ctx, def); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", def.Ticker, err))
			o.logger.WithError(err).WithField("index", def.Ticker).Error("Index processing failed")
			continue
		}

		if err := o.checkpoints.Upsert(ctx, contracts.Checkpoint{
			JobType:        jobType,
			IndexID:        &def.ID,
			RunID:          runID,
			ProcessedCount: 1,
			TotalCount:     1,
			UpdatedAt:      o.now(),
		}); err != nil {
			return result, fmt.Errorf("save checkpoint %s: %w", def.Ticker, err)
		}
		result.Processed++
	}

	if err := o.checkpoints.Upsert(ctx, contracts.Checkpoint{
		JobType:        jobType,
		IndexID:        nil,
		RunID:          runID,
		ProcessedCount: result.Processed + result.Skipped,
		TotalCount:     result.Total,
		Errors:         result.Errors,
		UpdatedAt:      o.now(),
	}); err != nil {
		return result, fmt.Errorf("save run checkpoint: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"processed": result.Processed,
		"skipped":   result.Skipped,
		"failed":    result.Failed,
	}).Info("Batch run finished")

	return result, nil
}

// resolveRunID reuses the run id of an unfinished same-day run so
// per-index checkpoints written under it stay valid.
func (o *Orchestrator) resolveRunID(ctx context.Context, jobType contracts.JobType) (string, error) {
	cp, err := o.checkpoints.Get(ctx, jobType, nil)
	if err != nil {
		return "", fmt.Errorf("load run checkpoint: %w", err)
	}
	if cp != nil && cp.ProcessedCount < cp.TotalCount && sameDay(cp.UpdatedAt, o.now()) {
		return cp.RunID, nil
	}
	return uuid.NewString(), nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
