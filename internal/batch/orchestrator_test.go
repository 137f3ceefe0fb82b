package batch

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantbr/indexa/internal/contracts"
	"github.com/quantbr/indexa/pkg/logger"
)

type memIndexes struct {
	defs []contracts.IndexDefinition
}

func (m *memIndexes) GetByTicker(_ context.Context, ticker string) (*contracts.IndexDefinition, error) {
	for i := range m.defs {
		if m.defs[i].Ticker == ticker {
			return &m.defs[i], nil
		}
	}
	return nil, errors.New("not found")
}

func (m *memIndexes) GetByID(_ context.Context, id int64) (*contracts.IndexDefinition, error) {
	for i := range m.defs {
		if m.defs[i].ID == id {
			return &m.defs[i], nil
		}
	}
	return nil, errors.New("not found")
}

func (m *memIndexes) ListAll(_ context.Context) ([]contracts.IndexDefinition, error) {
	return m.defs, nil
}

type memCheckpoints struct {
	byKey map[string]contracts.Checkpoint
}

func newMemCheckpoints() *memCheckpoints {
	return &memCheckpoints{byKey: map[string]contracts.Checkpoint{}}
}

func key(jobType contracts.JobType, indexID *int64) string {
	if indexID == nil {
		return string(jobType) + ":global"
	}
	return string(jobType) + ":" + strconv.FormatInt(*indexID, 10)
}

func (m *memCheckpoints) Get(_ context.Context, jobType contracts.JobType, indexID *int64) (*contracts.Checkpoint, error) {
	if cp, ok := m.byKey[key(jobType, indexID)]; ok {
		return &cp, nil
	}
	return nil, nil
}

func (m *memCheckpoints) Upsert(_ context.Context, cp contracts.Checkpoint) error {
	m.byKey[key(cp.JobType, cp.IndexID)] = cp
	return nil
}

func threeIndexes() *memIndexes {
	return &memIndexes{defs: []contracts.IndexDefinition{
		{ID: 1, Ticker: "QDIV11"},
		{ID: 2, Ticker: "QSML11"},
		{ID: 3, Ticker: "QVAL11"},
	}}
}

func TestOrchestrator_ProcessesAllIndexes(t *testing.T) {
	checkpoints := newMemCheckpoints()
	o := NewOrchestrator(threeIndexes(), checkpoints, time.Hour, logger.NewNop())

	var seen []string
	result, err := o.RunAll(context.Background(), contracts.JobMarkToMarket, func(_ context.Context, def *contracts.IndexDefinition) error {
		seen = append(seen, def.Ticker)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"QDIV11", "QSML11", "QVAL11"}, seen)
	assert.Equal(t, 3, result.Processed)
	assert.Zero(t, result.Failed)
	assert.False(t, result.BudgetExhausted)

	global, err := checkpoints.Get(context.Background(), contracts.JobMarkToMarket, nil)
	require.NoError(t, err)
	require.NotNil(t, global)
	assert.Equal(t, 3, global.ProcessedCount)
	assert.Equal(t, 3, global.TotalCount)
}

func TestOrchestrator_OneFailureDoesNotStopTheRun(t *testing.T) {
	o := NewOrchestrator(threeIndexes(), newMemCheckpoints(), time.Hour, logger.NewNop())

	result, err := o.RunAll(context.Background(), contracts.JobMarkToMarket, func(_ context.Context, def *contracts.IndexDefinition) error {
		if def.Ticker == "QSML11" {
			return errors.New("price feed down")
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "QSML11")
}

func TestOrchestrator_BudgetStopsBetweenIndexes(t *testing.T) {
	o := NewOrchestrator(threeIndexes(), newMemCheckpoints(), 50*time.Millisecond, logger.NewNop())

	base := time.Now()
	calls := 0
	// Clock calls: run id resolution, deadline, then the first budget
	// check. Everything after that is past the deadline, so only the
	// first index runs.
	o.now = func() time.Time {
		calls++
		if calls <= 3 {
			return base
		}
		return base.Add(time.Minute)
	}

	var seen []string
	result, err := o.RunAll(context.Background(), contracts.JobMarkToMarket, func(_ context.Context, def *contracts.IndexDefinition) error {
		seen = append(seen, def.Ticker)
		return nil
	})
	require.NoError(t, err)

	assert.True(t, result.BudgetExhausted)
	assert.Equal(t, []string{"QDIV11"}, seen)
	assert.Equal(t, 1, result.Processed)
}

func TestOrchestrator_ResumedRunSkipsProcessedIndexes(t *testing.T) {
	checkpoints := newMemCheckpoints()
	indexes := threeIndexes()
	now := time.Now()

	// A same-day run processed the first index and stopped.
	id := int64(1)
	require.NoError(t, checkpoints.Upsert(context.Background(), contracts.Checkpoint{
		JobType: contracts.JobMarkToMarket, IndexID: &id,
		RunID: "run-abc", ProcessedCount: 1, TotalCount: 1, UpdatedAt: now,
	}))
	require.NoError(t, checkpoints.Upsert(context.Background(), contracts.Checkpoint{
		JobType: contracts.JobMarkToMarket, IndexID: nil,
		RunID: "run-abc", ProcessedCount: 1, TotalCount: 3, UpdatedAt: now,
	}))

	o := NewOrchestrator(indexes, checkpoints, time.Hour, logger.NewNop())

	var seen []string
	result, err := o.RunAll(context.Background(), contracts.JobMarkToMarket, func(_ context.Context, def *contracts.IndexDefinition) error {
		seen = append(seen, def.Ticker)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "run-abc", result.RunID)
	assert.Equal(t, []string{"QSML11", "QVAL11"}, seen)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, result.Processed)
}

func TestOrchestrator_FinishedRunGetsFreshRunID(t *testing.T) {
	checkpoints := newMemCheckpoints()
	require.NoError(t, checkpoints.Upsert(context.Background(), contracts.Checkpoint{
		JobType: contracts.JobMarkToMarket, IndexID: nil,
		RunID: "run-abc", ProcessedCount: 3, TotalCount: 3, UpdatedAt: time.Now(),
	}))

	o := NewOrchestrator(threeIndexes(), checkpoints, time.Hour, logger.NewNop())

	result, err := o.RunAll(context.Background(), contracts.JobMarkToMarket, func(_ context.Context, _ *contracts.IndexDefinition) error {
		return nil
	})
	require.NoError(t, err)

	assert.NotEqual(t, "run-abc", result.RunID)
	assert.Equal(t, 3, result.Processed)
}
