package contracts

import (
	"context"
	"time"
)

// JobType identifies a batch job for checkpointing.
type JobType string

const (
	JobMarkToMarket JobType = "mark-to-market"
	JobScreening    JobType = "screening"
)

// Checkpoint records batch progress, keyed by (jobType, indexID|nil).
type Checkpoint struct {
	JobType        JobType   `json:"job_type"`
	IndexID        *int64    `json:"index_id,omitempty"` // nil = global
	RunID          string    `json:"run_id"`
	ProcessedCount int       `json:"processed_count"`
	TotalCount     int       `json:"total_count"`
	Errors         []string  `json:"errors"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IndexRepository reads and writes index definitions.
type IndexRepository interface {
	GetByTicker(ctx context.Context, ticker string) (*IndexDefinition, error)
	GetByID(ctx context.Context, id int64) (*IndexDefinition, error)
	ListAll(ctx context.Context) ([]IndexDefinition, error)
}

// CompositionRepository owns the only mutable current-state table.
type CompositionRepository interface {
	Get(ctx context.Context, indexID int64) ([]CompositionAsset, error)

	// Replace atomically deletes all composition rows of the index,
	// inserts the new ones and appends the paired rebalance log rows.
	// All rows commit or none do.
	Replace(ctx context.Context, indexID int64, assets []CompositionAsset, logs []RebalanceLogEntry) error

	// RestoreFromSnapshot atomically recreates the composition verbatim
	// from a snapshot and deletes rebalance log rows strictly after the
	// snapshot date.
	RestoreFromSnapshot(ctx context.Context, indexID int64, snap CompositionSnapshot, snapshotDate time.Time) error
}

// HistoryRepository is the append-only daily point series.
type HistoryRepository interface {
	LastPoint(ctx context.Context, indexID int64) (*HistoryPoint, error)
	LastPointBefore(ctx context.Context, indexID int64, date time.Time) (*HistoryPoint, error)
	PointOn(ctx context.Context, indexID int64, date time.Time) (*HistoryPoint, error)

	// Insert writes one point. Inserting a duplicate (indexID, date) is
	// a no-op success: writers stay idempotent under retries.
	Insert(ctx context.Context, point HistoryPoint) error

	// Overwrite replaces the point for (indexID, date). Recompute path only.
	Overwrite(ctx context.Context, point HistoryPoint) error

	DeleteAll(ctx context.Context, indexID int64) error
}

// RebalanceLogRepository is the append-only audit trail.
type RebalanceLogRepository interface {
	Append(ctx context.Context, entries []RebalanceLogEntry) error
	ExistsOn(ctx context.Context, indexID int64, date time.Time) (bool, error)
	DeleteAll(ctx context.Context, indexID int64) error
}

// CheckpointRepository upserts batch progress records.
type CheckpointRepository interface {
	Get(ctx context.Context, jobType JobType, indexID *int64) (*Checkpoint, error)
	Upsert(ctx context.Context, cp Checkpoint) error
}
