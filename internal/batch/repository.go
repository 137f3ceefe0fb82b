package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantbr/indexa/internal/contracts"
)

// PgCheckpointRepository persists batch progress in Postgres. The
// global row of a job uses a NULL index_id; uniqueness is enforced on
// (job_type, COALESCE(index_id, 0)).
type PgCheckpointRepository struct {
	pool *pgxpool.Pool
}

// NewPgCheckpointRepository creates a new checkpoint repository.
func NewPgCheckpointRepository(pool *pgxpool.Pool) *PgCheckpointRepository {
	return &PgCheckpointRepository{pool: pool}
}

func (r *PgCheckpointRepository) Get(ctx context.Context, jobType contracts.JobType, indexID *int64) (*contracts.Checkpoint, error) {
	query := `
		SELECT job_type, index_id, run_id, processed_count, total_count, errors, updated_at
		FROM job_checkpoints
		WHERE job_type = $1 AND index_id IS NOT DISTINCT FROM $2`

	var cp contracts.Checkpoint
	err := r.pool.QueryRow(ctx, query, string(jobType), indexID).Scan(
		&cp.JobType, &cp.IndexID, &cp.RunID, &cp.ProcessedCount, &cp.TotalCount, &cp.Errors, &cp.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get checkpoint: %w", err)
	}
	return &cp, nil
}

func (r *PgCheckpointRepository) Upsert(ctx context.Context, cp contracts.Checkpoint) error {
	query := `
		INSERT INTO job_checkpoints (job_type, index_id, run_id, processed_count, total_count, errors, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (job_type, (COALESCE(index_id, 0))) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			processed_count = EXCLUDED.processed_count,
			total_count = EXCLUDED.total_count,
			errors = EXCLUDED.errors,
			updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		string(cp.JobType), cp.IndexID, cp.RunID, cp.ProcessedCount, cp.TotalCount, cp.Errors, cp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert checkpoint: %w", err)
	}
	return nil
}
