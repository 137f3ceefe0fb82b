package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantbr/indexa/internal/contracts"
)

// ErrIndexNotFound is returned when a ticker or id resolves to nothing.
var ErrIndexNotFound = errors.New("index not found")

// PgIndexRepository reads index definitions from Postgres.
type PgIndexRepository struct {
	pool *pgxpool.Pool
}

// NewPgIndexRepository creates a new index repository.
func NewPgIndexRepository(pool *pgxpool.Pool) *PgIndexRepository {
	return &PgIndexRepository{pool: pool}
}

func (r *PgIndexRepository) GetByTicker(ctx context.Context, ticker string) (*contracts.IndexDefinition, error) {
	query := `
		SELECT id, ticker, name, config, created_at, updated_at
		FROM index_definitions
		WHERE ticker = $1`

	var def contracts.IndexDefinition
	err := r.pool.QueryRow(ctx, query, ticker).Scan(
		&def.ID, &def.Ticker, &def.Name, &def.Config, &def.CreatedAt, &def.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("index %s: %w", ticker, ErrIndexNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get index by ticker: %w", err)
	}
	return &def, nil
}

func (r *PgIndexRepository) GetByID(ctx context.Context, id int64) (*contracts.IndexDefinition, error) {
	query := `
		SELECT id, ticker, name, config, created_at, updated_at
		FROM index_definitions
		WHERE id = $1`

	var def contracts.IndexDefinition
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&def.ID, &def.Ticker, &def.Name, &def.Config, &def.CreatedAt, &def.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("index %d: %w", id, ErrIndexNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get index by id: %w", err)
	}
	return &def, nil
}

func (r *PgIndexRepository) ListAll(ctx context.Context) ([]contracts.IndexDefinition, error) {
	query := `
		SELECT id, ticker, name, config, created_at, updated_at
		FROM index_definitions
		ORDER BY ticker`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	defer rows.Close()

	var defs []contracts.IndexDefinition
	for rows.Next() {
		var def contracts.IndexDefinition
		if err := rows.Scan(&def.ID, &def.Ticker, &def.Name, &def.Config, &def.CreatedAt, &def.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan index: %w", err)
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// PgCompositionRepository owns the index_compositions table.
type PgCompositionRepository struct {
	pool *pgxpool.Pool
}

// NewPgCompositionRepository creates a new composition repository.
func NewPgCompositionRepository(pool *pgxpool.Pool) *PgCompositionRepository {
	return &PgCompositionRepository{pool: pool}
}

func (r *PgCompositionRepository) Get(ctx context.Context, indexID int64) ([]contracts.CompositionAsset, error) {
	query := `
		SELECT index_id, ticker, target_weight, entry_price, entry_date
		FROM index_compositions
		WHERE index_id = $1
		ORDER BY ticker`

	rows, err := r.pool.Query(ctx, query, indexID)
	if err != nil {
		return nil, fmt.Errorf("get composition: %w", err)
	}
	defer rows.Close()

	var assets []contracts.CompositionAsset
	for rows.Next() {
		var a contracts.CompositionAsset
		if err := rows.Scan(&a.IndexID, &a.Ticker, &a.TargetWeight, &a.EntryPrice, &a.EntryDate); err != nil {
			return nil, fmt.Errorf("scan composition asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (r *PgCompositionRepository) Replace(ctx context.Context, indexID int64, assets []contracts.CompositionAsset, logs []contracts.RebalanceLogEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM index_compositions WHERE index_id = $1`, indexID); err != nil {
		return fmt.Errorf("clear composition: %w", err)
	}

	for _, a := range assets {
		_, err := tx.Exec(ctx, `
			INSERT INTO index_compositions (index_id, ticker, target_weight, entry_price, entry_date)
			VALUES ($1, $2, $3, $4, $5)`,
			indexID, a.Ticker, a.TargetWeight, a.EntryPrice, a.EntryDate)
		if err != nil {
			return fmt.Errorf("insert composition asset %s: %w", a.Ticker, err)
		}
	}

	for _, l := range logs {
		_, err := tx.Exec(ctx, `
			INSERT INTO rebalance_logs (index_id, date, action, ticker, reason)
			VALUES ($1, $2, $3, $4, $5)`,
			l.IndexID, l.Date, l.Action, l.Ticker, l.Reason)
		if err != nil {
			return fmt.Errorf("insert rebalance log: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *PgCompositionRepository) RestoreFromSnapshot(ctx context.Context, indexID int64, snap contracts.CompositionSnapshot, snapshotDate time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM index_compositions WHERE index_id = $1`, indexID); err != nil {
		return fmt.Errorf("clear composition: %w", err)
	}

	for _, a := range snap.ToComposition(indexID) {
		_, err := tx.Exec(ctx, `
			INSERT INTO index_compositions (index_id, ticker, target_weight, entry_price, entry_date)
			VALUES ($1, $2, $3, $4, $5)`,
			indexID, a.Ticker, a.TargetWeight, a.EntryPrice, a.EntryDate)
		if err != nil {
			return fmt.Errorf("restore composition asset %s: %w", a.Ticker, err)
		}
	}

	// Audit rows after the snapshot describe mutations the restore undid.
	if _, err := tx.Exec(ctx, `DELETE FROM rebalance_logs WHERE index_id = $1 AND date > $2`, indexID, snapshotDate); err != nil {
		return fmt.Errorf("trim rebalance log: %w", err)
	}

	return tx.Commit(ctx)
}

// PgHistoryRepository owns the append-only index_history table.
type PgHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewPgHistoryRepository creates a new history repository.
func NewPgHistoryRepository(pool *pgxpool.Pool) *PgHistoryRepository {
	return &PgHistoryRepository{pool: pool}
}

const historyColumns = `index_id, date, points, daily_change, current_yield,
	dividends_received, dividends_by_ticker, composition_snapshot`

func (r *PgHistoryRepository) LastPoint(ctx context.Context, indexID int64) (*contracts.HistoryPoint, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM index_history
		WHERE index_id = $1
		ORDER BY date DESC
		LIMIT 1`
	return r.scanOne(r.pool.QueryRow(ctx, query, indexID))
}

func (r *PgHistoryRepository) LastPointBefore(ctx context.Context, indexID int64, date time.Time) (*contracts.HistoryPoint, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM index_history
		WHERE index_id = $1 AND date < $2
		ORDER BY date DESC
		LIMIT 1`
	return r.scanOne(r.pool.QueryRow(ctx, query, indexID, date))
}

func (r *PgHistoryRepository) PointOn(ctx context.Context, indexID int64, date time.Time) (*contracts.HistoryPoint, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM index_history
		WHERE index_id = $1 AND date = $2`
	return r.scanOne(r.pool.QueryRow(ctx, query, indexID, date))
}

func (r *PgHistoryRepository) scanOne(row pgx.Row) (*contracts.HistoryPoint, error) {
	var p contracts.HistoryPoint
	err := row.Scan(
		&p.IndexID, &p.Date, &p.Points, &p.DailyChange, &p.CurrentYield,
		&p.DividendsReceived, &p.DividendsByTicker, &p.Snapshot,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan history point: %w", err)
	}
	return &p, nil
}

func (r *PgHistoryRepository) Insert(ctx context.Context, point contracts.HistoryPoint) error {
	query := `
		INSERT INTO index_history (` + historyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (index_id, date) DO NOTHING`

	_, err := r.pool.Exec(ctx, query,
		point.IndexID, point.Date, point.Points, point.DailyChange, point.CurrentYield,
		point.DividendsReceived, point.DividendsByTicker, point.Snapshot)
	if err != nil {
		return fmt.Errorf("insert history point: %w", err)
	}
	return nil
}

func (r *PgHistoryRepository) Overwrite(ctx context.Context, point contracts.HistoryPoint) error {
	query := `
		INSERT INTO index_history (` + historyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (index_id, date) DO UPDATE SET
			points = EXCLUDED.points,
			daily_change = EXCLUDED.daily_change,
			current_yield = EXCLUDED.current_yield,
			dividends_received = EXCLUDED.dividends_received,
			dividends_by_ticker = EXCLUDED.dividends_by_ticker,
			composition_snapshot = EXCLUDED.composition_snapshot`

	_, err := r.pool.Exec(ctx, query,
		point.IndexID, point.Date, point.Points, point.DailyChange, point.CurrentYield,
		point.DividendsReceived, point.DividendsByTicker, point.Snapshot)
	if err != nil {
		return fmt.Errorf("overwrite history point: %w", err)
	}
	return nil
}

func (r *PgHistoryRepository) DeleteAll(ctx context.Context, indexID int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM index_history WHERE index_id = $1`, indexID); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}

// PgRebalanceLogRepository owns the append-only rebalance_logs table.
type PgRebalanceLogRepository struct {
	pool *pgxpool.Pool
}

// NewPgRebalanceLogRepository creates a new rebalance log repository.
func NewPgRebalanceLogRepository(pool *pgxpool.Pool) *PgRebalanceLogRepository {
	return &PgRebalanceLogRepository{pool: pool}
}

func (r *PgRebalanceLogRepository) Append(ctx context.Context, entries []contracts.RebalanceLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		_, err := tx.Exec(ctx, `
			INSERT INTO rebalance_logs (index_id, date, action, ticker, reason)
			VALUES ($1, $2, $3, $4, $5)`,
			e.IndexID, e.Date, e.Action, e.Ticker, e.Reason)
		if err != nil {
			return fmt.Errorf("append rebalance log: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (r *PgRebalanceLogRepository) ExistsOn(ctx context.Context, indexID int64, date time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM rebalance_logs WHERE index_id = $1 AND date = $2)`,
		indexID, date).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check rebalance log: %w", err)
	}
	return exists, nil
}

func (r *PgRebalanceLogRepository) DeleteAll(ctx context.Context, indexID int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM rebalance_logs WHERE index_id = $1`, indexID); err != nil {
		return fmt.Errorf("delete rebalance logs: %w", err)
	}
	return nil
}
