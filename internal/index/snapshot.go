package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quantbr/indexa/internal/contracts"
	"github.com/quantbr/indexa/pkg/logger"
)

// ErrNoSnapshot means the index has no history point to restore from.
var ErrNoSnapshot = errors.New("no composition snapshot available")

// SnapshotManager restores the live composition from the snapshot
// embedded in the most recent history point.
type SnapshotManager struct {
	compositions contracts.CompositionRepository
	history      contracts.HistoryRepository
	logger       *logger.Logger
}

// NewSnapshotManager creates a new snapshot manager.
func NewSnapshotManager(compositions contracts.CompositionRepository, history contracts.HistoryRepository, log *logger.Logger) *SnapshotManager {
	return &SnapshotManager{
		compositions: compositions,
		history:      history,
		logger:       log,
	}
}

// LastSnapshot returns the snapshot of the most recent history point
// and its date.
func (s *SnapshotManager) LastSnapshot(ctx context.Context, indexID int64) (*contracts.CompositionSnapshot, time.Time, error) {
	last, err := s.history.LastPoint(ctx, indexID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load last point: %w", err)
	}
	if last == nil || len(last.Snapshot.Assets) == 0 {
		return nil, time.Time{}, ErrNoSnapshot
	}
	return &last.Snapshot, last.Date, nil
}

// RestoreComposition overwrites the live composition verbatim from the
// latest snapshot and discards rebalance log rows dated after it. No
// screening or price refresh runs; the restored state is exactly what
// the snapshot recorded.
func (s *SnapshotManager) RestoreComposition(ctx context.Context, indexID int64) (time.Time, error) {
	snap, snapshotDate, err := s.LastSnapshot(ctx, indexID)
	if err != nil {
		return time.Time{}, err
	}

	if err := s.compositions.RestoreFromSnapshot(ctx, indexID, *snap, snapshotDate); err != nil {
		return time.Time{}, fmt.Errorf("restore composition: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"index_id": indexID,
		"date":     snapshotDate.Format("2006-01-02"),
		"assets":   len(snap.Assets),
	}).Info("Composition restored from snapshot")

	return snapshotDate, nil
}
