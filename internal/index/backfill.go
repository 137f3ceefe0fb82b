package index

import (
	"context"
	"fmt"

	"github.com/quantbr/indexa/internal/contracts"
	"github.com/quantbr/indexa/pkg/logger"
)

// Backfiller fills the gap between the last recorded history point and
// today, oldest first, so every intermediate point chains off a real
// predecessor.
type Backfiller struct {
	calculator *Calculator
	history    contracts.HistoryRepository
	calendar   contracts.MarketCalendar
	logger     *logger.Logger
}

// NewBackfiller creates a new backfiller.
func NewBackfiller(calculator *Calculator, history contracts.HistoryRepository, calendar contracts.MarketCalendar, log *logger.Logger) *Backfiller {
	return &Backfiller{
		calculator: calculator,
		history:    history,
		calendar:   calendar,
		logger:     log,
	}
}

// FillMissingHistory walks trading days from the day after the last
// point up to today and computes each missing point in order. It stops
// at the first day that cannot be priced yet; later days would chain
// off a gap. Returns the number of points written.
func (b *Backfiller) FillMissingHistory(ctx context.Context, indexID int64) (int, error) {
	last, err := b.history.LastPoint(ctx, indexID)
	if err != nil {
		return 0, fmt.Errorf("load last point: %w", err)
	}
	if last == nil {
		// A series is born through recreate, not backfill.
		return 0, nil
	}

	today := b.calendar.Today()
	filled := 0

	for d := last.Date.AddDate(0, 0, 1); !d.After(today); d = d.AddDate(0, 0, 1) {
		if !b.calendar.WasMarketOpen(d) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return filled, err
		}

		existing, err := b.history.PointOn(ctx, indexID, d)
		if err != nil {
			return filled, fmt.Errorf("check point on %s: %w", d.Format("2006-01-02"), err)
		}
		if existing != nil {
			continue
		}

		marked, err := b.calculator.UpdateIndexPoints(ctx, indexID, d, false)
		if err != nil {
			return filled, fmt.Errorf("backfill %s: %w", d.Format("2006-01-02"), err)
		}
		if !marked {
			b.logger.WithFields(map[string]interface{}{
				"index_id": indexID,
				"date":     d.Format("2006-01-02"),
			}).Warn("Backfill stopped at unpriceable day")
			break
		}
		filled++
	}

	if filled > 0 {
		b.logger.WithFields(map[string]interface{}{
			"index_id": indexID,
			"filled":   filled,
		}).Info("History backfilled")
	}
	return filled, nil
}

// PendingDays counts trading days after the last point up to today.
// Zero means the series is current.
func (b *Backfiller) PendingDays(ctx context.Context, indexID int64) (int, error) {
	last, err := b.history.LastPoint(ctx, indexID)
	if err != nil {
		return 0, fmt.Errorf("load last point: %w", err)
	}
	if last == nil {
		return 0, nil
	}

	pending := 0
	today := b.calendar.Today()
	for d := last.Date.AddDate(0, 0, 1); !d.After(today); d = d.AddDate(0, 0, 1) {
		if b.calendar.WasMarketOpen(d) {
			pending++
		}
	}
	return pending, nil
}
