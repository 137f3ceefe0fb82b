package index

import (
	"context"
	"fmt"
	"time"

	"github.com/quantbr/indexa/internal/contracts"
	"github.com/quantbr/indexa/pkg/logger"
)

// Calculator marks an index to market: one immutable history point per
// trading day, chained multiplicatively off the previous point.
type Calculator struct {
	compositions contracts.CompositionRepository
	history      contracts.HistoryRepository
	prices       contracts.PriceGateway
	dividends    contracts.DividendGateway
	calendar     contracts.MarketCalendar
	logger       *logger.Logger
}

// NewCalculator creates a new mark-to-market calculator.
func NewCalculator(
	compositions contracts.CompositionRepository,
	history contracts.HistoryRepository,
	prices contracts.PriceGateway,
	dividends contracts.DividendGateway,
	calendar contracts.MarketCalendar,
	log *logger.Logger,
) *Calculator {
	return &Calculator{
		compositions: compositions,
		history:      history,
		prices:       prices,
		dividends:    dividends,
		calendar:     calendar,
		logger:       log,
	}
}

// UpdateIndexPoints computes and persists the point for one date.
//
// Returns (true, nil) when the point exists after the call, either
// freshly written or already present. Returns (false, nil) when no
// asset could be priced; the day stays open for a later retry. With
// recompute set the existing point is overwritten instead of kept.
func (c *Calculator) UpdateIndexPoints(ctx context.Context, indexID int64, date time.Time, recompute bool) (bool, error) {
	if !c.calendar.WasMarketOpen(date) {
		return false, fmt.Errorf("mark index %d on %s: %w", indexID, date.Format("2006-01-02"), contracts.ErrMarketClosed)
	}

	existing, err := c.history.PointOn(ctx, indexID, date)
	if err != nil {
		return false, fmt.Errorf("check existing point: %w", err)
	}
	if existing != nil && !recompute {
		return true, nil
	}

	assets, err := c.compositions.Get(ctx, indexID)
	if err != nil {
		return false, fmt.Errorf("load composition: %w", err)
	}
	if len(assets) == 0 {
		c.logger.WithField("index_id", indexID).Warn("Empty composition, nothing to mark")
		return false, nil
	}

	prev, err := c.history.LastPointBefore(ctx, indexID, date)
	if err != nil {
		return false, fmt.Errorf("load previous point: %w", err)
	}

	point, ok, err := c.computePoint(ctx, indexID, date, assets, prev)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if recompute && existing != nil {
		err = c.history.Overwrite(ctx, *point)
	} else {
		err = c.history.Insert(ctx, *point)
	}
	if err != nil {
		return false, fmt.Errorf("persist history point: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"index_id": indexID,
		"date":     date.Format("2006-01-02"),
		"points":   point.Points,
		"change":   point.DailyChange,
	}).Info("Index marked to market")

	return true, nil
}

// computePoint prices every asset at the target date and chains the
// weighted return onto the previous point. Assets without a resolvable
// price on either leg are excluded from the day's return; a day where
// nothing prices reports ok=false instead of writing a distorted point.
func (c *Calculator) computePoint(ctx context.Context, indexID int64, date time.Time, assets []contracts.CompositionAsset, prev *contracts.HistoryPoint) (*contracts.HistoryPoint, bool, error) {
	tickers := make([]string, 0, len(assets))
	for _, a := range assets {
		tickers = append(tickers, a.Ticker)
	}

	closesToday := make(map[string]float64, len(assets))
	for _, a := range assets {
		price, ok, err := c.prices.ClosePriceOnOrBefore(ctx, a.Ticker, date)
		if err != nil {
			return nil, false, fmt.Errorf("close price %s: %w", a.Ticker, err)
		}
		if ok && price > 0 {
			closesToday[a.Ticker] = price
		}
	}
	if len(closesToday) == 0 {
		c.logger.WithFields(map[string]interface{}{
			"index_id": indexID,
			"date":     date.Format("2006-01-02"),
		}).Warn("No asset could be priced, point deferred")
		return nil, false, nil
	}

	// First point of a fresh series anchors the base level exactly.
	if prev == nil {
		return &contracts.HistoryPoint{
			IndexID:           indexID,
			Date:              date,
			Points:            contracts.BasePoints,
			DailyChange:       0,
			DividendsReceived: 0,
			DividendsByTicker: map[string]float64{},
			Snapshot:          contracts.SnapshotFromComposition(assets, closesToday),
		}, true, nil
	}

	events, err := c.dividends.DividendsOn(ctx, tickers, date)
	if err != nil {
		return nil, false, fmt.Errorf("load dividends: %w", err)
	}
	dividendPerShare := make(map[string]float64, len(events))
	for _, ev := range events {
		dividendPerShare[ev.Ticker] += ev.Amount
	}

	// Total-return chaining: R = sum_i w_i * ((p_t - p_prev) + div) / p_prev
	// over the priced assets. The dividend leg is also accumulated as a
	// points-equivalent ledger for reporting.
	weightedReturn := 0.0
	dividendReturn := 0.0
	dividendsByTicker := copyLedger(prev.DividendsByTicker)

	for _, a := range assets {
		priceToday, ok := closesToday[a.Ticker]
		if !ok {
			continue
		}
		pricePrev, ok, err := c.prices.ClosePriceOnOrBefore(ctx, a.Ticker, prev.Date)
		if err != nil {
			return nil, false, fmt.Errorf("previous close %s: %w", a.Ticker, err)
		}
		if !ok || pricePrev <= 0 {
			continue
		}

		weightedReturn += a.TargetWeight * (priceToday - pricePrev) / pricePrev

		if div := dividendPerShare[a.Ticker]; div > 0 {
			assetDivReturn := a.TargetWeight * div / pricePrev
			weightedReturn += assetDivReturn
			dividendReturn += assetDivReturn
			dividendsByTicker[a.Ticker] += assetDivReturn * prev.Points
		}
	}

	points := prev.Points * (1 + weightedReturn)
	dividendsReceived := prev.DividendsReceived + dividendReturn*prev.Points

	point := &contracts.HistoryPoint{
		IndexID:           indexID,
		Date:              date,
		Points:            points,
		DailyChange:       weightedReturn * 100,
		DividendsReceived: dividendsReceived,
		DividendsByTicker: dividendsByTicker,
		Snapshot:          contracts.SnapshotFromComposition(assets, closesToday),
	}
	if points > 0 {
		point.CurrentYield = dividendsReceived / points * 100
	}
	return point, true, nil
}

func copyLedger(src map[string]float64) map[string]float64 {
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
