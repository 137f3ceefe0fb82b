package index

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/quantbr/indexa/internal/contracts"
)

// weekdayCalendar treats Monday through Friday as open. Good enough for
// engine tests that never land on a holiday.
type weekdayCalendar struct {
	today time.Time
}

func (c weekdayCalendar) WasMarketOpen(date time.Time) bool {
	wd := date.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func (c weekdayCalendar) Today() time.Time { return c.today }

type memHistory struct {
	points map[string]contracts.HistoryPoint // keyed by date
}

func newMemHistory() *memHistory {
	return &memHistory{points: map[string]contracts.HistoryPoint{}}
}

func dateKey(d time.Time) string { return d.Format("2006-01-02") }

func (m *memHistory) sortedDates() []time.Time {
	dates := make([]time.Time, 0, len(m.points))
	for _, p := range m.points {
		dates = append(dates, p.Date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func (m *memHistory) LastPoint(_ context.Context, _ int64) (*contracts.HistoryPoint, error) {
	dates := m.sortedDates()
	if len(dates) == 0 {
		return nil, nil
	}
	p := m.points[dateKey(dates[len(dates)-1])]
	return &p, nil
}

func (m *memHistory) LastPointBefore(_ context.Context, _ int64, date time.Time) (*contracts.HistoryPoint, error) {
	var found *contracts.HistoryPoint
	for _, d := range m.sortedDates() {
		if d.Before(date) {
			p := m.points[dateKey(d)]
			found = &p
		}
	}
	return found, nil
}

func (m *memHistory) PointOn(_ context.Context, _ int64, date time.Time) (*contracts.HistoryPoint, error) {
	if p, ok := m.points[dateKey(date)]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *memHistory) Insert(_ context.Context, point contracts.HistoryPoint) error {
	key := dateKey(point.Date)
	if _, exists := m.points[key]; exists {
		return nil
	}
	m.points[key] = point
	return nil
}

func (m *memHistory) Overwrite(_ context.Context, point contracts.HistoryPoint) error {
	m.points[dateKey(point.Date)] = point
	return nil
}

func (m *memHistory) DeleteAll(_ context.Context, _ int64) error {
	m.points = map[string]contracts.HistoryPoint{}
	return nil
}

type memLogs struct {
	entries []contracts.RebalanceLogEntry
}

func (m *memLogs) Append(_ context.Context, entries []contracts.RebalanceLogEntry) error {
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memLogs) ExistsOn(_ context.Context, indexID int64, date time.Time) (bool, error) {
	for _, e := range m.entries {
		if e.IndexID == indexID && dateKey(e.Date) == dateKey(date) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memLogs) DeleteAll(_ context.Context, _ int64) error {
	m.entries = nil
	return nil
}

type memComposition struct {
	assets []contracts.CompositionAsset
	logs   *memLogs
}

func (m *memComposition) Get(_ context.Context, _ int64) ([]contracts.CompositionAsset, error) {
	out := make([]contracts.CompositionAsset, len(m.assets))
	copy(out, m.assets)
	return out, nil
}

func (m *memComposition) Replace(ctx context.Context, _ int64, assets []contracts.CompositionAsset, logs []contracts.RebalanceLogEntry) error {
	m.assets = make([]contracts.CompositionAsset, len(assets))
	copy(m.assets, assets)
	if m.logs != nil {
		return m.logs.Append(ctx, logs)
	}
	return nil
}

func (m *memComposition) RestoreFromSnapshot(_ context.Context, indexID int64, snap contracts.CompositionSnapshot, snapshotDate time.Time) error {
	m.assets = snap.ToComposition(indexID)
	if m.logs != nil {
		kept := m.logs.entries[:0]
		for _, e := range m.logs.entries {
			if !e.Date.After(snapshotDate) {
				kept = append(kept, e)
			}
		}
		m.logs.entries = kept
	}
	return nil
}

// fakePrices serves closes keyed by "TICKER:2006-01-02"; lookups walk
// back up to ten days like the real gateway.
type fakePrices struct {
	closes map[string]float64
	latest map[string]contracts.PriceQuote
}

func (f *fakePrices) LatestPrices(_ context.Context, tickers []string) (map[string]contracts.PriceQuote, error) {
	out := make(map[string]contracts.PriceQuote)
	for _, t := range tickers {
		if q, ok := f.latest[t]; ok {
			out[t] = q
		}
	}
	return out, nil
}

func (f *fakePrices) ClosePriceOnOrBefore(_ context.Context, ticker string, date time.Time) (float64, bool, error) {
	for i := 0; i < 10; i++ {
		d := date.AddDate(0, 0, -i)
		if price, ok := f.closes[ticker+":"+dateKey(d)]; ok {
			return price, true, nil
		}
	}
	return 0, false, nil
}

type fakeDividends struct {
	events []contracts.DividendEvent
}

func (f *fakeDividends) DividendsOn(_ context.Context, tickers []string, date time.Time) ([]contracts.DividendEvent, error) {
	allowed := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		allowed[t] = true
	}
	var out []contracts.DividendEvent
	for _, ev := range f.events {
		if allowed[ev.Ticker] && dateKey(ev.ExDate) == dateKey(date) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeDividends) DividendsAfter(_ context.Context, tickers []string, after time.Time) ([]contracts.DividendEvent, error) {
	allowed := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		allowed[t] = true
	}
	var out []contracts.DividendEvent
	for _, ev := range f.events {
		if allowed[ev.Ticker] && ev.ExDate.After(after) && dateKey(ev.ExDate) != dateKey(after) {
			out = append(out, ev)
		}
	}
	return out, nil
}

type memCheckpoints struct {
	byKey map[string]contracts.Checkpoint
}

func newMemCheckpoints() *memCheckpoints {
	return &memCheckpoints{byKey: map[string]contracts.Checkpoint{}}
}

func checkpointKey(jobType contracts.JobType, indexID *int64) string {
	if indexID == nil {
		return string(jobType) + ":global"
	}
	return string(jobType) + ":" + strconv.FormatInt(*indexID, 10)
}

func (m *memCheckpoints) Get(_ context.Context, jobType contracts.JobType, indexID *int64) (*contracts.Checkpoint, error) {
	if cp, ok := m.byKey[checkpointKey(jobType, indexID)]; ok {
		return &cp, nil
	}
	return nil, nil
}

func (m *memCheckpoints) Upsert(_ context.Context, cp contracts.Checkpoint) error {
	m.byKey[checkpointKey(cp.JobType, cp.IndexID)] = cp
	return nil
}
