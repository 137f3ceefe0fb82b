package contracts

import (
	"math"
	"sort"
	"time"
)

// BasePoints is the level every index starts at.
const BasePoints = 100.0

// IndexDefinition is the identity and rule set of a theoretical portfolio.
type IndexDefinition struct {
	ID        int64       `json:"id"`
	Ticker    string      `json:"ticker"`
	Name      string      `json:"name"`
	Config    IndexConfig `json:"config"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// CompositionAsset is one row of the live composition of an index.
type CompositionAsset struct {
	IndexID      int64     `json:"index_id"`
	Ticker       string    `json:"ticker"`
	TargetWeight float64   `json:"target_weight"`
	EntryPrice   float64   `json:"entry_price"`
	EntryDate    time.Time `json:"entry_date"`
}

// HistoryPoint is one immutable row of the daily point series.
// At most one row exists per (index, date).
type HistoryPoint struct {
	IndexID           int64               `json:"index_id"`
	Date              time.Time           `json:"date"`
	Points            float64             `json:"points"`
	DailyChange       float64             `json:"daily_change"`
	CurrentYield      float64             `json:"current_yield"`
	DividendsReceived float64             `json:"dividends_received"`
	DividendsByTicker map[string]float64  `json:"dividends_by_ticker"`
	Snapshot          CompositionSnapshot `json:"composition_snapshot"`
}

// SnapshotAsset is a frozen copy of one composition row at computation time.
type SnapshotAsset struct {
	Ticker     string    `json:"ticker"`
	Weight     float64   `json:"weight"`
	Price      float64   `json:"price"`
	EntryPrice float64   `json:"entry_price"`
	EntryDate  time.Time `json:"entry_date"`
}

// CompositionSnapshot is the full composition embedded in a history point.
// It is what makes restore deterministic without replaying rebalances.
type CompositionSnapshot struct {
	Assets []SnapshotAsset `json:"assets"`
}

// RebalanceAction classifies a rebalance log entry.
type RebalanceAction string

const (
	ActionEntry     RebalanceAction = "ENTRY"
	ActionExit      RebalanceAction = "EXIT"
	ActionRebalance RebalanceAction = "REBALANCE"
)

// RebalanceLogEntry is one append-only audit row. Synthetic "no change"
// entries use ActionRebalance with an empty ticker.
type RebalanceLogEntry struct {
	IndexID int64           `json:"index_id"`
	Date    time.Time       `json:"date"`
	Action  RebalanceAction `json:"action"`
	Ticker  string          `json:"ticker"`
	Reason  string          `json:"reason"`
}

// SnapshotFromComposition freezes the current composition together with
// each asset's price at snapshot time. Assets are ordered by ticker so
// snapshots of identical state are byte-identical.
func SnapshotFromComposition(assets []CompositionAsset, prices map[string]float64) CompositionSnapshot {
	snap := CompositionSnapshot{Assets: make([]SnapshotAsset, 0, len(assets))}
	for _, a := range assets {
		snap.Assets = append(snap.Assets, SnapshotAsset{
			Ticker:     a.Ticker,
			Weight:     a.TargetWeight,
			Price:      prices[a.Ticker],
			EntryPrice: a.EntryPrice,
			EntryDate:  a.EntryDate,
		})
	}
	sort.Slice(snap.Assets, func(i, j int) bool {
		return snap.Assets[i].Ticker < snap.Assets[j].Ticker
	})
	return snap
}

// ToComposition reconstructs composition rows from a snapshot, verbatim.
func (s CompositionSnapshot) ToComposition(indexID int64) []CompositionAsset {
	assets := make([]CompositionAsset, 0, len(s.Assets))
	for _, a := range s.Assets {
		assets = append(assets, CompositionAsset{
			IndexID:      indexID,
			Ticker:       a.Ticker,
			TargetWeight: a.Weight,
			EntryPrice:   a.EntryPrice,
			EntryDate:    a.EntryDate,
		})
	}
	return assets
}

// TotalWeight sums target weights of a composition.
func TotalWeight(assets []CompositionAsset) float64 {
	sum := 0.0
	for _, a := range assets {
		sum += a.TargetWeight
	}
	return sum
}

// NormalizeWeights rescales target weights so they sum to exactly 1.0.
// A composition whose weights sum to zero is left untouched.
func NormalizeWeights(assets []CompositionAsset) {
	sum := TotalWeight(assets)
	if sum == 0 {
		return
	}
	for i := range assets {
		assets[i].TargetWeight /= sum
	}
}

// WeightsBalanced reports whether weights sum to 1.0 within epsilon.
func WeightsBalanced(assets []CompositionAsset, epsilon float64) bool {
	return math.Abs(TotalWeight(assets)-1.0) <= epsilon
}
