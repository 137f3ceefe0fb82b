package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/quantbr/indexa/internal/contracts"
	"github.com/quantbr/indexa/pkg/logger"
)

// Weight changes below this are treated as noise, not a rebalance.
const weightChangeEpsilon = 0.001

// Change is one line of a composition diff.
type Change struct {
	Action    contracts.RebalanceAction
	Ticker    string
	Reason    string
	OldWeight float64
	NewWeight float64
}

// CompositionManager mutates the live composition of an index and keeps
// the audit trail paired with every mutation.
type CompositionManager struct {
	compositions contracts.CompositionRepository
	logger       *logger.Logger
}

// NewCompositionManager creates a new composition manager.
func NewCompositionManager(compositions contracts.CompositionRepository, log *logger.Logger) *CompositionManager {
	return &CompositionManager{compositions: compositions, logger: log}
}

// BuildTargetComposition turns ranked candidates into a weighted target.
// Tickers already in the current composition keep their original entry
// price and entry date; new tickers enter at the candidate's current
// price on the given date.
func BuildTargetComposition(indexID int64, candidates []contracts.Candidate, current []contracts.CompositionAsset, weighting contracts.WeightingScheme, date time.Time) []contracts.CompositionAsset {
	existing := make(map[string]contracts.CompositionAsset, len(current))
	for _, a := range current {
		existing[a.Ticker] = a
	}

	assets := make([]contracts.CompositionAsset, 0, len(candidates))
	for _, c := range candidates {
		asset := contracts.CompositionAsset{
			IndexID:      indexID,
			Ticker:       c.Ticker,
			TargetWeight: rawWeight(c, weighting),
			EntryPrice:   c.CurrentPrice,
			EntryDate:    date,
		}
		if prev, ok := existing[c.Ticker]; ok {
			asset.EntryPrice = prev.EntryPrice
			asset.EntryDate = prev.EntryDate
		}
		assets = append(assets, asset)
	}

	contracts.NormalizeWeights(assets)
	sort.Slice(assets, func(i, j int) bool { return assets[i].Ticker < assets[j].Ticker })
	return assets
}

func rawWeight(c contracts.Candidate, weighting contracts.WeightingScheme) float64 {
	if weighting == contracts.WeightByScore && c.OverallScore > 0 {
		return c.OverallScore
	}
	return 1.0
}

// CompareComposition diffs the current composition against the target.
// Exits of quality-rejected tickers carry the rejection reason. The
// result is ordered by action (entries, exits, reweights) then ticker.
func CompareComposition(current, target []contracts.CompositionAsset, rejectionReasons map[string]string) []Change {
	currentByTicker := make(map[string]contracts.CompositionAsset, len(current))
	for _, a := range current {
		currentByTicker[a.Ticker] = a
	}
	targetByTicker := make(map[string]contracts.CompositionAsset, len(target))
	for _, a := range target {
		targetByTicker[a.Ticker] = a
	}

	var entries, exits, reweights []Change

	for _, a := range target {
		prev, held := currentByTicker[a.Ticker]
		if !held {
			entries = append(entries, Change{
				Action:    contracts.ActionEntry,
				Ticker:    a.Ticker,
				Reason:    fmt.Sprintf("entrada na carteira com peso %.2f%%", a.TargetWeight*100),
				NewWeight: a.TargetWeight,
			})
			continue
		}
		if math.Abs(a.TargetWeight-prev.TargetWeight) > weightChangeEpsilon {
			reweights = append(reweights, Change{
				Action:    contracts.ActionRebalance,
				Ticker:    a.Ticker,
				Reason:    fmt.Sprintf("peso ajustado de %.2f%% para %.2f%%", prev.TargetWeight*100, a.TargetWeight*100),
				OldWeight: prev.TargetWeight,
				NewWeight: a.TargetWeight,
			})
		}
	}

	for _, a := range current {
		if _, kept := targetByTicker[a.Ticker]; kept {
			continue
		}
		reason := "removida da carteira: não atende mais aos critérios do índice"
		if r, ok := rejectionReasons[a.Ticker]; ok {
			reason = "removida da carteira: " + r
		}
		exits = append(exits, Change{
			Action:    contracts.ActionExit,
			Ticker:    a.Ticker,
			Reason:    reason,
			OldWeight: a.TargetWeight,
		})
	}

	sortChanges(entries)
	sortChanges(exits)
	sortChanges(reweights)

	changes := make([]Change, 0, len(entries)+len(exits)+len(reweights))
	changes = append(changes, entries...)
	changes = append(changes, exits...)
	changes = append(changes, reweights...)
	return changes
}

func sortChanges(changes []Change) {
	sort.Slice(changes, func(i, j int) bool { return changes[i].Ticker < changes[j].Ticker })
}

// UpdateComposition replaces the composition with the target and writes
// one audit row per change, all in a single transaction. Weights are
// normalized before the write so the invariant sum == 1.0 holds.
func (m *CompositionManager) UpdateComposition(ctx context.Context, indexID int64, target []contracts.CompositionAsset, changes []Change, date time.Time) error {
	contracts.NormalizeWeights(target)

	logs := make([]contracts.RebalanceLogEntry, 0, len(changes))
	for _, ch := range changes {
		logs = append(logs, contracts.RebalanceLogEntry{
			IndexID: indexID,
			Date:    date,
			Action:  ch.Action,
			Ticker:  ch.Ticker,
			Reason:  ch.Reason,
		})
	}

	if err := m.compositions.Replace(ctx, indexID, target, logs); err != nil {
		return fmt.Errorf("replace composition: %w", err)
	}

	m.logger.WithFields(map[string]interface{}{
		"index_id": indexID,
		"assets":   len(target),
		"changes":  len(changes),
	}).Info("Composition updated")

	return nil
}
