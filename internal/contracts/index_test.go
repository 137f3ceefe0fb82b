package contracts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeWeights(t *testing.T) {
	assets := []CompositionAsset{
		{Ticker: "PETR4", TargetWeight: 0.5},
		{Ticker: "VALE3", TargetWeight: 0.3},
		{Ticker: "ITUB4", TargetWeight: 0.3},
	}

	NormalizeWeights(assets)

	assert.InDelta(t, 1.0, TotalWeight(assets), 1e-9)
	assert.InDelta(t, 0.5/1.1, assets[0].TargetWeight, 1e-9)
	assert.True(t, WeightsBalanced(assets, 0.001))
}

func TestNormalizeWeights_ZeroSum(t *testing.T) {
	assets := []CompositionAsset{
		{Ticker: "PETR4", TargetWeight: 0},
	}

	NormalizeWeights(assets)

	assert.Equal(t, 0.0, assets[0].TargetWeight)
}

func TestSnapshotRoundTrip(t *testing.T) {
	entryDate := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	assets := []CompositionAsset{
		{IndexID: 7, Ticker: "VALE3", TargetWeight: 0.4, EntryPrice: 61.20, EntryDate: entryDate},
		{IndexID: 7, Ticker: "PETR4", TargetWeight: 0.6, EntryPrice: 38.10, EntryDate: entryDate},
	}
	prices := map[string]float64{"PETR4": 40.0, "VALE3": 59.5}

	snap := SnapshotFromComposition(assets, prices)

	// Snapshot assets are ordered by ticker for reproducibility.
	require.Len(t, snap.Assets, 2)
	assert.Equal(t, "PETR4", snap.Assets[0].Ticker)
	assert.Equal(t, "VALE3", snap.Assets[1].Ticker)
	assert.InDelta(t, 40.0, snap.Assets[0].Price, 1e-9)

	restored := snap.ToComposition(7)
	require.Len(t, restored, 2)
	assert.Equal(t, "PETR4", restored[0].Ticker)
	assert.InDelta(t, 0.6, restored[0].TargetWeight, 1e-9)
	assert.InDelta(t, 38.10, restored[0].EntryPrice, 1e-9)
	assert.Equal(t, entryDate, restored[0].EntryDate)
}
