package screening

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantbr/indexa/internal/contracts"
	"github.com/quantbr/indexa/pkg/logger"
)

func f(v float64) *float64 { return &v }

type fakeUniverse struct {
	companies []contracts.Fundamentals
}

func (u *fakeUniverse) Universe(_ context.Context) ([]contracts.Fundamentals, error) {
	return u.companies, nil
}

type fakeValuation struct {
	valuations map[string]contracts.Valuation
}

func (v *fakeValuation) Valuations(_ context.Context, _ []string) (map[string]contracts.Valuation, error) {
	return v.valuations, nil
}

func baseConfig() contracts.IndexConfig {
	return contracts.IndexConfig{
		MaxAssets:          10,
		Weighting:          contracts.WeightEqual,
		UpsideMode:         contracts.UpsideBest,
		RebalanceThreshold: f(0.05),
	}
}

func company(ticker string, price float64) contracts.Fundamentals {
	return contracts.Fundamentals{
		Ticker:        ticker,
		Sector:        "Energia",
		Price:         price,
		MarketCap:     f(50_000_000_000),
		PL:            f(8.5),
		PVP:           f(1.2),
		ROE:           f(18),
		DividendYield: f(6.5),
	}
}

func TestScreener_Screen_RanksByScore(t *testing.T) {
	universe := &fakeUniverse{companies: []contracts.Fundamentals{
		company("PETR4", 38.42),
		company("VALE3", 61.20),
		company("ITUB4", 34.10),
	}}
	valuation := &fakeValuation{valuations: map[string]contracts.Valuation{
		"PETR4": {Upside: f(25), OverallScore: f(72)},
		"VALE3": {Upside: f(18), OverallScore: f(85)},
		"ITUB4": {Upside: f(10), OverallScore: f(72)},
	}}

	screener := NewScreener(universe, valuation, logger.NewNop())
	result, err := screener.Screen(context.Background(), baseConfig())
	require.NoError(t, err)

	require.Equal(t, 3, result.Count())
	assert.Equal(t, "VALE3", result.Candidates[0].Ticker)
	// Equal scores break ties by ticker for reproducible output.
	assert.Equal(t, "ITUB4", result.Candidates[1].Ticker)
	assert.Equal(t, "PETR4", result.Candidates[2].Ticker)
}

func TestScreener_Screen_EmptyResultIsNotAnError(t *testing.T) {
	universe := &fakeUniverse{companies: []contracts.Fundamentals{
		{Ticker: "PETR4", Price: 38.42, PVP: f(2.8)},
		{Ticker: "VALE3", Price: 61.20, PVP: f(1.9)},
	}}

	config := baseConfig()
	config.Filters.PVP = contracts.MetricFilter{Enabled: true, Max: f(1.5)}

	screener := NewScreener(universe, &fakeValuation{}, logger.NewNop())
	result, err := screener.Screen(context.Background(), config)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count())
}

func TestScreener_Screen_MissingMetricFailsEnabledFilter(t *testing.T) {
	universe := &fakeUniverse{companies: []contracts.Fundamentals{
		{Ticker: "XXXX3", Price: 10}, // no PVP reported
	}}

	config := baseConfig()
	config.Filters.PVP = contracts.MetricFilter{Enabled: true, Max: f(1.5)}

	screener := NewScreener(universe, &fakeValuation{}, logger.NewNop())
	result, err := screener.Screen(context.Background(), config)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count())
}

func TestScreener_Screen_FailedScoreKeepsDebugPayload(t *testing.T) {
	universe := &fakeUniverse{companies: []contracts.Fundamentals{company("PETR4", 38.42)}}
	valuation := &fakeValuation{valuations: map[string]contracts.Valuation{
		"PETR4": {}, // service returned nulls
	}}

	screener := NewScreener(universe, valuation, logger.NewNop())
	result, err := screener.Screen(context.Background(), baseConfig())
	require.NoError(t, err)

	require.Equal(t, 1, result.Count())
	candidate := result.Candidates[0]
	assert.NotEmpty(t, candidate.Debug)
	assert.Contains(t, candidate.Debug, "overallScore")
}

func TestScreener_Screen_SectorAllowList(t *testing.T) {
	bank := company("ITUB4", 34.10)
	bank.Sector = "Financeiro"

	universe := &fakeUniverse{companies: []contracts.Fundamentals{
		company("PETR4", 38.42),
		bank,
	}}
	valuation := &fakeValuation{valuations: map[string]contracts.Valuation{
		"ITUB4": {Upside: f(12), OverallScore: f(70)},
	}}

	config := baseConfig()
	config.Sectors = []string{"Financeiro"}

	screener := NewScreener(universe, valuation, logger.NewNop())
	result, err := screener.Screen(context.Background(), config)
	require.NoError(t, err)
	require.Equal(t, 1, result.Count())
	assert.Equal(t, "ITUB4", result.Candidates[0].Ticker)
}

func TestScreener_Screen_SizeBucket(t *testing.T) {
	small := company("SMAL3", 12)
	small.MarketCap = f(1_500_000_000)

	universe := &fakeUniverse{companies: []contracts.Fundamentals{
		company("PETR4", 38.42), // large cap
		small,
	}}
	valuation := &fakeValuation{valuations: map[string]contracts.Valuation{
		"SMAL3": {Upside: f(30), OverallScore: f(61)},
	}}

	config := baseConfig()
	config.SizeBucket = contracts.SizeSmall

	screener := NewScreener(universe, valuation, logger.NewNop())
	result, err := screener.Screen(context.Background(), config)
	require.NoError(t, err)
	require.Equal(t, 1, result.Count())
	assert.Equal(t, "SMAL3", result.Candidates[0].Ticker)
}

func TestScreener_Screen_MaxAssetsCap(t *testing.T) {
	universe := &fakeUniverse{companies: []contracts.Fundamentals{
		company("PETR4", 38.42),
		company("VALE3", 61.20),
		company("ITUB4", 34.10),
	}}
	valuation := &fakeValuation{valuations: map[string]contracts.Valuation{
		"PETR4": {Upside: f(25), OverallScore: f(72)},
		"VALE3": {Upside: f(18), OverallScore: f(85)},
		"ITUB4": {Upside: f(10), OverallScore: f(64)},
	}}

	config := baseConfig()
	config.MaxAssets = 2

	screener := NewScreener(universe, valuation, logger.NewNop())
	result, err := screener.Screen(context.Background(), config)
	require.NoError(t, err)
	require.Equal(t, 2, result.Count())
	assert.Equal(t, "VALE3", result.Candidates[0].Ticker)
	assert.Equal(t, "PETR4", result.Candidates[1].Ticker)
}

func TestScreener_Screen_InvalidConfig(t *testing.T) {
	screener := NewScreener(&fakeUniverse{}, &fakeValuation{}, logger.NewNop())

	config := baseConfig()
	config.MaxAssets = 0

	_, err := screener.Screen(context.Background(), config)
	assert.ErrorContains(t, err, "invalid index config")
}
