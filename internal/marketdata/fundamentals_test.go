package marketdata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantbr/indexa/internal/external/b3quotes"
	"github.com/quantbr/indexa/pkg/logger"
)

type fakeScreenerFetcher struct {
	rows []b3quotes.CompanyRow
}

func (f *fakeScreenerFetcher) FetchScreenerData(_ context.Context) ([]b3quotes.CompanyRow, error) {
	return f.rows, nil
}

type fakeValuationFetcher struct {
	rows map[string]b3quotes.ValuationRow
}

func (f *fakeValuationFetcher) FetchValuations(_ context.Context, _ []string) (map[string]b3quotes.ValuationRow, error) {
	return f.rows, nil
}

func TestUniverseSource_DropsRowsWithoutTickerOrPrice(t *testing.T) {
	pvp := 1.2
	src := NewUniverseSource(&fakeScreenerFetcher{rows: []b3quotes.CompanyRow{
		{Ticker: "PETR4", Price: 38.42, PVP: &pvp, Sector: "Energia"},
		{Ticker: "", Price: 10},
		{Ticker: "XXXX3", Price: 0},
	}}, logger.NewNop())

	companies, err := src.Universe(context.Background())
	require.NoError(t, err)

	require.Len(t, companies, 1)
	assert.Equal(t, "PETR4", companies[0].Ticker)
	assert.Equal(t, "Energia", companies[0].Sector)
	require.NotNil(t, companies[0].PVP)
	assert.Equal(t, 1.2, *companies[0].PVP)
}

func TestValuationGateway_PassesNullsThrough(t *testing.T) {
	upside := 18.0
	gw := NewValuationGateway(&fakeValuationFetcher{rows: map[string]b3quotes.ValuationRow{
		"VALE3": {Ticker: "VALE3", Upside: &upside},
		"PETR4": {Ticker: "PETR4"}, // model returned nothing usable
	}}, logger.NewNop())

	valuations, err := gw.Valuations(context.Background(), []string{"VALE3", "PETR4"})
	require.NoError(t, err)

	require.Len(t, valuations, 2)
	require.NotNil(t, valuations["VALE3"].Upside)
	assert.Equal(t, 18.0, *valuations["VALE3"].Upside)
	assert.Nil(t, valuations["PETR4"].Upside)
	assert.Nil(t, valuations["PETR4"].OverallScore)
}

func TestValuationGateway_EmptyTickerList(t *testing.T) {
	gw := NewValuationGateway(&fakeValuationFetcher{}, logger.NewNop())

	valuations, err := gw.Valuations(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, valuations)
}
