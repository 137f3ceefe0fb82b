package marketdata

import (
	"context"
	"fmt"

	"github.com/quantbr/indexa/internal/contracts"
	"github.com/quantbr/indexa/internal/external/b3quotes"
	"github.com/quantbr/indexa/pkg/logger"
)

// ScreenerFetcher is the slice of the provider client the universe
// source needs.
type ScreenerFetcher interface {
	FetchScreenerData(ctx context.Context) ([]b3quotes.CompanyRow, error)
}

// UniverseSource implements contracts.FundamentalsSource over the
// provider's screener dump.
type UniverseSource struct {
	fetcher ScreenerFetcher
	logger  *logger.Logger
}

// NewUniverseSource creates a new universe source.
func NewUniverseSource(fetcher ScreenerFetcher, log *logger.Logger) *UniverseSource {
	return &UniverseSource{fetcher: fetcher, logger: log}
}

// Universe returns the investable universe with fundamentals. Rows
// without a ticker or a positive price are dropped here so the
// screening layer never sees them.
func (s *UniverseSource) Universe(ctx context.Context) ([]contracts.Fundamentals, error) {
	rows, err := s.fetcher.FetchScreenerData(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch universe: %w", err)
	}

	companies := make([]contracts.Fundamentals, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		if row.Ticker == "" || row.Price <= 0 {
			dropped++
			continue
		}
		companies = append(companies, contracts.Fundamentals{
			Ticker:        row.Ticker,
			Sector:        row.Sector,
			Industry:      row.Industry,
			Price:         row.Price,
			MarketCap:     row.MarketCap,
			PL:            row.PL,
			PVP:           row.PVP,
			ROE:           row.ROE,
			DividendYield: row.DividendYield,
			RevenueGrowth: row.RevenueGrowth,
			NetMargin:     row.NetMargin,
			NetDebtEBITDA: row.NetDebtEBITDA,
			Liquidity:     row.Liquidity,
		})
	}

	if dropped > 0 {
		s.logger.WithField("dropped", dropped).Warn("Universe rows without ticker or price dropped")
	}
	return companies, nil
}
