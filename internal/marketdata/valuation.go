package marketdata

import (
	"context"
	"fmt"

	"github.com/quantbr/indexa/internal/contracts"
	"github.com/quantbr/indexa/internal/external/b3quotes"
	"github.com/quantbr/indexa/pkg/logger"
)

// ValuationFetcher is the slice of the provider client the valuation
// gateway needs.
type ValuationFetcher interface {
	FetchValuations(ctx context.Context, tickers []string) (map[string]b3quotes.ValuationRow, error)
}

// ValuationGateway implements contracts.ValuationService over the
// provider's fair-value model. The model is a black box; nil fields
// pass through untouched so the screener can record the gap.
type ValuationGateway struct {
	fetcher ValuationFetcher
	logger  *logger.Logger
}

// NewValuationGateway creates a new valuation gateway.
func NewValuationGateway(fetcher ValuationFetcher, log *logger.Logger) *ValuationGateway {
	return &ValuationGateway{fetcher: fetcher, logger: log}
}

func (g *ValuationGateway) Valuations(ctx context.Context, tickers []string) (map[string]contracts.Valuation, error) {
	if len(tickers) == 0 {
		return map[string]contracts.Valuation{}, nil
	}

	rows, err := g.fetcher.FetchValuations(ctx, tickers)
	if err != nil {
		return nil, fmt.Errorf("fetch valuations: %w", err)
	}

	result := make(map[string]contracts.Valuation, len(rows))
	for ticker, row := range rows {
		result[ticker] = contracts.Valuation{
			FairValue:    row.FairValue,
			Upside:       row.Upside,
			OverallScore: row.OverallScore,
		}
	}
	return result, nil
}
