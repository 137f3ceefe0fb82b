package marketdata

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/quantbr/indexa/internal/contracts"
	"github.com/quantbr/indexa/internal/external/b3quotes"
	"github.com/quantbr/indexa/pkg/logger"
)

// DividendsFetcher is the slice of the provider client the dividend
// gateway needs.
type DividendsFetcher interface {
	FetchDividends(ctx context.Context, ticker string) ([]b3quotes.Dividend, error)
}

// DividendGateway implements contracts.DividendGateway over the
// provider's dividend table.
type DividendGateway struct {
	fetcher DividendsFetcher
	logger  *logger.Logger
}

// NewDividendGateway creates a new dividend gateway.
func NewDividendGateway(fetcher DividendsFetcher, log *logger.Logger) *DividendGateway {
	return &DividendGateway{fetcher: fetcher, logger: log}
}

// DividendsOn returns events whose ex-date falls on date.
func (g *DividendGateway) DividendsOn(ctx context.Context, tickers []string, date time.Time) ([]contracts.DividendEvent, error) {
	var events []contracts.DividendEvent

	for _, ticker := range tickers {
		dividends, err := g.fetcher.FetchDividends(ctx, ticker)
		if err != nil {
			return nil, fmt.Errorf("fetch dividends for %s: %w", ticker, err)
		}

		for _, div := range dividends {
			if sameDay(div.ExDate, date) {
				events = append(events, contracts.DividendEvent{
					Ticker: ticker,
					ExDate: div.ExDate,
					Amount: div.Amount,
				})
			}
		}
	}

	return events, nil
}

// DividendsAfter returns events whose ex-date falls strictly after the
// given day, ordered by ex-date then ticker.
func (g *DividendGateway) DividendsAfter(ctx context.Context, tickers []string, after time.Time) ([]contracts.DividendEvent, error) {
	var events []contracts.DividendEvent

	for _, ticker := range tickers {
		dividends, err := g.fetcher.FetchDividends(ctx, ticker)
		if err != nil {
			return nil, fmt.Errorf("fetch dividends for %s: %w", ticker, err)
		}

		for _, div := range dividends {
			if div.ExDate.After(after) && !sameDay(div.ExDate, after) {
				events = append(events, contracts.DividendEvent{
					Ticker: ticker,
					ExDate: div.ExDate,
					Amount: div.Amount,
				})
			}
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].ExDate.Equal(events[j].ExDate) {
			return events[i].ExDate.Before(events[j].ExDate)
		}
		return events[i].Ticker < events[j].Ticker
	})
	return events, nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
