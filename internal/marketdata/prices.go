package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/quantbr/indexa/internal/contracts"
	"github.com/quantbr/indexa/internal/external/b3quotes"
	"github.com/quantbr/indexa/pkg/logger"
	"github.com/quantbr/indexa/pkg/redis"
)

// QuotesFetcher is the slice of the provider client the price gateway needs.
type QuotesFetcher interface {
	FetchQuote(ctx context.Context, ticker string) (*b3quotes.Quote, error)
	FetchDailyCloses(ctx context.Context, ticker string, from, to time.Time) ([]b3quotes.DailyClose, error)
}

// PriceGateway implements contracts.PriceGateway over the provider
// client with a Redis read-through cache. Daily closes are cached for a
// day; they are immutable once published.
type PriceGateway struct {
	fetcher QuotesFetcher
	cache   *redis.Cache
	logger  *logger.Logger
}

// NewPriceGateway creates a new price gateway.
func NewPriceGateway(fetcher QuotesFetcher, cache *redis.Cache, log *logger.Logger) *PriceGateway {
	return &PriceGateway{
		fetcher: fetcher,
		cache:   cache,
		logger:  log,
	}
}

// LatestPrices resolves latest quotes for a ticker set. Tickers the
// provider cannot resolve are absent from the result, not an error.
func (g *PriceGateway) LatestPrices(ctx context.Context, tickers []string) (map[string]contracts.PriceQuote, error) {
	result := make(map[string]contracts.PriceQuote, len(tickers))

	for _, ticker := range tickers {
		var cached contracts.PriceQuote
		if found, _ := g.cache.Get(ctx, redis.QuoteKey(ticker), &cached); found {
			result[ticker] = cached
			continue
		}

		quote, err := g.fetcher.FetchQuote(ctx, ticker)
		if err != nil {
			g.logger.WithFields(map[string]interface{}{
				"ticker": ticker,
				"error":  err.Error(),
			}).Warn("Could not resolve latest price")
			continue
		}

		pq := contracts.PriceQuote{Price: quote.Price, AsOf: quote.AsOf}
		result[ticker] = pq
		_ = g.cache.Set(ctx, redis.QuoteKey(ticker), pq, redis.TTLQuote)
	}

	return result, nil
}

// ClosePriceOnOrBefore returns the close price for the most recent
// trading day at or before date.
func (g *PriceGateway) ClosePriceOnOrBefore(ctx context.Context, ticker string, date time.Time) (float64, bool, error) {
	key := redis.ClosePriceKey(ticker, date.Format("2006-01-02"))

	var cached float64
	if found, _ := g.cache.Get(ctx, key, &cached); found {
		return cached, true, nil
	}

	// Look back far enough to cover holiday streaks.
	from := date.AddDate(0, 0, -10)
	closes, err := g.fetcher.FetchDailyCloses(ctx, ticker, from, date)
	if err != nil {
		return 0, false, fmt.Errorf("fetch closes for %s: %w", ticker, err)
	}

	var best *b3quotes.DailyClose
	for i := range closes {
		cl := closes[i]
		if cl.Date.After(date) {
			continue
		}
		if best == nil || cl.Date.After(best.Date) {
			best = &closes[i]
		}
	}

	if best == nil {
		return 0, false, nil
	}

	_ = g.cache.Set(ctx, key, best.Close, redis.TTLClose)
	return best.Close, true, nil
}
