package contracts

import (
	"context"
	"errors"
	"time"
)

// ErrMarketClosed is returned when a rebalance or screening run is
// attempted on a non-trading day. It is an explicit constraint
// violation, distinct from "nothing to do".
var ErrMarketClosed = errors.New("market closed on requested date")

// MarketCalendar answers trading-day questions in the exchange's
// local timezone.
type MarketCalendar interface {
	WasMarketOpen(date time.Time) bool
	Today() time.Time
}

// PriceQuote is a latest-price observation.
type PriceQuote struct {
	Price float64   `json:"price"`
	AsOf  time.Time `json:"as_of"`
}

// PriceGateway supplies latest and historical close prices.
type PriceGateway interface {
	// LatestPrices returns quotes for the tickers it can resolve.
	// Missing tickers are absent from the map, not an error.
	LatestPrices(ctx context.Context, tickers []string) (map[string]PriceQuote, error)

	// ClosePriceOnOrBefore returns the close price for the most recent
	// trading day at or before date. ok is false when no price exists.
	ClosePriceOnOrBefore(ctx context.Context, ticker string, date time.Time) (price float64, ok bool, err error)
}

// DividendEvent is a per-share cash dividend with its ex-date.
type DividendEvent struct {
	Ticker string    `json:"ticker"`
	ExDate time.Time `json:"ex_date"`
	Amount float64   `json:"amount"` // per share, BRL
}

// DividendGateway supplies dividend events for the income term of the
// mark-to-market calculation.
type DividendGateway interface {
	// DividendsOn returns events whose ex-date falls on date.
	DividendsOn(ctx context.Context, tickers []string, date time.Time) ([]DividendEvent, error)

	// DividendsAfter returns events whose ex-date falls strictly after
	// the given day, oldest first. These are the dividends not yet
	// folded into a point computed on that day.
	DividendsAfter(ctx context.Context, tickers []string, after time.Time) ([]DividendEvent, error)
}

// ValuationService is the platform's fair-value/score engine, treated
// as a black box returning numeric fields or nil.
type ValuationService interface {
	Valuations(ctx context.Context, tickers []string) (map[string]Valuation, error)
}

// FundamentalsSource supplies the investable universe with fundamentals.
type FundamentalsSource interface {
	Universe(ctx context.Context) ([]Fundamentals, error)
}
