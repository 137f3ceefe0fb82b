package b3quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/quantbr/indexa/pkg/httputil"
	"github.com/quantbr/indexa/pkg/logger"
)

// Client fetches B3 quotes, daily closes and dividend events from the
// market data provider. All provider I/O lives in this package.
type Client struct {
	httpClient *httputil.Client
	baseURL    string
	logger     *logger.Logger
}

// NewClient creates a new provider client.
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     log,
	}
}

// Quote is a latest-price observation from the provider.
type Quote struct {
	Ticker string    `json:"ticker"`
	Price  float64   `json:"price"`
	AsOf   time.Time `json:"asOf"`
}

// DailyClose is one historical close price.
type DailyClose struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Dividend is a per-share cash event published by the provider.
type Dividend struct {
	Ticker string
	ExDate time.Time
	Amount float64
}

// FetchQuote fetches the latest quote for a ticker.
func (c *Client) FetchQuote(ctx context.Context, ticker string) (*Quote, error) {
	url := fmt.Sprintf("%s/api/quote/%s", c.baseURL, ticker)

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch quote %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("quote not found for %s", ticker)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, ticker)
	}

	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("decode quote %s: %w", ticker, err)
	}
	quote.Ticker = ticker

	return &quote, nil
}

// FetchDailyCloses fetches close prices for a date range, oldest first.
func (c *Client) FetchDailyCloses(ctx context.Context, ticker string, from, to time.Time) ([]DailyClose, error) {
	url := fmt.Sprintf("%s/api/chart/%s?from=%s&to=%s",
		c.baseURL, ticker, from.Format("2006-01-02"), to.Format("2006-01-02"))

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch closes %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, ticker)
	}

	// Provider chart format: [["2026-08-25", 38.42], ...]
	var rawData [][]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&rawData); err != nil {
		return nil, fmt.Errorf("decode closes %s: %w", ticker, err)
	}

	closes := make([]DailyClose, 0, len(rawData))
	for _, row := range rawData {
		if len(row) < 2 {
			continue
		}

		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}

		closes = append(closes, DailyClose{Date: date, Close: toFloat(row[1])})
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(closes),
	}).Debug("Fetched daily closes")

	return closes, nil
}

// FetchDividends scrapes the provider's dividend table for a ticker.
// The page lists one event per row: type, ex-date, payment date, value.
func (c *Client) FetchDividends(ctx context.Context, ticker string) ([]Dividend, error) {
	url := fmt.Sprintf("%s/proventos.php?papel=%s", c.baseURL, ticker)

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch dividends %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, ticker)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse dividends page %s: %w", ticker, err)
	}

	var dividends []Dividend
	doc.Find("table#resultado tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}

		exDate, err := time.Parse("02/01/2006", strings.TrimSpace(cells.Eq(0).Text()))
		if err != nil {
			return
		}

		amount := parseBRLNumber(cells.Eq(2).Text())
		if amount <= 0 {
			return
		}

		dividends = append(dividends, Dividend{
			Ticker: ticker,
			ExDate: exDate,
			Amount: amount,
		})
	})

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(dividends),
	}).Debug("Fetched dividends")

	return dividends, nil
}

// parseBRLNumber parses "1.234,5678" into 1234.5678.
func parseBRLNumber(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func toFloat(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	default:
		return 0
	}
}
