package b3quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// CompanyRow is one company in the provider's screener dump. Metrics
// the provider does not report come back as null.
type CompanyRow struct {
	Ticker        string   `json:"ticker"`
	Sector        string   `json:"sector"`
	Industry      string   `json:"industry"`
	Price         float64  `json:"price"`
	MarketCap     *float64 `json:"marketCap"`
	PL            *float64 `json:"pl"`
	PVP           *float64 `json:"pvp"`
	ROE           *float64 `json:"roe"`
	DividendYield *float64 `json:"dividendYield"`
	RevenueGrowth *float64 `json:"revenueGrowth"`
	NetMargin     *float64 `json:"netMargin"`
	NetDebtEBITDA *float64 `json:"netDebtEbitda"`
	Liquidity     *float64 `json:"liquidity"`
}

// ValuationRow is the provider's fair-value output for one ticker.
type ValuationRow struct {
	Ticker       string   `json:"ticker"`
	FairValue    *float64 `json:"fairValue"`
	Upside       *float64 `json:"upside"`
	OverallScore *float64 `json:"overallScore"`
}

// FetchScreenerData downloads the full investable universe with
// fundamentals.
func (c *Client) FetchScreenerData(ctx context.Context) ([]CompanyRow, error) {
	url := c.baseURL + "/api/screener"

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch screener data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from screener", resp.StatusCode)
	}

	var rows []CompanyRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode screener data: %w", err)
	}

	c.logger.WithField("count", len(rows)).Debug("Fetched screener data")
	return rows, nil
}

// FetchValuations fetches fair-value results for a ticker set. Tickers
// the provider has no model for are absent from the result.
func (c *Client) FetchValuations(ctx context.Context, tickers []string) (map[string]ValuationRow, error) {
	url := fmt.Sprintf("%s/api/valuation?tickers=%s", c.baseURL, strings.Join(tickers, ","))

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch valuations: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from valuation", resp.StatusCode)
	}

	var rows []ValuationRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode valuations: %w", err)
	}

	result := make(map[string]ValuationRow, len(rows))
	for _, row := range rows {
		result[row.Ticker] = row
	}

	c.logger.WithFields(map[string]interface{}{
		"requested": len(tickers),
		"resolved":  len(result),
	}).Debug("Fetched valuations")

	return result, nil
}
