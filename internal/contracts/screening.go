package contracts

import "time"

// Fundamentals is the per-company metric snapshot the screener evaluates.
// Pointers are nil when the platform has no figure for the metric.
type Fundamentals struct {
	Ticker        string
	Sector        string
	Industry      string
	Price         float64
	MarketCap     *float64
	PL            *float64
	PVP           *float64
	ROE           *float64
	DividendYield *float64
	RevenueGrowth *float64
	NetMargin     *float64
	NetDebtEBITDA *float64
	Liquidity     *float64
}

// Valuation is the black-box output of the valuation/scoring service.
type Valuation struct {
	FairValue    *float64
	Upside       *float64
	OverallScore *float64
}

// Candidate is one company selected (or scored) by the screening engine.
type Candidate struct {
	Ticker        string            `json:"ticker"`
	CurrentPrice  float64           `json:"current_price"`
	Upside        float64           `json:"upside"`
	OverallScore  float64           `json:"overall_score"`
	DividendYield float64           `json:"dividend_yield"`
	MarketCap     float64           `json:"market_cap"`
	Sector        string            `json:"sector"`
	// Debug records why score computation failed for this company.
	// Companies are never silently dropped.
	Debug map[string]string `json:"debug,omitempty"`
}

// ScreeningResult is the ranked output of the screening engine.
// An empty candidate list is a valid, non-exceptional outcome.
type ScreeningResult struct {
	Date       time.Time   `json:"date"`
	Candidates []Candidate `json:"candidates"`
}

// Count returns the number of selected candidates.
func (r *ScreeningResult) Count() int {
	return len(r.Candidates)
}

// RejectedCandidate is a candidate removed by the quality filter,
// with the reason preserved for the rebalance audit trail.
type RejectedCandidate struct {
	Candidate Candidate `json:"candidate"`
	Reason    string    `json:"reason"`
}

// QualityResult splits candidates into accepted and rejected sets.
// An all-rejected outcome is valid.
type QualityResult struct {
	Valid    []Candidate         `json:"valid"`
	Rejected []RejectedCandidate `json:"rejected"`
}

// RejectionReasons flattens rejection reasons keyed by ticker.
func (q *QualityResult) RejectionReasons() map[string]string {
	reasons := make(map[string]string, len(q.Rejected))
	for _, r := range q.Rejected {
		reasons[r.Candidate.Ticker] = r.Reason
	}
	return reasons
}
