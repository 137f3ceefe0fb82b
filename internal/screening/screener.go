package screening

import (
	"context"
	"fmt"
	"sort"

	"github.com/quantbr/indexa/internal/contracts"
	"github.com/quantbr/indexa/pkg/logger"
)

// Market-cap cutoffs for size buckets, in BRL.
const (
	smallCapMax = 2_000_000_000
	midCapMax   = 10_000_000_000
)

// Screener evaluates the investable universe against an index's
// declarative rule set and returns a ranked target composition.
type Screener struct {
	fundamentals contracts.FundamentalsSource
	valuation    contracts.ValuationService
	logger       *logger.Logger
}

// NewScreener creates a new screener.
func NewScreener(fundamentals contracts.FundamentalsSource, valuation contracts.ValuationService, log *logger.Logger) *Screener {
	return &Screener{
		fundamentals: fundamentals,
		valuation:    valuation,
		logger:       log,
	}
}

// Screen runs the rule set over the universe. An empty candidate list
// is a valid outcome; callers branch on Count() == 0.
func (s *Screener) Screen(ctx context.Context, config contracts.IndexConfig) (*contracts.ScreeningResult, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid index config: %w", err)
	}

	universe, err := s.fundamentals.Universe(ctx)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}

	passed := make([]contracts.Fundamentals, 0)
	filtered := make(map[string]int) // filter name -> count

	for _, company := range universe {
		reason := s.checkConditions(company, config)
		if reason == "" {
			passed = append(passed, company)
		} else {
			filtered[reason]++
		}
	}

	candidates, err := s.scoreCandidates(ctx, passed)
	if err != nil {
		return nil, err
	}

	// Rank by overall score descending; ties break by ticker so
	// repeated runs over identical inputs produce identical output.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].OverallScore != candidates[j].OverallScore {
			return candidates[i].OverallScore > candidates[j].OverallScore
		}
		return candidates[i].Ticker < candidates[j].Ticker
	})

	if len(candidates) > config.MaxAssets {
		candidates = candidates[:config.MaxAssets]
	}

	s.logger.WithFields(map[string]interface{}{
		"universe": len(universe),
		"passed":   len(passed),
		"selected": len(candidates),
		"filters":  filtered,
	}).Info("Screening completed")

	return &contracts.ScreeningResult{Candidates: candidates}, nil
}

// checkConditions returns the name of the first filter the company
// fails, or empty string when it passes all of them.
func (s *Screener) checkConditions(company contracts.Fundamentals, config contracts.IndexConfig) string {
	if len(config.Sectors) > 0 && !contains(config.Sectors, company.Sector) {
		return "sector"
	}
	if len(config.Industries) > 0 && !contains(config.Industries, company.Industry) {
		return "industry"
	}

	if config.SizeBucket != contracts.SizeAny {
		if company.MarketCap == nil {
			return "size"
		}
		if bucketFor(*company.MarketCap) != config.SizeBucket {
			return "size"
		}
	}

	f := config.Filters
	checks := []struct {
		name   string
		filter contracts.MetricFilter
		value  *float64
	}{
		{"pl", f.PL, company.PL},
		{"pvp", f.PVP, company.PVP},
		{"roe", f.ROE, company.ROE},
		{"dividendYield", f.DividendYield, company.DividendYield},
		{"revenueGrowth", f.RevenueGrowth, company.RevenueGrowth},
		{"netMargin", f.NetMargin, company.NetMargin},
		{"netDebtEbitda", f.NetDebtEBITDA, company.NetDebtEBITDA},
		{"marketCap", f.MarketCap, company.MarketCap},
		{"liquidity", f.Liquidity, company.Liquidity},
	}
	for _, c := range checks {
		if !c.filter.Matches(c.value) {
			return c.name
		}
	}

	return ""
}

// scoreCandidates attaches valuation output to the filtered companies.
// A company whose score computation fails is kept with a debug payload,
// never silently dropped.
func (s *Screener) scoreCandidates(ctx context.Context, companies []contracts.Fundamentals) ([]contracts.Candidate, error) {
	if len(companies) == 0 {
		return []contracts.Candidate{}, nil
	}

	tickers := make([]string, 0, len(companies))
	for _, c := range companies {
		tickers = append(tickers, c.Ticker)
	}

	valuations, err := s.valuation.Valuations(ctx, tickers)
	if err != nil {
		return nil, fmt.Errorf("fetch valuations: %w", err)
	}

	candidates := make([]contracts.Candidate, 0, len(companies))
	for _, company := range companies {
		candidate := contracts.Candidate{
			Ticker:       company.Ticker,
			CurrentPrice: company.Price,
			Sector:       company.Sector,
		}
		if company.DividendYield != nil {
			candidate.DividendYield = *company.DividendYield
		}
		if company.MarketCap != nil {
			candidate.MarketCap = *company.MarketCap
		}

		val, ok := valuations[company.Ticker]
		if !ok {
			candidate.Debug = map[string]string{"valuation": "nenhum resultado do serviço de valuation"}
			candidates = append(candidates, candidate)
			continue
		}

		switch {
		case val.Upside != nil:
			candidate.Upside = *val.Upside
		case val.FairValue != nil && company.Price > 0:
			candidate.Upside = (*val.FairValue - company.Price) / company.Price * 100
		default:
			candidate.Debug = map[string]string{"upside": "valor justo indisponível"}
		}

		if val.OverallScore != nil {
			candidate.OverallScore = *val.OverallScore
		} else {
			if candidate.Debug == nil {
				candidate.Debug = map[string]string{}
			}
			candidate.Debug["overallScore"] = "cálculo do score falhou"
		}

		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

func bucketFor(marketCap float64) contracts.SizeBucket {
	switch {
	case marketCap < smallCapMax:
		return contracts.SizeSmall
	case marketCap < midCapMax:
		return contracts.SizeMid
	default:
		return contracts.SizeLarge
	}
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
