package contracts

import "fmt"

// MetricFilter is one declarative screening rule over a fundamental metric.
// Disabled filters are ignored; enabled filters need at least one bound.
type MetricFilter struct {
	Enabled bool     `json:"enabled"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
}

// ScreeningFilters groups the metric filters an index config may enable.
type ScreeningFilters struct {
	PL            MetricFilter `json:"pl"`            // price/earnings
	PVP           MetricFilter `json:"pvp"`           // price/book
	ROE           MetricFilter `json:"roe"`           // %
	DividendYield MetricFilter `json:"dividendYield"` // %
	RevenueGrowth MetricFilter `json:"revenueGrowth"` // % (5y CAGR)
	NetMargin     MetricFilter `json:"netMargin"`     // %
	NetDebtEBITDA MetricFilter `json:"netDebtEbitda"`
	MarketCap     MetricFilter `json:"marketCap"` // BRL
	Liquidity     MetricFilter `json:"liquidity"` // avg daily traded volume, BRL
}

// UpsideMode selects how the candidate pool's upside is aggregated when
// deciding whether a rebalance is worthwhile.
type UpsideMode string

const (
	UpsideBest    UpsideMode = "best"
	UpsideAverage UpsideMode = "average"
)

// WeightingScheme selects how target weights are assigned to the
// selected candidates.
type WeightingScheme string

const (
	WeightEqual   WeightingScheme = "equal"
	WeightByScore WeightingScheme = "score"
)

// SizeBucket restricts the screening universe by company size.
type SizeBucket string

const (
	SizeAny   SizeBucket = ""
	SizeSmall SizeBucket = "small"
	SizeMid   SizeBucket = "mid"
	SizeLarge SizeBucket = "large"
)

// IndexConfig is the screening + rebalance rule document of an index.
// It is stored schema-free and validated once at the screening boundary.
type IndexConfig struct {
	Filters    ScreeningFilters `json:"filters"`
	Sectors    []string         `json:"sectors,omitempty"`    // allow-list, empty = all
	Industries []string         `json:"industries,omitempty"` // allow-list, empty = all
	SizeBucket SizeBucket       `json:"sizeBucket,omitempty"`
	MaxAssets  int              `json:"maxAssets"`
	Weighting  WeightingScheme  `json:"weighting"`
	// Nil means the engine default. Zero is a legal value and makes
	// any composition drift trigger a rebalance.
	RebalanceThreshold *float64   `json:"rebalanceThreshold,omitempty"`
	UpsideMode         UpsideMode `json:"upsideMode"`
	QualityCheck       bool       `json:"qualityCheck"`
}

// Validate checks the config document once at the screening boundary.
func (c *IndexConfig) Validate() error {
	if c.MaxAssets <= 0 {
		return fmt.Errorf("maxAssets must be positive, got %d", c.MaxAssets)
	}

	switch c.Weighting {
	case WeightEqual, WeightByScore:
	default:
		return fmt.Errorf("unknown weighting scheme %q", c.Weighting)
	}

	switch c.UpsideMode {
	case UpsideBest, UpsideAverage:
	default:
		return fmt.Errorf("unknown upside mode %q", c.UpsideMode)
	}

	if c.RebalanceThreshold != nil && (*c.RebalanceThreshold < 0 || *c.RebalanceThreshold > 1) {
		return fmt.Errorf("rebalanceThreshold must be within [0, 1], got %v", *c.RebalanceThreshold)
	}

	switch c.SizeBucket {
	case SizeAny, SizeSmall, SizeMid, SizeLarge:
	default:
		return fmt.Errorf("unknown size bucket %q", c.SizeBucket)
	}

	filters := map[string]MetricFilter{
		"pl":            c.Filters.PL,
		"pvp":           c.Filters.PVP,
		"roe":           c.Filters.ROE,
		"dividendYield": c.Filters.DividendYield,
		"revenueGrowth": c.Filters.RevenueGrowth,
		"netMargin":     c.Filters.NetMargin,
		"netDebtEbitda": c.Filters.NetDebtEBITDA,
		"marketCap":     c.Filters.MarketCap,
		"liquidity":     c.Filters.Liquidity,
	}
	for name, f := range filters {
		if err := f.validate(name); err != nil {
			return err
		}
	}

	return nil
}

func (f MetricFilter) validate(name string) error {
	if !f.Enabled {
		return nil
	}
	if f.Min == nil && f.Max == nil {
		return fmt.Errorf("filter %s is enabled but has no bounds", name)
	}
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		return fmt.Errorf("filter %s has min %v greater than max %v", name, *f.Min, *f.Max)
	}
	return nil
}

// Matches reports whether a metric value passes the filter. A missing
// value (nil) fails any enabled filter: the rule asked for a bound the
// company cannot prove.
func (f MetricFilter) Matches(value *float64) bool {
	if !f.Enabled {
		return true
	}
	if value == nil {
		return false
	}
	if f.Min != nil && *value < *f.Min {
		return false
	}
	if f.Max != nil && *value > *f.Max {
		return false
	}
	return true
}
