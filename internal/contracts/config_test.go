package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func validConfig() IndexConfig {
	return IndexConfig{
		MaxAssets:          10,
		Weighting:          WeightEqual,
		UpsideMode:         UpsideBest,
		RebalanceThreshold: f(0.05),
	}
}

func TestIndexConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*IndexConfig)
		wantErr string
	}{
		{
			name:   "valid default",
			mutate: func(c *IndexConfig) {},
		},
		{
			name: "valid with filters",
			mutate: func(c *IndexConfig) {
				c.Filters.PVP = MetricFilter{Enabled: true, Max: f(1.5)}
				c.Filters.ROE = MetricFilter{Enabled: true, Min: f(10)}
			},
		},
		{
			name:    "zero max assets",
			mutate:  func(c *IndexConfig) { c.MaxAssets = 0 },
			wantErr: "maxAssets",
		},
		{
			name:    "unknown weighting",
			mutate:  func(c *IndexConfig) { c.Weighting = "marketcap" },
			wantErr: "weighting",
		},
		{
			name:    "unknown upside mode",
			mutate:  func(c *IndexConfig) { c.UpsideMode = "median" },
			wantErr: "upside mode",
		},
		{
			name:   "unset threshold is valid",
			mutate: func(c *IndexConfig) { c.RebalanceThreshold = nil },
		},
		{
			name:   "explicit zero threshold is valid",
			mutate: func(c *IndexConfig) { c.RebalanceThreshold = f(0) },
		},
		{
			name:    "threshold out of range",
			mutate:  func(c *IndexConfig) { c.RebalanceThreshold = f(1.5) },
			wantErr: "rebalanceThreshold",
		},
		{
			name: "enabled filter without bounds",
			mutate: func(c *IndexConfig) {
				c.Filters.PL = MetricFilter{Enabled: true}
			},
			wantErr: "no bounds",
		},
		{
			name: "filter min greater than max",
			mutate: func(c *IndexConfig) {
				c.Filters.DividendYield = MetricFilter{Enabled: true, Min: f(8), Max: f(4)}
			},
			wantErr: "greater than max",
		},
		{
			name:    "unknown size bucket",
			mutate:  func(c *IndexConfig) { c.SizeBucket = "giant" },
			wantErr: "size bucket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestMetricFilter_Matches(t *testing.T) {
	tests := []struct {
		name   string
		filter MetricFilter
		value  *float64
		want   bool
	}{
		{"disabled passes nil", MetricFilter{}, nil, true},
		{"disabled passes anything", MetricFilter{}, f(999), true},
		{"enabled rejects nil", MetricFilter{Enabled: true, Max: f(1.5)}, nil, false},
		{"within max", MetricFilter{Enabled: true, Max: f(1.5)}, f(1.2), true},
		{"above max", MetricFilter{Enabled: true, Max: f(1.5)}, f(1.6), false},
		{"below min", MetricFilter{Enabled: true, Min: f(10)}, f(5), false},
		{"within range", MetricFilter{Enabled: true, Min: f(0), Max: f(50)}, f(25), true},
		{"at bound", MetricFilter{Enabled: true, Max: f(1.5)}, f(1.5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.value))
		})
	}
}
