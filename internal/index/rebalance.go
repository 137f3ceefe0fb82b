package index

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/quantbr/indexa/internal/contracts"
	"github.com/quantbr/indexa/internal/screening"
	"github.com/quantbr/indexa/pkg/logger"
)

// Threshold applied when an index config leaves it unset. An explicit
// zero is respected and fires on any drift.
const defaultRebalanceThreshold = 0.05

// Decision is the outcome of a rebalance evaluation.
type Decision struct {
	Rebalance bool
	Distance  float64
	Threshold float64
	Upside    float64
	Reason    string
}

// ShouldRebalance compares the current and ideal compositions and
// decides whether the turnover is worth executing. Distance is half the
// L1 norm of the weight difference over the ticker union, so 0 means
// identical books and 1 means fully disjoint. The candidate pool's
// upside (best or average, per config) only informs the audit reason.
func ShouldRebalance(current, ideal []contracts.CompositionAsset, pool []contracts.Candidate, config contracts.IndexConfig) Decision {
	threshold := defaultRebalanceThreshold
	if config.RebalanceThreshold != nil {
		threshold = *config.RebalanceThreshold
	}

	distance := weightDistance(current, ideal)
	upside := poolUpside(pool, config.UpsideMode)

	d := Decision{
		Distance:  distance,
		Threshold: threshold,
		Upside:    upside,
	}

	// An empty book with candidates available always rebalances.
	if len(current) == 0 && len(ideal) > 0 {
		d.Rebalance = true
		d.Reason = fmt.Sprintf("carteira vazia, montando composição inicial com %d ativos", len(ideal))
		return d
	}

	if distance > threshold {
		d.Rebalance = true
		d.Reason = fmt.Sprintf("distância %.4f acima do limite %.4f (upside %s %.1f%%)",
			distance, threshold, upsideLabel(config.UpsideMode), upside)
	} else {
		d.Reason = fmt.Sprintf("rebalanceamento não necessário: distância %.4f dentro do limite %.4f",
			distance, threshold)
	}
	return d
}

func weightDistance(current, ideal []contracts.CompositionAsset) float64 {
	weights := make(map[string]float64)
	for _, a := range current {
		weights[a.Ticker] += a.TargetWeight
	}
	for _, a := range ideal {
		weights[a.Ticker] -= a.TargetWeight
	}
	sum := 0.0
	for _, diff := range weights {
		sum += math.Abs(diff)
	}
	return sum / 2
}

func poolUpside(pool []contracts.Candidate, mode contracts.UpsideMode) float64 {
	if len(pool) == 0 {
		return 0
	}
	if mode == contracts.UpsideBest {
		best := pool[0].Upside
		for _, c := range pool[1:] {
			if c.Upside > best {
				best = c.Upside
			}
		}
		return best
	}
	sum := 0.0
	for _, c := range pool {
		sum += c.Upside
	}
	return sum / float64(len(pool))
}

func upsideLabel(mode contracts.UpsideMode) string {
	if mode == contracts.UpsideBest {
		return "máximo"
	}
	return "médio"
}

// Rebalancer runs the full screening-to-composition pipeline for one
// index on one trading day.
type Rebalancer struct {
	screener     *screening.Screener
	quality      *screening.QualityFilter
	manager      *CompositionManager
	compositions contracts.CompositionRepository
	logs         contracts.RebalanceLogRepository
	calendar     contracts.MarketCalendar
	logger       *logger.Logger
}

// NewRebalancer creates a new rebalancer.
func NewRebalancer(
	screener *screening.Screener,
	quality *screening.QualityFilter,
	manager *CompositionManager,
	compositions contracts.CompositionRepository,
	logs contracts.RebalanceLogRepository,
	calendar contracts.MarketCalendar,
	log *logger.Logger,
) *Rebalancer {
	return &Rebalancer{
		screener:     screener,
		quality:      quality,
		manager:      manager,
		compositions: compositions,
		logs:         logs,
		calendar:     calendar,
		logger:       log,
	}
}

// Run screens the universe and, when the decision engine fires,
// replaces the composition. No-change outcomes still leave exactly one
// audit row per day.
func (r *Rebalancer) Run(ctx context.Context, def *contracts.IndexDefinition, date time.Time) error {
	if !r.calendar.WasMarketOpen(date) {
		return fmt.Errorf("rebalance %s on %s: %w", def.Ticker, date.Format("2006-01-02"), contracts.ErrMarketClosed)
	}

	log := r.logger.WithFields(map[string]interface{}{
		"index":  def.Ticker,
		"date":   date.Format("2006-01-02"),
		"module": "rebalance",
	})

	result, err := r.screener.Screen(ctx, def.Config)
	if err != nil {
		return fmt.Errorf("screen %s: %w", def.Ticker, err)
	}

	if result.Count() == 0 {
		log.Warn("Screening returned no candidates")
		return r.logOncePerDay(ctx, def.ID, date,
			"nenhuma empresa encontrada para os critérios do índice")
	}

	candidates := result.Candidates
	rejectionReasons := map[string]string{}
	if def.Config.QualityCheck {
		qr := r.quality.Apply(candidates)
		rejectionReasons = qr.RejectionReasons()
		if len(qr.Valid) == 0 {
			log.Warn("Quality filter rejected every candidate")
			return r.logOncePerDay(ctx, def.ID, date,
				"nenhuma empresa aprovada no filtro de qualidade: "+summarizeRejections(qr.Rejected))
		}
		candidates = qr.Valid
	}

	current, err := r.compositions.Get(ctx, def.ID)
	if err != nil {
		return fmt.Errorf("load composition %s: %w", def.Ticker, err)
	}

	ideal := BuildTargetComposition(def.ID, candidates, current, def.Config.Weighting, date)
	decision := ShouldRebalance(current, ideal, candidates, def.Config)

	if !decision.Rebalance {
		log.WithFields(map[string]interface{}{
			"distance":  decision.Distance,
			"threshold": decision.Threshold,
		}).Info("Composition kept")
		return r.logOncePerDay(ctx, def.ID, date, decision.Reason)
	}

	changes := CompareComposition(current, ideal, rejectionReasons)
	if len(changes) == 0 {
		return r.logOncePerDay(ctx, def.ID, date, decision.Reason)
	}

	// The decision summary rides on the first change so the trail
	// records why the turnover happened, not only what moved.
	changes[0].Reason = changes[0].Reason + " | " + decision.Reason

	if err := r.manager.UpdateComposition(ctx, def.ID, ideal, changes, date); err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"distance": decision.Distance,
		"changes":  len(changes),
	}).Info("Index rebalanced")
	return nil
}

// logOncePerDay appends a synthetic no-change audit row unless one
// already exists for the day. Repeated runs stay idempotent.
func (r *Rebalancer) logOncePerDay(ctx context.Context, indexID int64, date time.Time, reason string) error {
	exists, err := r.logs.ExistsOn(ctx, indexID, date)
	if err != nil {
		return fmt.Errorf("check rebalance log: %w", err)
	}
	if exists {
		return nil
	}
	return r.logs.Append(ctx, []contracts.RebalanceLogEntry{{
		IndexID: indexID,
		Date:    date,
		Action:  contracts.ActionRebalance,
		Ticker:  "",
		Reason:  reason,
	}})
}

func summarizeRejections(rejected []contracts.RejectedCandidate) string {
	parts := make([]string, 0, len(rejected))
	for _, r := range rejected {
		parts = append(parts, fmt.Sprintf("%s (%s)", r.Candidate.Ticker, r.Reason))
		if len(parts) == 5 {
			parts = append(parts, "...")
			break
		}
	}
	return strings.Join(parts, ", ")
}
