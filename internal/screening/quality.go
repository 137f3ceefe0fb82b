package screening

import (
	"fmt"

	"github.com/quantbr/indexa/internal/contracts"
	"github.com/quantbr/indexa/pkg/logger"
)

// Minimum overall score a candidate must carry to survive the quality
// pass. Candidates below it are kept in the rejected set with a reason.
const minQualityScore = 40.0

// QualityFilter is the optional secondary pass that removes candidates
// failing qualitative guardrails. Rejection reasons feed the rebalance
// audit trail.
type QualityFilter struct {
	logger *logger.Logger
}

// NewQualityFilter creates a new quality filter.
func NewQualityFilter(log *logger.Logger) *QualityFilter {
	return &QualityFilter{logger: log}
}

// Apply splits candidates into accepted and rejected sets. An
// all-rejected outcome is valid; the caller still writes its
// once-per-day audit entry.
func (q *QualityFilter) Apply(candidates []contracts.Candidate) *contracts.QualityResult {
	result := &contracts.QualityResult{
		Valid:    make([]contracts.Candidate, 0, len(candidates)),
		Rejected: make([]contracts.RejectedCandidate, 0),
	}

	for _, candidate := range candidates {
		if reason := q.check(candidate); reason != "" {
			result.Rejected = append(result.Rejected, contracts.RejectedCandidate{
				Candidate: candidate,
				Reason:    reason,
			})
			continue
		}
		result.Valid = append(result.Valid, candidate)
	}

	q.logger.WithFields(map[string]interface{}{
		"input":    len(candidates),
		"valid":    len(result.Valid),
		"rejected": len(result.Rejected),
	}).Info("Quality filter applied")

	return result
}

// check returns a rejection reason, or empty string when the candidate
// passes.
func (q *QualityFilter) check(candidate contracts.Candidate) string {
	if len(candidate.Debug) > 0 {
		return "score indisponível: " + firstDebugReason(candidate.Debug)
	}

	if candidate.Upside <= 0 {
		return fmt.Sprintf("preço acima do valor justo (upside %.1f%%)", candidate.Upside)
	}

	if candidate.OverallScore < minQualityScore {
		return fmt.Sprintf("score %.1f abaixo do mínimo %.0f", candidate.OverallScore, minQualityScore)
	}

	if candidate.CurrentPrice <= 0 {
		return "sem cotação atual"
	}

	return ""
}

func firstDebugReason(debug map[string]string) string {
	// Deterministic pick: prefer the valuation-level failure.
	for _, key := range []string{"valuation", "upside", "overallScore"} {
		if msg, ok := debug[key]; ok {
			return msg
		}
	}
	for _, msg := range debug {
		return msg
	}
	return "motivo desconhecido"
}
