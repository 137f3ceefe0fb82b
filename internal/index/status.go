package index

import (
	"context"
	"fmt"
	"time"

	"github.com/quantbr/indexa/internal/contracts"
)

// Status is the operational health view of one index.
type Status struct {
	Ticker           string                    `json:"ticker"`
	Assets           int                       `json:"assets"`
	LastPointDate    *time.Time                `json:"last_point_date,omitempty"`
	LastPoints       float64                   `json:"last_points"`
	PendingDays      int                       `json:"pending_days"`
	PendingDividends []contracts.DividendEvent `json:"pending_dividends,omitempty"`
	UpToDate         bool                      `json:"up_to_date"`
	Checkpoint       *contracts.Checkpoint     `json:"checkpoint,omitempty"`
}

// StatusService assembles the health view from the repositories.
type StatusService struct {
	compositions contracts.CompositionRepository
	history      contracts.HistoryRepository
	checkpoints  contracts.CheckpointRepository
	dividends    contracts.DividendGateway
	backfiller   *Backfiller
}

// NewStatusService creates a new status service.
func NewStatusService(
	compositions contracts.CompositionRepository,
	history contracts.HistoryRepository,
	checkpoints contracts.CheckpointRepository,
	dividends contracts.DividendGateway,
	backfiller *Backfiller,
) *StatusService {
	return &StatusService{
		compositions: compositions,
		history:      history,
		checkpoints:  checkpoints,
		dividends:    dividends,
		backfiller:   backfiller,
	}
}

// Status reports how current the index is: composition size, last
// computed point, trading days still missing, dividends declared but
// not yet folded into a point and the latest batch checkpoint touching
// this index.
func (s *StatusService) Status(ctx context.Context, def *contracts.IndexDefinition) (*Status, error) {
	status := &Status{Ticker: def.Ticker}

	assets, err := s.compositions.Get(ctx, def.ID)
	if err != nil {
		return nil, fmt.Errorf("load composition: %w", err)
	}
	status.Assets = len(assets)

	last, err := s.history.LastPoint(ctx, def.ID)
	if err != nil {
		return nil, fmt.Errorf("load last point: %w", err)
	}
	if last != nil {
		d := last.Date
		status.LastPointDate = &d
		status.LastPoints = last.Points
	}

	pending, err := s.backfiller.PendingDays(ctx, def.ID)
	if err != nil {
		return nil, err
	}
	status.PendingDays = pending
	status.UpToDate = last != nil && pending == 0

	if last != nil && len(assets) > 0 {
		tickers := make([]string, 0, len(assets))
		for _, a := range assets {
			tickers = append(tickers, a.Ticker)
		}
		divs, err := s.dividends.DividendsAfter(ctx, tickers, last.Date)
		if err != nil {
			return nil, fmt.Errorf("load pending dividends: %w", err)
		}
		status.PendingDividends = divs
	}

	cp, err := s.checkpoints.Get(ctx, contracts.JobMarkToMarket, &def.ID)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	status.Checkpoint = cp

	return status, nil
}
