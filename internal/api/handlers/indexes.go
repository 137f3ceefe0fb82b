package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/quantbr/indexa/internal/contracts"
	"github.com/quantbr/indexa/internal/index"
	"github.com/quantbr/indexa/pkg/logger"
)

// Recreator rebuilds an index from scratch.
type Recreator interface {
	Recreate(ctx context.Context, def *contracts.IndexDefinition) error
}

// Restorer restores the composition from the latest snapshot.
type Restorer interface {
	RestoreComposition(ctx context.Context, indexID int64) (time.Time, error)
}

// StatusReporter assembles the health view of an index.
type StatusReporter interface {
	Status(ctx context.Context, def *contracts.IndexDefinition) (*index.Status, error)
}

// IndexHandler serves the index administration endpoints.
type IndexHandler struct {
	indexes   contracts.IndexRepository
	recreator Recreator
	restorer  Restorer
	status    StatusReporter
	logger    *logger.Logger
}

// NewIndexHandler creates a new index handler.
func NewIndexHandler(indexes contracts.IndexRepository, recreator Recreator, restorer Restorer, status StatusReporter, log *logger.Logger) *IndexHandler {
	return &IndexHandler{
		indexes:   indexes,
		recreator: recreator,
		restorer:  restorer,
		status:    status,
		logger:    log,
	}
}

// List returns every index definition.
// GET /api/indexes
func (h *IndexHandler) List(w http.ResponseWriter, r *http.Request) {
	defs, err := h.indexes.ListAll(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list indexes")
		respondError(w, http.StatusInternalServerError, "Failed to list indexes")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"count": len(defs),
			"items": defs,
		},
	})
}

// Status returns the operational health of one index.
// GET /api/indexes/{ticker}/status
func (h *IndexHandler) Status(w http.ResponseWriter, r *http.Request) {
	def, ok := h.lookup(w, r)
	if !ok {
		return
	}

	status, err := h.status.Status(r.Context(), def)
	if err != nil {
		h.logger.WithError(err).WithField("index", def.Ticker).Error("Failed to build status")
		respondError(w, http.StatusInternalServerError, "Failed to build status")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    status,
	})
}

// Recreate wipes and rebuilds an index from scratch.
// POST /api/indexes/{ticker}/recreate
func (h *IndexHandler) Recreate(w http.ResponseWriter, r *http.Request) {
	def, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := h.recreator.Recreate(r.Context(), def); err != nil {
		h.logger.WithError(err).WithField("index", def.Ticker).Error("Recreate failed")
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"ticker": def.Ticker,
			"points": contracts.BasePoints,
		},
	})
}

// Restore rolls the composition back to the latest snapshot.
// POST /api/indexes/{ticker}/restore
func (h *IndexHandler) Restore(w http.ResponseWriter, r *http.Request) {
	def, ok := h.lookup(w, r)
	if !ok {
		return
	}

	restoredDate, err := h.restorer.RestoreComposition(r.Context(), def.ID)
	if errors.Is(err, index.ErrNoSnapshot) {
		respondError(w, http.StatusConflict, "Index has no snapshot to restore from")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("index", def.Ticker).Error("Restore failed")
		respondError(w, http.StatusInternalServerError, "Restore failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"ticker":        def.Ticker,
			"snapshot_date": restoredDate.Format("2006-01-02"),
		},
	})
}

func (h *IndexHandler) lookup(w http.ResponseWriter, r *http.Request) (*contracts.IndexDefinition, bool) {
	ticker := mux.Vars(r)["ticker"]

	def, err := h.indexes.GetByTicker(r.Context(), ticker)
	if errors.Is(err, index.ErrIndexNotFound) {
		respondError(w, http.StatusNotFound, "Index not found")
		return nil, false
	}
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Failed to load index")
		respondError(w, http.StatusInternalServerError, "Failed to load index")
		return nil, false
	}
	return def, true
}
