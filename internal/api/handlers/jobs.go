package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/quantbr/indexa/internal/scheduler"
	"github.com/quantbr/indexa/pkg/logger"
)

// JobRunner triggers registered batch jobs on demand.
type JobRunner interface {
	RunNow(ctx context.Context, name string) error
	Jobs() []string
}

// JobHandler serves the batch job endpoints.
type JobHandler struct {
	runner JobRunner
	logger *logger.Logger
}

// NewJobHandler creates a new job handler.
func NewJobHandler(runner JobRunner, log *logger.Logger) *JobHandler {
	return &JobHandler{runner: runner, logger: log}
}

// List returns the registered job names.
// GET /api/jobs
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"jobs": h.runner.Jobs(),
		},
	})
}

// Run triggers one job immediately.
// POST /api/jobs/{name}/run
func (h *JobHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	err := h.runner.RunNow(r.Context(), name)
	if errors.Is(err, scheduler.ErrJobNotFound) {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("job", name).Error("Job run failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"job": name,
		},
	})
}
