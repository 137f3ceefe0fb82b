package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantbr/indexa/internal/scheduler"
	"github.com/quantbr/indexa/pkg/logger"
)

type fakeRunner struct {
	jobs []string
	ran  []string
}

func (f *fakeRunner) RunNow(_ context.Context, name string) error {
	for _, j := range f.jobs {
		if j == name {
			f.ran = append(f.ran, name)
			return nil
		}
	}
	return scheduler.ErrJobNotFound
}

func (f *fakeRunner) Jobs() []string { return f.jobs }

func newJobRouter(h *JobHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/jobs", h.List).Methods("GET")
	r.HandleFunc("/api/jobs/{name}/run", h.Run).Methods("POST")
	return r
}

func TestJobHandler_RunKnownJob(t *testing.T) {
	runner := &fakeRunner{jobs: []string{"mark-to-market", "screening"}}
	h := NewJobHandler(runner, logger.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/jobs/screening/run", nil)
	rec := httptest.NewRecorder()
	newJobRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"screening"}, runner.ran)
}

func TestJobHandler_UnknownJobIs404(t *testing.T) {
	h := NewJobHandler(&fakeRunner{jobs: []string{"mark-to-market"}}, logger.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/jobs/nope/run", nil)
	rec := httptest.NewRecorder()
	newJobRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobHandler_List(t *testing.T) {
	h := NewJobHandler(&fakeRunner{jobs: []string{"mark-to-market", "screening"}}, logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	rec := httptest.NewRecorder()
	newJobRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mark-to-market")
	assert.Contains(t, rec.Body.String(), "screening")
}
