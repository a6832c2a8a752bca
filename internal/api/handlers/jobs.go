package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/obiorah-dev/bankrecon/internal/api/middleware"
	"github.com/obiorah-dev/bankrecon/internal/jobs"
)

// JobsHandler exposes parse-job status for polling.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// Get returns one job by ID.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// List returns jobs filtered by statement_id and status query params.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := jobs.JobFilter{
		StatementID: r.URL.Query().Get("statement_id"),
		Status:      jobs.JobStatus(r.URL.Query().Get("status")),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Offset = n
		}
	}

	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"jobs":  list,
		"count": len(list),
	})
}
