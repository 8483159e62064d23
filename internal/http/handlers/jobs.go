package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"mediagen/internal/domain"
)

type submitJobRequest struct {
	Kind         string                   `json:"kind"`
	Requirements domain.Requirements      `json:"requirements"`
	Criteria     domain.SelectionCriteria `json:"criteria"`
}

type jobResponse struct {
	JobID              string            `json:"job_id"`
	Kind               string            `json:"kind"`
	State              string            `json:"state"`
	Progress           int               `json:"progress"`
	SelectedProviderID string            `json:"selected_provider_id,omitempty"`
	AttemptCount       int               `json:"attempt_count"`
	Attempts           []domain.Attempt  `json:"attempts,omitempty"`
	Result             *domain.Result    `json:"result,omitempty"`
	Error              *jobErrorResponse `json:"error,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
}

type jobErrorResponse struct {
	Message   string `json:"message"`
	Cause     string `json:"cause,omitempty"`
	Retryable bool   `json:"retryable"`
}

// SubmitJob accepts a generation request and returns the job id
// immediately; generation proceeds asynchronously.
func (a *App) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req submitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	jobID, err := a.Jobs.Submit(r.Context(), domain.JobKind(req.Kind), req.Requirements, req.Criteria, a.region(r))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to submit job")
		return
	}
	job, err := a.Jobs.GetStatus(r.Context(), jobID)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}
	a.json(w, http.StatusAccepted, toJobResponse(job))
}

// JobStatus returns the current snapshot of one job.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	job, err := a.Jobs.GetStatus(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}
	a.json(w, http.StatusOK, toJobResponse(job))
}

// CancelJob moves a non-terminal job to cancelled. Cancelling twice is a no-op.
func (a *App) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	if err := a.Jobs.Cancel(r.Context(), jobID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to cancel job")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toJobResponse(job *domain.Job) jobResponse {
	resp := jobResponse{
		JobID:              job.ID,
		Kind:               string(job.Kind),
		State:              string(job.State),
		Progress:           job.Progress,
		SelectedProviderID: job.SelectedProviderID,
		AttemptCount:       job.AttemptCount,
		Attempts:           job.Attempts,
		Result:             job.Result,
		CreatedAt:          job.CreatedAt,
		UpdatedAt:          job.UpdatedAt,
		CompletedAt:        job.CompletedAt,
	}
	if job.ErrorMessage != "" {
		resp.Error = &jobErrorResponse{
			Message:   job.ErrorMessage,
			Cause:     string(job.FailureCause),
			Retryable: job.FailureCause.Retryable(),
		}
	}
	return resp
}
