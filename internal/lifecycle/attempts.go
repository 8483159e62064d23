package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"mediagen/internal/domain"
	"mediagen/internal/poller"
	"mediagen/internal/provider"
)

// maxAttemptsFor returns the attempt budget for a job.
func (m *Manager) maxAttemptsFor(job *domain.Job) int {
	if m.cfg.MaxAttempts > 0 {
		return m.cfg.MaxAttempts
	}
	return len(job.RankedProviderIDs)
}

// runAttempt starts the next attempt for a job sitting in
// provider_selected: it appends the attempt record, submits to the next
// provider in the frozen ranked list, and hands the attempt to the
// watcher. Provider I/O happens outside the entry lock.
func (m *Manager) runAttempt(e *jobEntry) {
	e.mu.Lock()
	job := e.job
	if job.State != domain.JobStateProviderSelected {
		// Cancelled or already settled between scheduling and execution.
		e.mu.Unlock()
		return
	}
	idx := job.AttemptCount
	if idx >= len(job.RankedProviderIDs) || idx >= m.maxAttemptsFor(job) {
		m.failLocked(job, domain.FailureCauseProvidersExhausted, "no providers remain")
		m.persist(job)
		e.mu.Unlock()
		return
	}
	providerID := job.RankedProviderIDs[idx]
	attempt := domain.Attempt{
		ID:         uuid.NewString(),
		Number:     idx + 1,
		ProviderID: providerID,
		Outcome:    domain.AttemptOutcomePending,
		StartedAt:  m.now(),
	}
	job.Attempts = append(job.Attempts, attempt)
	job.AttemptCount++
	job.SelectedProviderID = providerID
	// A fresh attempt clears the previous attempt's error and progress.
	job.ErrorMessage = ""
	job.FailureCause = domain.FailureCauseNone
	job.Progress = 0
	job.UpdatedAt = m.now()

	attemptCtx, cancel := context.WithCancel(m.rootCtx)
	e.cancelAttempt = cancel
	spec := provider.Spec{
		JobID:        job.ID,
		AttemptID:    attempt.ID,
		Kind:         job.Kind,
		Requirements: job.Requirements,
	}
	if prov, ok := m.registry.Get(providerID); ok && prov.Callback && m.cfg.CallbackBaseURL != "" {
		spec.CallbackURL = strings.TrimRight(m.cfg.CallbackBaseURL, "/") + "/v1/callbacks/" + providerID
	}
	m.persist(job)
	e.mu.Unlock()

	m.logger.Info().
		Str("job_id", job.ID).
		Str("provider_id", providerID).
		Int("attempt", attempt.Number).
		Msg("lifecycle: submitting attempt")

	client := m.clients[providerID]
	if client == nil {
		m.finishAttempt(e, attempt.ID, domain.FailureProviderRejected,
			fmt.Sprintf("provider %q has no client configured", providerID))
		return
	}
	ref, err := client.Submit(attemptCtx, spec)
	if err != nil {
		if attemptCtx.Err() != nil {
			// Cancelled mid-submission; state is already settled.
			return
		}
		m.finishAttempt(e, attempt.ID, domain.ClassifyProviderError(err), err.Error())
		return
	}

	e.mu.Lock()
	att := findAttempt(e.job, attempt.ID)
	if att == nil || att.Outcome != domain.AttemptOutcomePending || e.job.State.Terminal() {
		e.mu.Unlock()
		cancel()
		return
	}
	att.ExternalRef = ref
	if err := m.transitionLocked(e.job, domain.JobStateSubmitted); err != nil {
		e.mu.Unlock()
		cancel()
		return
	}
	m.persist(e.job)
	prov, _ := m.registry.Get(providerID)
	e.mu.Unlock()

	m.watcher.Watch(poller.WatchSpec{
		Ctx:         attemptCtx,
		JobID:       job.ID,
		AttemptID:   attempt.ID,
		ExternalRef: ref,
		Provider:    prov,
	})
}

// HandleUpdate is the poller's entry point into the state machine. Stale
// updates (superseded attempt, terminal job, unknown job) are rejected
// with sentinel errors and never mutate state.
func (m *Manager) HandleUpdate(u poller.Update) error {
	e := m.entry(u.JobID)
	if e == nil {
		m.logger.Debug().Str("job_id", u.JobID).Msg("lifecycle: update for unknown job dropped")
		return domain.ErrNotFound
	}
	e.mu.Lock()
	job := e.job
	if job.State.Terminal() {
		e.mu.Unlock()
		return domain.ErrJobTerminal
	}
	att := job.CurrentAttempt()
	if att == nil || att.ID != u.AttemptID || att.Outcome != domain.AttemptOutcomePending {
		e.mu.Unlock()
		return domain.ErrStaleAttempt
	}

	switch u.State {
	case provider.StateProcessing:
		if u.Progress > job.Progress {
			job.Progress = u.Progress
		}
		if job.State != domain.JobStateProcessing {
			m.transitionLocked(job, domain.JobStateProcessing)
		} else {
			job.UpdatedAt = m.now()
		}
		m.persist(job)
		e.mu.Unlock()
		return nil

	case provider.StateCompleted:
		if u.Result == nil {
			// A success without an artifact is useless; treat it as a
			// provider failure so fallback can still run.
			restart := m.closeAndDecideLocked(e, att, domain.FailureTransient,
				"provider reported success without a result")
			e.mu.Unlock()
			if restart {
				go m.runAttempt(e)
			}
			return nil
		}
		m.completeLocked(e, att, u.Result)
		e.mu.Unlock()
		return nil

	case provider.StateFailed:
		class := u.ErrorClass
		if class == "" {
			class = domain.FailureTransient
		}
		restart := m.closeAndDecideLocked(e, att, class, u.ErrorMessage)
		e.mu.Unlock()
		if restart {
			go m.runAttempt(e)
		}
		return nil

	default:
		e.mu.Unlock()
		return fmt.Errorf("unknown provider state %q", u.State)
	}
}

// finishAttempt closes an attempt that failed outside HandleUpdate
// (submission errors, missing clients).
func (m *Manager) finishAttempt(e *jobEntry, attemptID string, class domain.FailureClass, msg string) {
	e.mu.Lock()
	job := e.job
	att := findAttempt(job, attemptID)
	if att == nil || att.Outcome != domain.AttemptOutcomePending || job.State.Terminal() {
		e.mu.Unlock()
		return
	}
	restart := m.closeAndDecideLocked(e, att, class, msg)
	e.mu.Unlock()
	if restart {
		go m.runAttempt(e)
	}
}

// completeLocked settles a successful attempt. Caller holds the entry lock.
func (m *Manager) completeLocked(e *jobEntry, att *domain.Attempt, result *domain.Result) {
	job := e.job
	now := m.now()
	att.Outcome = domain.AttemptOutcomeSuccess
	att.EndedAt = &now
	if e.cancelAttempt != nil {
		e.cancelAttempt()
		e.cancelAttempt = nil
	}
	job.Result = result
	job.Progress = 100
	m.transitionLocked(job, domain.JobStateCompleted)
	job.CompletedAt = &now
	m.persist(job)
	m.emitOutcomeLocked(job, *att)
	m.logger.Info().
		Str("job_id", job.ID).
		Str("provider_id", att.ProviderID).
		Int("attempt", att.Number).
		Float64("quality_score", result.QualityScore).
		Msg("lifecycle: job completed")
}

// closeAndDecideLocked records the attempt failure and applies the
// retry/fallback policy. It reports whether a new attempt should start.
// Caller holds the entry lock.
func (m *Manager) closeAndDecideLocked(e *jobEntry, att *domain.Attempt, class domain.FailureClass, msg string) bool {
	job := e.job
	now := m.now()
	if class == domain.FailureTimeout {
		att.Outcome = domain.AttemptOutcomeTimeout
	} else {
		att.Outcome = domain.AttemptOutcomeFailure
	}
	att.ErrorMessage = msg
	att.EndedAt = &now
	if e.cancelAttempt != nil {
		e.cancelAttempt()
		e.cancelAttempt = nil
	}
	m.emitOutcomeLocked(job, *att)

	job.ErrorMessage = msg
	switch {
	case !class.AllowsFallback():
		// Structurally invalid for every provider; do not burn the rest
		// of the ranked list.
		m.failLocked(job, domain.FailureCauseInvalidRequest, msg)
	case job.AttemptCount >= m.maxAttemptsFor(job) || job.AttemptCount >= len(job.RankedProviderIDs):
		m.failLocked(job, domain.FailureCauseProvidersExhausted, msg)
	default:
		m.transitionLocked(job, domain.JobStateProviderSelected)
		m.logger.Warn().
			Str("job_id", job.ID).
			Str("provider_id", att.ProviderID).
			Str("class", string(class)).
			Msg("lifecycle: attempt failed, falling back to next provider")
	}
	m.persist(job)
	return job.State == domain.JobStateProviderSelected
}

// emitOutcomeLocked hands the attempt outcome to the recorder on a
// separate goroutine so analytics can never block or fail the job.
func (m *Manager) emitOutcomeLocked(job *domain.Job, att domain.Attempt) {
	costTier := 0
	if prov, ok := m.registry.Get(att.ProviderID); ok {
		costTier = prov.CostTier
	}
	var quality *float64
	if att.Outcome == domain.AttemptOutcomeSuccess && job.Result != nil {
		q := job.Result.QualityScore
		quality = &q
	}
	var generation float64
	if att.EndedAt != nil {
		generation = att.EndedAt.Sub(att.StartedAt).Seconds()
	}
	rec := domain.OutcomeRecord{
		JobID:             job.ID,
		AttemptID:         att.ID,
		ProviderID:        att.ProviderID,
		Kind:              job.Kind,
		Outcome:           att.Outcome,
		QualityScore:      quality,
		GenerationSeconds: generation,
		CostTier:          costTier,
		Region:            job.Region,
		CreatedAt:         m.now(),
	}
	go m.recorder.Record(m.rootCtx, rec)
}

func findAttempt(job *domain.Job, attemptID string) *domain.Attempt {
	for i := range job.Attempts {
		if job.Attempts[i].ID == attemptID {
			return &job.Attempts[i]
		}
	}
	return nil
}
