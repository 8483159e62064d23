package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mediagen/internal/domain"
	"mediagen/internal/poller"
	"mediagen/internal/provider"
	"mediagen/internal/registry"
	"mediagen/internal/selector"
)

// Config bounds the retry/fallback policy. A zero MaxAttempts means the
// budget is the length of the ranked provider list. CallbackBaseURL is
// the externally reachable base used to build per-provider webhook URLs.
type Config struct {
	MaxAttempts     int
	CallbackBaseURL string
}

// Recorder receives outcome records for completed and failed attempts.
// Recording is fire-and-forget relative to job state; implementations
// must swallow their own failures.
type Recorder interface {
	Record(ctx context.Context, rec domain.OutcomeRecord)
}

// Watcher observes a submitted attempt until it reaches a terminal
// provider state. Implemented by the status poller.
type Watcher interface {
	Watch(spec poller.WatchSpec)
}

// jobEntry serializes every transition for one job behind its own mutex.
// That is the single-writer guarantee: a progress update, a fallback
// decision, and a cancellation for the same job never race each other,
// while distinct jobs proceed fully in parallel.
type jobEntry struct {
	mu            sync.Mutex
	job           *domain.Job
	cancelAttempt context.CancelFunc
}

// Manager owns the job state machine from submission to terminal state.
// It is the only component that mutates job records; the poller and the
// webhook ingress request transitions through HandleUpdate.
type Manager struct {
	cfg      Config
	registry *registry.Registry
	selector *selector.Selector
	clients  map[string]provider.Client
	repo     domain.JobRepository
	recorder Recorder
	watcher  Watcher
	logger   zerolog.Logger
	rootCtx  context.Context
	now      func() time.Time

	mu   sync.RWMutex
	jobs map[string]*jobEntry
}

// NewManager wires the lifecycle manager. The watcher is attached
// separately via SetWatcher because the poller needs the manager as its
// update sink.
func NewManager(
	ctx context.Context,
	cfg Config,
	reg *registry.Registry,
	sel *selector.Selector,
	clients map[string]provider.Client,
	repo domain.JobRepository,
	recorder Recorder,
	logger zerolog.Logger,
) *Manager {
	return &Manager{
		cfg:      cfg,
		registry: reg,
		selector: sel,
		clients:  clients,
		repo:     repo,
		recorder: recorder,
		logger:   logger,
		rootCtx:  ctx,
		now:      time.Now,
		jobs:     make(map[string]*jobEntry),
	}
}

// SetWatcher attaches the status poller. Must be called before Submit.
func (m *Manager) SetWatcher(w Watcher) {
	m.watcher = w
}

// Submit creates a job, synchronously runs provider selection, and kicks
// off the first attempt asynchronously. It returns before any provider
// I/O happens.
func (m *Manager) Submit(ctx context.Context, kind domain.JobKind, req domain.Requirements, criteria domain.SelectionCriteria, region string) (string, error) {
	switch kind {
	case domain.JobKindPodcast, domain.JobKindVideo:
	default:
		return "", fmt.Errorf("%w: unknown job kind %q", domain.ErrInvalidRequest, kind)
	}
	if req.QualityTier == "" {
		req.QualityTier = "standard"
	}
	criteria.Normalize()

	now := m.now()
	job := &domain.Job{
		ID:           uuid.NewString(),
		Kind:         kind,
		Requirements: req,
		Criteria:     criteria,
		State:        domain.JobStateQueued,
		Region:       region,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	e := &jobEntry{job: job}
	m.mu.Lock()
	m.jobs[job.ID] = e
	m.mu.Unlock()

	e.mu.Lock()
	ranked := m.selector.Select(kind, req, criteria)
	start := false
	if len(ranked) == 0 {
		// No capable provider exists; retrying cannot help.
		m.failLocked(job, domain.FailureCauseNoCapableProvider,
			"no registered provider satisfies the requested capabilities")
	} else {
		ids := make([]string, len(ranked))
		for i := range ranked {
			ids[i] = ranked[i].ID
		}
		job.RankedProviderIDs = ids
		job.SelectedProviderID = ids[0]
		m.transitionLocked(job, domain.JobStateProviderSelected)
		start = true
	}
	if err := m.repo.Create(ctx, job.Clone()); err != nil {
		m.logger.Error().Err(err).Str("job_id", job.ID).Msg("lifecycle: persist job failed")
	}
	e.mu.Unlock()

	m.logger.Info().
		Str("job_id", job.ID).
		Str("kind", string(kind)).
		Int("ranked_providers", len(ranked)).
		Msg("lifecycle: job submitted")

	if start {
		go m.runAttempt(e)
	}
	return job.ID, nil
}

// Cancel moves a non-terminal job to cancelled and signals the in-flight
// attempt to abort. Cancelling a terminal job is a no-op.
func (m *Manager) Cancel(ctx context.Context, jobID string) error {
	e := m.entry(jobID)
	if e == nil {
		if _, err := m.repo.GetByID(ctx, jobID); err != nil {
			return err
		}
		// Known only from a previous run; recovery already settled it.
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	job := e.job
	if job.State.Terminal() {
		return nil
	}
	if e.cancelAttempt != nil {
		e.cancelAttempt()
		e.cancelAttempt = nil
	}
	if att := job.CurrentAttempt(); att != nil && att.Outcome == domain.AttemptOutcomePending {
		ended := m.now()
		att.Outcome = domain.AttemptOutcomeFailure
		att.ErrorMessage = "cancelled"
		att.EndedAt = &ended
	}
	m.transitionLocked(job, domain.JobStateCancelled)
	m.persist(job)
	m.logger.Info().Str("job_id", job.ID).Msg("lifecycle: job cancelled")
	return nil
}

// GetStatus returns a point-in-time snapshot of the job.
func (m *Manager) GetStatus(ctx context.Context, jobID string) (*domain.Job, error) {
	if e := m.entry(jobID); e != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.job.Clone(), nil
	}
	return m.repo.GetByID(ctx, jobID)
}

// Recover reloads non-terminal jobs after a restart. Jobs that never
// reached a provider resume their attempt sequence; jobs whose external
// work was in flight get the interruption treated as a retryable attempt
// failure, falling back or failing per the usual policy.
func (m *Manager) Recover(ctx context.Context) error {
	jobs, err := m.repo.ListUnfinished(ctx)
	if err != nil {
		return fmt.Errorf("list unfinished jobs: %w", err)
	}
	for _, job := range jobs {
		e := &jobEntry{job: job}
		m.mu.Lock()
		m.jobs[job.ID] = e
		m.mu.Unlock()

		e.mu.Lock()
		restart := false
		switch job.State {
		case domain.JobStateQueued:
			ranked := m.selector.Select(job.Kind, job.Requirements, job.Criteria)
			if len(ranked) == 0 {
				m.failLocked(job, domain.FailureCauseNoCapableProvider,
					"no registered provider satisfies the requested capabilities")
			} else {
				ids := make([]string, len(ranked))
				for i := range ranked {
					ids[i] = ranked[i].ID
				}
				job.RankedProviderIDs = ids
				job.SelectedProviderID = ids[0]
				m.transitionLocked(job, domain.JobStateProviderSelected)
				restart = true
			}
		case domain.JobStateProviderSelected:
			restart = true
		case domain.JobStateSubmitted, domain.JobStateProcessing:
			if att := job.CurrentAttempt(); att != nil && att.Outcome == domain.AttemptOutcomePending {
				restart = m.closeAndDecideLocked(e, att, domain.FailureTransient, "attempt interrupted by restart")
			} else {
				m.failLocked(job, domain.FailureCauseProvidersExhausted, "attempt interrupted by restart")
			}
		}
		m.persist(job)
		e.mu.Unlock()

		m.logger.Info().
			Str("job_id", job.ID).
			Str("state", string(job.State)).
			Msg("lifecycle: recovered job")
		if restart {
			go m.runAttempt(e)
		}
	}
	return nil
}

func (m *Manager) entry(jobID string) *jobEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[jobID]
}

// transitionLocked applies a state change after validating it against the
// transition table. Caller holds the entry lock.
func (m *Manager) transitionLocked(job *domain.Job, to domain.JobState) error {
	if !domain.CanTransition(job.State, to) {
		m.logger.Error().
			Str("job_id", job.ID).
			Str("from", string(job.State)).
			Str("to", string(to)).
			Msg("lifecycle: invalid transition rejected")
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, job.State, to)
	}
	m.logger.Debug().
		Str("job_id", job.ID).
		Str("from", string(job.State)).
		Str("to", string(to)).
		Msg("lifecycle: transition")
	job.State = to
	job.UpdatedAt = m.now()
	return nil
}

func (m *Manager) failLocked(job *domain.Job, cause domain.FailureCause, msg string) {
	if err := m.transitionLocked(job, domain.JobStateFailed); err != nil {
		return
	}
	job.FailureCause = cause
	job.ErrorMessage = msg
}

// persist writes the current snapshot. Persistence failures are logged
// and do not affect the in-memory state machine.
func (m *Manager) persist(job *domain.Job) {
	if err := m.repo.Update(m.rootCtx, job.Clone()); err != nil {
		m.logger.Error().Err(err).Str("job_id", job.ID).Msg("lifecycle: persist job failed")
	}
}
