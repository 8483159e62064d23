package poller

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mediagen/internal/domain"
	"mediagen/internal/provider"
)

// Update is a normalized progress or terminal report forwarded to the
// lifecycle manager. The manager is the only writer of job state; the
// poller merely requests transitions.
type Update struct {
	JobID        string
	AttemptID    string
	ProviderID   string
	State        string
	Progress     int
	Result       *domain.Result
	ErrorMessage string
	ErrorClass   domain.FailureClass
}

// Sink receives updates. A non-nil error (stale attempt, terminal job)
// tells the poller to stop watching.
type Sink interface {
	HandleUpdate(u Update) error
}

// WatchSpec describes one in-flight attempt to observe. Ctx is the
// attempt-scoped context; cancelling it stops the watch.
type WatchSpec struct {
	Ctx         context.Context
	JobID       string
	AttemptID   string
	ExternalRef string
	Provider    domain.Provider
}

// Config tunes polling cadence and the synthesized-timeout bound.
type Config struct {
	Interval          time.Duration
	TimeoutMultiplier float64
}

const (
	defaultInterval          = 3 * time.Second
	defaultTimeoutMultiplier = 1.5
	jitterFraction           = 0.2
)

func (c *Config) normalize() {
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}
	if c.TimeoutMultiplier <= 1 {
		c.TimeoutMultiplier = defaultTimeoutMultiplier
	}
}

type watch struct {
	spec    WatchSpec
	resetCh chan struct{}

	// lastProgress is touched by the poll goroutine and by callback
	// handlers on HTTP goroutines.
	mu           sync.Mutex
	lastProgress int
}

// Poller observes in-flight attempts. Poll-based providers are queried on
// a jittered interval; push-based providers only get the timeout
// watchdog, fed by validated callbacks. Every update passes the
// monotonic-progress clamp and the stale-attempt guard before reaching
// the sink.
type Poller struct {
	cfg     Config
	sink    Sink
	clients map[string]provider.Client
	logger  zerolog.Logger

	mu       sync.Mutex
	inflight map[string]*watch
}

func New(cfg Config, sink Sink, clients map[string]provider.Client, logger zerolog.Logger) *Poller {
	cfg.normalize()
	return &Poller{
		cfg:      cfg,
		sink:     sink,
		clients:  clients,
		logger:   logger,
		inflight: make(map[string]*watch),
	}
}

func watchKey(providerID, externalRef string) string {
	return providerID + "/" + externalRef
}

// Watch starts observing one submitted attempt.
func (p *Poller) Watch(spec WatchSpec) {
	w := &watch{spec: spec, resetCh: make(chan struct{}, 1)}
	key := watchKey(spec.Provider.ID, spec.ExternalRef)
	p.mu.Lock()
	p.inflight[key] = w
	p.mu.Unlock()
	go p.run(w, key)
}

func (p *Poller) deregister(key string) {
	p.mu.Lock()
	delete(p.inflight, key)
	p.mu.Unlock()
}

// timeoutFor derives the no-update deadline from the provider's declared
// expected generation time.
func (p *Poller) timeoutFor(prov domain.Provider) time.Duration {
	expected := time.Duration(prov.ExpectedSeconds) * time.Second
	if expected <= 0 {
		expected = p.cfg.Interval * 10
	}
	return time.Duration(float64(expected) * p.cfg.TimeoutMultiplier)
}

// jittered spreads poll ticks so many jobs against one provider do not
// line up into request bursts.
func (p *Poller) jittered() time.Duration {
	base := float64(p.cfg.Interval)
	spread := 1 - jitterFraction + 2*jitterFraction*rand.Float64()
	return time.Duration(base * spread)
}

func (p *Poller) run(w *watch, key string) {
	defer p.deregister(key)

	spec := w.spec
	deadline := p.timeoutFor(spec.Provider)
	watchdog := time.NewTimer(deadline)
	defer watchdog.Stop()

	var pollC <-chan time.Time
	var pollTimer *time.Timer
	if !spec.Provider.Callback {
		pollTimer = time.NewTimer(p.jittered())
		defer pollTimer.Stop()
		pollC = pollTimer.C
	}

	for {
		select {
		case <-spec.Ctx.Done():
			return

		case <-w.resetCh:
			if !watchdog.Stop() {
				select {
				case <-watchdog.C:
				default:
				}
			}
			watchdog.Reset(deadline)

		case <-watchdog.C:
			p.forwardTimeout(spec, deadline)
			return

		case <-pollC:
			done, received := p.pollOnce(w)
			if done {
				return
			}
			// Only a real provider response feeds the watchdog. A dead
			// status endpoint must not keep its own deadline alive.
			if received {
				if !watchdog.Stop() {
					select {
					case <-watchdog.C:
					default:
					}
				}
				watchdog.Reset(deadline)
			}
			pollTimer.Reset(p.jittered())
		}
	}
}

// pollOnce queries the provider and forwards the result. done reports
// that the watch should end; received reports that the provider actually
// answered. Query errors are logged and tolerated, but they do not count
// as a response, so an unreachable provider still runs into the watchdog.
func (p *Poller) pollOnce(w *watch) (done, received bool) {
	spec := w.spec
	client := p.clients[spec.Provider.ID]
	if client == nil {
		p.logger.Error().
			Str("provider_id", spec.Provider.ID).
			Str("job_id", spec.JobID).
			Msg("poller: no client for provider")
		return false, false
	}

	status, err := client.QueryStatus(spec.Ctx, spec.ExternalRef)
	if err != nil {
		if spec.Ctx.Err() != nil {
			return true, false
		}
		p.logger.Warn().Err(err).
			Str("provider_id", spec.Provider.ID).
			Str("job_id", spec.JobID).
			Msg("poller: status query failed")
		return false, false
	}
	return p.forward(w, status.State, status.Progress, status.Result, status.ErrorMessage, status.ErrorClass), true
}

// forward clamps progress and hands the update to the sink. Returns true
// when polling should stop.
func (p *Poller) forward(w *watch, state string, progress int, result *domain.Result, errMsg string, errClass domain.FailureClass) bool {
	// Providers are not assumed well-behaved: progress never goes
	// backwards within an attempt.
	w.mu.Lock()
	if progress < w.lastProgress {
		progress = w.lastProgress
	}
	if progress > 100 {
		progress = 100
	}
	w.lastProgress = progress
	w.mu.Unlock()

	u := Update{
		JobID:        w.spec.JobID,
		AttemptID:    w.spec.AttemptID,
		ProviderID:   w.spec.Provider.ID,
		State:        state,
		Progress:     progress,
		Result:       result,
		ErrorMessage: errMsg,
		ErrorClass:   errClass,
	}
	if err := p.sink.HandleUpdate(u); err != nil {
		p.logger.Debug().Err(err).
			Str("job_id", w.spec.JobID).
			Str("attempt_id", w.spec.AttemptID).
			Msg("poller: update rejected, stopping watch")
		return true
	}
	return state == provider.StateCompleted || state == provider.StateFailed
}

func (p *Poller) forwardTimeout(spec WatchSpec, deadline time.Duration) {
	u := Update{
		JobID:        spec.JobID,
		AttemptID:    spec.AttemptID,
		ProviderID:   spec.Provider.ID,
		State:        provider.StateFailed,
		ErrorMessage: fmt.Sprintf("no update from %s within %s", spec.Provider.ID, deadline),
		ErrorClass:   domain.FailureTimeout,
	}
	if err := p.sink.HandleUpdate(u); err != nil {
		p.logger.Debug().Err(err).
			Str("job_id", spec.JobID).
			Msg("poller: timeout update rejected")
	}
}
