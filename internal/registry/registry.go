package registry

import (
	"sort"
	"sync/atomic"

	"github.com/rs/zerolog"

	"mediagen/internal/domain"
)

// Stats smoothing. Reliability is a success ratio with a prior so a
// single early failure does not zero out a provider; latency and quality
// use an exponential moving average.
const (
	reliabilityPriorWeight = 10.0
	emaAlpha               = 0.2
)

type entry struct {
	provider domain.Provider
	stats    atomic.Pointer[domain.ProviderStats]
}

// Registry is the catalog of known providers plus their live rolling
// statistics. The static descriptors are immutable after construction;
// only the per-provider stats pointer is swapped, via CAS, so concurrent
// outcome recording never takes a registry-wide lock.
type Registry struct {
	entries map[string]*entry
	ids     []string
	logger  zerolog.Logger
}

// New builds a registry from catalog providers. Seed stats persisted from
// a previous run override the catalog's initial values per provider.
func New(providers []domain.Provider, seed map[string]domain.ProviderStats, logger zerolog.Logger) *Registry {
	r := &Registry{
		entries: make(map[string]*entry, len(providers)),
		ids:     make([]string, 0, len(providers)),
		logger:  logger,
	}
	for _, p := range providers {
		stats := p.Stats
		if persisted, ok := seed[p.ID]; ok && persisted.Attempts > 0 {
			stats = persisted
		}
		e := &entry{provider: p}
		e.stats.Store(&stats)
		r.entries[p.ID] = e
		r.ids = append(r.ids, p.ID)
	}
	sort.Strings(r.ids)
	return r
}

// List returns providers whose capabilities satisfy the hard filter for
// the given kind and requirements, with current stats attached. The
// result is ordered by id; ranking is the selector's concern.
func (r *Registry) List(kind domain.JobKind, req domain.Requirements) []domain.Provider {
	var out []domain.Provider
	for _, id := range r.ids {
		e := r.entries[id]
		if !e.provider.Capabilities.Satisfies(kind, req) {
			continue
		}
		out = append(out, r.snapshot(e))
	}
	return out
}

// All returns every registered provider with current stats.
func (r *Registry) All() []domain.Provider {
	out := make([]domain.Provider, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.snapshot(r.entries[id]))
	}
	return out
}

// Get returns one provider by id with current stats.
func (r *Registry) Get(id string) (domain.Provider, bool) {
	e, ok := r.entries[id]
	if !ok {
		return domain.Provider{}, false
	}
	return r.snapshot(e), true
}

func (r *Registry) snapshot(e *entry) domain.Provider {
	p := e.provider
	p.Stats = *e.stats.Load()
	return p
}

// RecordOutcome folds one attempt outcome into the provider's rolling
// stats and returns the updated snapshot. Unknown providers are logged
// and ignored; outcome data is best-effort telemetry, never job-critical.
func (r *Registry) RecordOutcome(rec domain.OutcomeRecord) (domain.ProviderStats, bool) {
	e, ok := r.entries[rec.ProviderID]
	if !ok {
		r.logger.Warn().
			Str("provider_id", rec.ProviderID).
			Str("job_id", rec.JobID).
			Msg("registry: outcome for unknown provider dropped")
		return domain.ProviderStats{}, false
	}
	for {
		old := e.stats.Load()
		updated := fold(*old, e.provider.Stats.Reliability, rec)
		if e.stats.CompareAndSwap(old, &updated) {
			return updated, true
		}
	}
}

func fold(s domain.ProviderStats, prior float64, rec domain.OutcomeRecord) domain.ProviderStats {
	s.Attempts++
	if rec.Outcome == domain.AttemptOutcomeSuccess {
		s.Successes++
		s.AvgLatencySeconds = ema(s.AvgLatencySeconds, rec.GenerationSeconds)
		if rec.QualityScore != nil {
			s.AvgQuality = ema(s.AvgQuality, *rec.QualityScore)
		}
	}
	s.Reliability = (float64(s.Successes) + reliabilityPriorWeight*prior) /
		(float64(s.Attempts) + reliabilityPriorWeight)
	return s
}

func ema(current, sample float64) float64 {
	if current == 0 {
		return sample
	}
	return current + emaAlpha*(sample-current)
}
