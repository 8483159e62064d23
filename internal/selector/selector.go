package selector

import (
	"sort"

	"mediagen/internal/domain"
	"mediagen/internal/registry"
)

// Selector ranks capable providers for a job. The hard capability filter
// is the registry's; the selector only scores and orders what survives
// it. An empty result means no provider can do the job at all, which the
// lifecycle manager treats as a non-retryable failure.
type Selector struct {
	registry *registry.Registry
}

func New(reg *registry.Registry) *Selector {
	return &Selector{registry: reg}
}

// Scoring weights. Speed priority shifts weight toward latency, quality
// preference toward reliability and observed quality.
type weights struct {
	match       float64
	reliability float64
	quality     float64
	latency     float64
	cost        float64
}

func weightsFor(criteria domain.SelectionCriteria) weights {
	w := weights{
		match:       0.20,
		reliability: 0.30,
		quality:     0.10,
		latency:     0.15,
		cost:        0.25,
	}
	if criteria.QualityPreference == domain.QualityPreferenceHigh {
		w.reliability += 0.10
		w.quality += 0.10
		w.latency -= 0.10
		w.cost -= 0.10
	}
	if criteria.SpeedPriority == domain.SpeedPriorityFast {
		w.latency += 0.20
		w.match -= 0.10
		w.reliability -= 0.05
		w.cost -= 0.05
	}
	return w
}

type candidate struct {
	provider domain.Provider
	score    float64
}

// Select returns capable providers ordered best-to-worst. The full ranked
// list is returned so fallback never has to re-rank mid-job.
func (s *Selector) Select(kind domain.JobKind, req domain.Requirements, criteria domain.SelectionCriteria) []domain.Provider {
	criteria.Normalize()
	providers := s.registry.List(kind, req)
	if len(providers) == 0 {
		return nil
	}

	w := weightsFor(criteria)
	minLatency := providers[0].Stats.AvgLatencySeconds
	for _, p := range providers[1:] {
		if p.Stats.AvgLatencySeconds < minLatency {
			minLatency = p.Stats.AvgLatencySeconds
		}
	}

	candidates := make([]candidate, 0, len(providers))
	for _, p := range providers {
		score := w.match*matchScore(p, req) +
			w.reliability*p.Stats.Reliability +
			w.quality*qualityScore(p) +
			w.latency*latencyScore(p, minLatency) +
			w.cost*costScore(p, criteria.BudgetCeiling)
		candidates = append(candidates, candidate{provider: p, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		const epsilon = 1e-9
		if diff := a.score - b.score; diff > epsilon || diff < -epsilon {
			return a.score > b.score
		}
		if a.provider.CostTier != b.provider.CostTier {
			return a.provider.CostTier < b.provider.CostTier
		}
		return a.provider.ID < b.provider.ID
	})

	ranked := make([]domain.Provider, len(candidates))
	for i, c := range candidates {
		ranked[i] = c.provider
	}
	return ranked
}

// matchScore measures how completely the provider covers the requested
// feature set. Providers arriving here already pass the hard filter, so
// this only breaks ranking ties when partial matching is ever admitted.
func matchScore(p domain.Provider, req domain.Requirements) float64 {
	if len(req.Features) == 0 {
		return 1
	}
	offered := make(map[string]struct{}, len(p.Capabilities.Features))
	for _, f := range p.Capabilities.Features {
		offered[f] = struct{}{}
	}
	matched := 0
	for _, f := range req.Features {
		if _, ok := offered[f]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(req.Features))
}

// qualityScore maps the 0-10 observed quality EMA onto 0-1, falling back
// to reliability for providers with no scored outcomes yet.
func qualityScore(p domain.Provider) float64 {
	if p.Stats.AvgQuality <= 0 {
		return p.Stats.Reliability
	}
	q := p.Stats.AvgQuality / 10
	if q > 1 {
		q = 1
	}
	return q
}

func latencyScore(p domain.Provider, minLatency float64) float64 {
	lat := p.Stats.AvgLatencySeconds
	if lat <= 0 || minLatency <= 0 {
		return 1
	}
	return minLatency / lat
}

// costScore rewards cheap providers; anything over the budget ceiling
// scores zero but remains eligible, since budget is a preference rather
// than a capability.
func costScore(p domain.Provider, budgetCeiling int) float64 {
	if budgetCeiling > 0 && p.CostTier > budgetCeiling {
		return 0
	}
	return 1 - float64(p.CostTier-1)/float64(domain.MaxCostTier-1)
}
