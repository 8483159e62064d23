package selector

import (
	"testing"

	"github.com/rs/zerolog"

	"mediagen/internal/domain"
	"mediagen/internal/registry"
)

func videoProvider(id string, costTier int, stats domain.ProviderStats) domain.Provider {
	return domain.Provider{
		ID: id,
		Capabilities: domain.Capabilities{
			Kinds:              []domain.JobKind{domain.JobKindVideo},
			MaxDurationSeconds: 900,
			QualityTiers:       []string{"standard", "premium"},
			Features:           []string{"subtitles"},
		},
		CostTier:        costTier,
		ExpectedSeconds: int(stats.AvgLatencySeconds),
		Stats:           stats,
	}
}

func rankedIDs(providers []domain.Provider) []string {
	out := make([]string, len(providers))
	for i, p := range providers {
		out[i] = p.ID
	}
	return out
}

func TestSelectReturnsNilWhenNoProviderQualifies(t *testing.T) {
	reg := registry.New([]domain.Provider{
		videoProvider("cinegen", 3, domain.ProviderStats{Reliability: 0.9, AvgLatencySeconds: 300}),
	}, nil, zerolog.Nop())
	sel := New(reg)

	got := sel.Select(domain.JobKindPodcast, domain.Requirements{DurationClass: "short"}, domain.SelectionCriteria{})
	if got != nil {
		t.Fatalf("Select for unsupported kind = %v, want nil", rankedIDs(got))
	}
}

func TestSelectPrefersReliableCheapProviders(t *testing.T) {
	reg := registry.New([]domain.Provider{
		videoProvider("flaky", 2, domain.ProviderStats{Reliability: 0.5, AvgLatencySeconds: 120}),
		videoProvider("solid", 2, domain.ProviderStats{Reliability: 0.95, AvgLatencySeconds: 120}),
		videoProvider("pricey", 5, domain.ProviderStats{Reliability: 0.95, AvgLatencySeconds: 120}),
	}, nil, zerolog.Nop())
	sel := New(reg)

	got := rankedIDs(sel.Select(domain.JobKindVideo, domain.Requirements{DurationClass: "standard", QualityTier: "standard"}, domain.SelectionCriteria{}))
	want := []string{"solid", "flaky", "pricey"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ranking = %v, want %v", got, want)
		}
	}
}

func TestSpeedPriorityFavorsFastProviders(t *testing.T) {
	fast := videoProvider("sprinter", 4, domain.ProviderStats{Reliability: 0.85, AvgLatencySeconds: 60})
	slow := videoProvider("plodder", 1, domain.ProviderStats{Reliability: 0.9, AvgLatencySeconds: 600})
	reg := registry.New([]domain.Provider{fast, slow}, nil, zerolog.Nop())
	sel := New(reg)
	req := domain.Requirements{DurationClass: "standard", QualityTier: "standard"}

	normal := rankedIDs(sel.Select(domain.JobKindVideo, req, domain.SelectionCriteria{}))
	if normal[0] != "plodder" {
		t.Fatalf("normal ranking = %v, want plodder first (cheap and reliable)", normal)
	}

	rushed := rankedIDs(sel.Select(domain.JobKindVideo, req, domain.SelectionCriteria{SpeedPriority: domain.SpeedPriorityFast}))
	if rushed[0] != "sprinter" {
		t.Fatalf("fast ranking = %v, want sprinter first", rushed)
	}
}

func TestQualityPreferenceFavorsObservedQuality(t *testing.T) {
	good := videoProvider("artisan", 3, domain.ProviderStats{Reliability: 0.92, AvgLatencySeconds: 300, AvgQuality: 9.2})
	cheap := videoProvider("budget", 1, domain.ProviderStats{Reliability: 0.88, AvgLatencySeconds: 300, AvgQuality: 6.0})
	reg := registry.New([]domain.Provider{good, cheap}, nil, zerolog.Nop())
	sel := New(reg)
	req := domain.Requirements{DurationClass: "standard", QualityTier: "premium"}

	standard := rankedIDs(sel.Select(domain.JobKindVideo, req, domain.SelectionCriteria{}))
	if standard[0] != "budget" {
		t.Fatalf("standard ranking = %v, want budget first", standard)
	}

	premium := rankedIDs(sel.Select(domain.JobKindVideo, req, domain.SelectionCriteria{QualityPreference: domain.QualityPreferenceHigh}))
	if premium[0] != "artisan" {
		t.Fatalf("quality-preference ranking = %v, want artisan first", premium)
	}
}

func TestBudgetCeilingZeroesCostScoreButKeepsProvider(t *testing.T) {
	over := videoProvider("deluxe", 5, domain.ProviderStats{Reliability: 0.99, AvgLatencySeconds: 100})
	within := videoProvider("plain", 2, domain.ProviderStats{Reliability: 0.9, AvgLatencySeconds: 100})
	reg := registry.New([]domain.Provider{over, within}, nil, zerolog.Nop())
	sel := New(reg)

	got := sel.Select(domain.JobKindVideo, domain.Requirements{DurationClass: "standard", QualityTier: "standard"},
		domain.SelectionCriteria{BudgetCeiling: 3})
	if len(got) != 2 {
		t.Fatalf("over-budget provider was excluded entirely: %v", rankedIDs(got))
	}
	if got[0].ID != "plain" {
		t.Fatalf("ranking = %v, want plain first under a 3-tier budget", rankedIDs(got))
	}
}

func TestTieBreaksByCostThenID(t *testing.T) {
	stats := domain.ProviderStats{Reliability: 0.9, AvgLatencySeconds: 120}
	reg := registry.New([]domain.Provider{
		videoProvider("beta", 2, stats),
		videoProvider("alpha", 2, stats),
		videoProvider("cheap", 1, stats),
	}, nil, zerolog.Nop())
	sel := New(reg)

	got := rankedIDs(sel.Select(domain.JobKindVideo, domain.Requirements{DurationClass: "standard", QualityTier: "standard"}, domain.SelectionCriteria{}))
	want := []string{"cheap", "alpha", "beta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ranking = %v, want %v", got, want)
		}
	}
}

func TestMatchScoreCoversRequestedFeatures(t *testing.T) {
	p := videoProvider("x", 1, domain.ProviderStats{})
	if got := matchScore(p, domain.Requirements{}); got != 1 {
		t.Fatalf("matchScore with no requested features = %v, want 1", got)
	}
	if got := matchScore(p, domain.Requirements{Features: []string{"subtitles"}}); got != 1 {
		t.Fatalf("matchScore full coverage = %v, want 1", got)
	}
	if got := matchScore(p, domain.Requirements{Features: []string{"subtitles", "voice_cloning"}}); got != 0.5 {
		t.Fatalf("matchScore half coverage = %v, want 0.5", got)
	}
}
