package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestFailureClassPolicy(t *testing.T) {
	cases := []struct {
		class     FailureClass
		retryable bool
		fallback  bool
	}{
		{FailureTransient, true, true},
		{FailureRateLimited, true, true},
		{FailureTimeout, true, true},
		{FailureProviderRejected, false, true},
		{FailureInvalidRequest, false, false},
	}
	for _, tc := range cases {
		if got := tc.class.Retryable(); got != tc.retryable {
			t.Fatalf("%s.Retryable() = %v, want %v", tc.class, got, tc.retryable)
		}
		if got := tc.class.AllowsFallback(); got != tc.fallback {
			t.Fatalf("%s.AllowsFallback() = %v, want %v", tc.class, got, tc.fallback)
		}
	}
}

func TestFailureCauseRetryable(t *testing.T) {
	cases := []struct {
		cause FailureCause
		want  bool
	}{
		{FailureCauseNone, true},
		{FailureCauseProvidersExhausted, true},
		{FailureCauseNoCapableProvider, false},
		{FailureCauseInvalidRequest, false},
	}
	for _, tc := range cases {
		if got := tc.cause.Retryable(); got != tc.want {
			t.Fatalf("%q.Retryable() = %v, want %v", tc.cause, got, tc.want)
		}
	}
}

func TestClassifyProviderError(t *testing.T) {
	err := &ProviderError{Class: FailureRateLimited, Message: "slow down"}
	if got := ClassifyProviderError(err); got != FailureRateLimited {
		t.Fatalf("ClassifyProviderError = %s, want %s", got, FailureRateLimited)
	}
	wrapped := fmt.Errorf("submit: %w", err)
	if got := ClassifyProviderError(wrapped); got != FailureRateLimited {
		t.Fatalf("ClassifyProviderError(wrapped) = %s, want %s", got, FailureRateLimited)
	}
	if got := ClassifyProviderError(errors.New("mystery")); got != FailureTransient {
		t.Fatalf("ClassifyProviderError(plain) = %s, want %s", got, FailureTransient)
	}
}

func TestCapabilitiesSatisfies(t *testing.T) {
	caps := Capabilities{
		Kinds:              []JobKind{JobKindVideo},
		MaxDurationSeconds: 300,
		QualityTiers:       []string{"standard"},
		Features:           []string{"subtitles"},
	}
	cases := []struct {
		name string
		kind JobKind
		req  Requirements
		want bool
	}{
		{"full match", JobKindVideo, Requirements{DurationClass: "standard", QualityTier: "standard", Features: []string{"subtitles"}}, true},
		{"wrong kind", JobKindPodcast, Requirements{DurationClass: "standard", QualityTier: "standard"}, false},
		{"too long", JobKindVideo, Requirements{DurationClass: "extended", QualityTier: "standard"}, false},
		{"missing tier", JobKindVideo, Requirements{DurationClass: "standard", QualityTier: "premium"}, false},
		{"missing feature", JobKindVideo, Requirements{DurationClass: "standard", QualityTier: "standard", Features: []string{"voice_cloning"}}, false},
		{"empty tier accepted", JobKindVideo, Requirements{DurationClass: "short"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := caps.Satisfies(tc.kind, tc.req); got != tc.want {
				t.Fatalf("Satisfies = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCriteriaNormalize(t *testing.T) {
	c := SelectionCriteria{BudgetCeiling: 99}
	c.Normalize()
	if c.QualityPreference != QualityPreferenceStandard {
		t.Fatalf("QualityPreference = %q, want %q", c.QualityPreference, QualityPreferenceStandard)
	}
	if c.SpeedPriority != SpeedPriorityNormal {
		t.Fatalf("SpeedPriority = %q, want %q", c.SpeedPriority, SpeedPriorityNormal)
	}
	if c.BudgetCeiling != MaxCostTier {
		t.Fatalf("BudgetCeiling = %d, want %d", c.BudgetCeiling, MaxCostTier)
	}

	c = SelectionCriteria{BudgetCeiling: -1}
	c.Normalize()
	if c.BudgetCeiling != 0 {
		t.Fatalf("BudgetCeiling = %d, want 0", c.BudgetCeiling)
	}
}
