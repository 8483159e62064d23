package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"mediagen/internal/domain"
)

func TestSyntheticLifecycle(t *testing.T) {
	now := time.Now()
	syn := NewSynthetic("cinegen", 10*time.Second)
	syn.now = func() time.Time { return now }

	spec := Spec{
		JobID:        "job-1",
		AttemptID:    "att-1",
		Kind:         domain.JobKindVideo,
		Requirements: domain.Requirements{DurationClass: "short"},
	}
	ref, err := syn.Submit(context.Background(), spec)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if ref != "syn-cinegen-att-1" {
		t.Fatalf("ref = %q, want syn-cinegen-att-1", ref)
	}

	now = now.Add(5 * time.Second)
	st, err := syn.QueryStatus(context.Background(), ref)
	if err != nil {
		t.Fatalf("QueryStatus mid-flight: %v", err)
	}
	if st.State != StateProcessing {
		t.Fatalf("state = %q, want %q", st.State, StateProcessing)
	}
	if st.Progress != 50 {
		t.Fatalf("progress = %d, want 50", st.Progress)
	}

	now = now.Add(6 * time.Second)
	st, err = syn.QueryStatus(context.Background(), ref)
	if err != nil {
		t.Fatalf("QueryStatus after completion: %v", err)
	}
	if st.State != StateCompleted || st.Progress != 100 {
		t.Fatalf("state/progress = %q/%d, want completed/100", st.State, st.Progress)
	}
	if st.Result == nil {
		t.Fatalf("completed status missing result")
	}
	if !strings.HasSuffix(st.Result.ArtifactURL, ".mp4") {
		t.Fatalf("video artifact url = %q, want .mp4 suffix", st.Result.ArtifactURL)
	}
	if st.Result.DurationSeconds != 90 {
		t.Fatalf("duration = %d, want 90 for short class", st.Result.DurationSeconds)
	}
	if st.Result.QualityScore < 6.0 || st.Result.QualityScore > 9.5 {
		t.Fatalf("quality score %v out of [6.0, 9.5]", st.Result.QualityScore)
	}
}

func TestSyntheticUnknownRefIsRejected(t *testing.T) {
	syn := NewSynthetic("cinegen", time.Second)
	_, err := syn.QueryStatus(context.Background(), "syn-cinegen-ghost")
	var perr *domain.ProviderError
	if !errors.As(err, &perr) || perr.Class != domain.FailureProviderRejected {
		t.Fatalf("err = %v, want provider_rejected ProviderError", err)
	}
}

func TestSyntheticQualityIsStable(t *testing.T) {
	a := syntheticQuality("att-1")
	b := syntheticQuality("att-1")
	if a != b {
		t.Fatalf("syntheticQuality not deterministic: %v vs %v", a, b)
	}
}
