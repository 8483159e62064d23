package domain

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name string
		from JobState
		to   JobState
		want bool
	}{
		{"queued to selected", JobStateQueued, JobStateProviderSelected, true},
		{"queued to failed", JobStateQueued, JobStateFailed, true},
		{"queued to completed", JobStateQueued, JobStateCompleted, false},
		{"selected to submitted", JobStateProviderSelected, JobStateSubmitted, true},
		{"selected self loop", JobStateProviderSelected, JobStateProviderSelected, true},
		{"submitted to processing", JobStateSubmitted, JobStateProcessing, true},
		{"submitted fallback", JobStateSubmitted, JobStateProviderSelected, true},
		{"processing fallback", JobStateProcessing, JobStateProviderSelected, true},
		{"processing self loop", JobStateProcessing, JobStateProcessing, true},
		{"processing to completed", JobStateProcessing, JobStateCompleted, true},
		{"completed is terminal", JobStateCompleted, JobStateProviderSelected, false},
		{"failed is terminal", JobStateFailed, JobStateQueued, false},
		{"cancelled is terminal", JobStateCancelled, JobStateProviderSelected, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []JobState{JobStateCompleted, JobStateFailed, JobStateCancelled} {
		if !s.Terminal() {
			t.Fatalf("%s.Terminal() = false, want true", s)
		}
	}
	for _, s := range []JobState{JobStateQueued, JobStateProviderSelected, JobStateSubmitted, JobStateProcessing} {
		if s.Terminal() {
			t.Fatalf("%s.Terminal() = true, want false", s)
		}
	}
}

func TestDurationSeconds(t *testing.T) {
	cases := []struct {
		class string
		want  int
	}{
		{"short", 90},
		{"standard", 300},
		{"extended", 900},
		{"", 300},
		{"bogus", 300},
	}
	for _, tc := range cases {
		req := Requirements{DurationClass: tc.class}
		if got := req.DurationSeconds(); got != tc.want {
			t.Fatalf("DurationSeconds(%q) = %d, want %d", tc.class, got, tc.want)
		}
	}
}

func TestJobCloneIsIndependent(t *testing.T) {
	ended := time.Now()
	job := &Job{
		ID:                "job-1",
		State:             JobStateProcessing,
		RankedProviderIDs: []string{"a", "b"},
		Attempts: []Attempt{
			{ID: "att-1", Number: 1, ProviderID: "a", Outcome: AttemptOutcomeFailure, EndedAt: &ended},
			{ID: "att-2", Number: 2, ProviderID: "b", Outcome: AttemptOutcomePending},
		},
		Result: &Result{ArtifactURL: "https://example.com/a.mp4"},
	}
	cp := job.Clone()

	cp.RankedProviderIDs[0] = "mutated"
	cp.Attempts[0].Outcome = AttemptOutcomeSuccess
	*cp.Attempts[0].EndedAt = ended.Add(time.Hour)
	cp.Result.ArtifactURL = "mutated"

	if job.RankedProviderIDs[0] != "a" {
		t.Fatalf("clone mutation leaked into ranked provider ids")
	}
	if job.Attempts[0].Outcome != AttemptOutcomeFailure {
		t.Fatalf("clone mutation leaked into attempts")
	}
	if !job.Attempts[0].EndedAt.Equal(ended) {
		t.Fatalf("clone mutation leaked into attempt end time")
	}
	if job.Result.ArtifactURL != "https://example.com/a.mp4" {
		t.Fatalf("clone mutation leaked into result")
	}
}

func TestCurrentAttempt(t *testing.T) {
	job := &Job{}
	if job.CurrentAttempt() != nil {
		t.Fatalf("CurrentAttempt on fresh job should be nil")
	}
	job.Attempts = append(job.Attempts, Attempt{ID: "att-1"}, Attempt{ID: "att-2"})
	if got := job.CurrentAttempt(); got == nil || got.ID != "att-2" {
		t.Fatalf("CurrentAttempt = %+v, want att-2", got)
	}
}
