package provider

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"mediagen/internal/domain"
)

// Synthetic is a deterministic in-process generator used for providers
// with no endpoint configured. It keeps the orchestrator fully operable
// in local and CI environments: jobs progress over a short simulated
// window and complete with a quality score derived from the attempt id.
type Synthetic struct {
	providerID string
	duration   time.Duration
	now        func() time.Time

	mu   sync.Mutex
	jobs map[string]syntheticJob
}

type syntheticJob struct {
	spec      Spec
	startedAt time.Time
}

// NewSynthetic builds a synthetic generator that finishes jobs after the
// given simulated duration.
func NewSynthetic(providerID string, duration time.Duration) *Synthetic {
	if duration <= 0 {
		duration = 2 * time.Second
	}
	return &Synthetic{
		providerID: providerID,
		duration:   duration,
		now:        time.Now,
		jobs:       make(map[string]syntheticJob),
	}
}

// Submit registers the job and returns a deterministic reference.
func (s *Synthetic) Submit(ctx context.Context, spec Spec) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref := fmt.Sprintf("syn-%s-%s", s.providerID, spec.AttemptID)
	s.mu.Lock()
	s.jobs[ref] = syntheticJob{spec: spec, startedAt: s.now()}
	s.mu.Unlock()
	return ref, nil
}

// QueryStatus reports progress proportional to elapsed simulated time.
func (s *Synthetic) QueryStatus(ctx context.Context, externalRef string) (Status, error) {
	if err := ctx.Err(); err != nil {
		return Status{}, err
	}
	s.mu.Lock()
	job, ok := s.jobs[externalRef]
	s.mu.Unlock()
	if !ok {
		return Status{}, &domain.ProviderError{Class: domain.FailureProviderRejected, Message: "unknown job reference"}
	}

	elapsed := s.now().Sub(job.startedAt)
	if elapsed < s.duration {
		progress := int(elapsed * 100 / s.duration)
		if progress > 99 {
			progress = 99
		}
		return Status{State: StateProcessing, Progress: progress}, nil
	}

	s.mu.Lock()
	delete(s.jobs, externalRef)
	s.mu.Unlock()
	return Status{
		State:    StateCompleted,
		Progress: 100,
		Result: &domain.Result{
			ArtifactURL:     fmt.Sprintf("https://cdn.mediagen.local/%s/%s.%s", s.providerID, job.spec.JobID, artifactExt(job.spec.Kind)),
			DurationSeconds: job.spec.Requirements.DurationSeconds(),
			QualityScore:    syntheticQuality(job.spec.AttemptID),
		},
	}, nil
}

func artifactExt(kind domain.JobKind) string {
	if kind == domain.JobKindPodcast {
		return "mp3"
	}
	return "mp4"
}

// syntheticQuality maps an attempt id onto a stable score in [6.0, 9.5].
func syntheticQuality(attemptID string) float64 {
	sum := sha256.Sum256([]byte(attemptID))
	n := binary.BigEndian.Uint16(sum[:2])
	return 6.0 + float64(n%350)/100
}

var _ Client = (*Synthetic)(nil)
