package domain

import "time"

// JobKind enumerates the media artifacts a job can request.
type JobKind string

const (
	JobKindPodcast JobKind = "podcast"
	JobKindVideo   JobKind = "video"
)

// JobState enumerates job lifecycle states.
type JobState string

const (
	JobStateQueued           JobState = "queued"
	JobStateProviderSelected JobState = "provider_selected"
	JobStateSubmitted        JobState = "submitted"
	JobStateProcessing       JobState = "processing"
	JobStateCompleted        JobState = "completed"
	JobStateFailed           JobState = "failed"
	JobStateCancelled        JobState = "cancelled"
)

// Terminal reports whether a state admits no further transitions.
func (s JobState) Terminal() bool {
	switch s {
	case JobStateCompleted, JobStateFailed, JobStateCancelled:
		return true
	}
	return false
}

var jobTransitions = map[JobState]map[JobState]bool{
	JobStateQueued: {
		JobStateProviderSelected: true,
		JobStateFailed:           true,
		JobStateCancelled:        true,
	},
	JobStateProviderSelected: {
		JobStateProviderSelected: true,
		JobStateSubmitted:        true,
		JobStateFailed:           true,
		JobStateCancelled:        true,
	},
	JobStateSubmitted: {
		JobStateProcessing:       true,
		JobStateProviderSelected: true,
		JobStateCompleted:        true,
		JobStateFailed:           true,
		JobStateCancelled:        true,
	},
	JobStateProcessing: {
		JobStateProcessing:       true,
		JobStateProviderSelected: true,
		JobStateCompleted:        true,
		JobStateFailed:           true,
		JobStateCancelled:        true,
	},
}

// CanTransition reports whether moving from one state to another is legal.
func CanTransition(from, to JobState) bool {
	return jobTransitions[from][to]
}

// Requirements describes what the requested artifact must look like.
type Requirements struct {
	DurationClass string   `json:"duration_class"`
	Style         string   `json:"style,omitempty"`
	QualityTier   string   `json:"quality_tier"`
	Industry      string   `json:"industry,omitempty"`
	Features      []string `json:"features,omitempty"`
}

// Duration class upper bounds in seconds, checked against provider limits.
const (
	shortDurationSeconds    = 90
	standardDurationSeconds = 300
	extendedDurationSeconds = 900
)

// DurationSeconds returns the upper bound implied by the duration class.
// Unknown classes fall back to the standard bound.
func (r Requirements) DurationSeconds() int {
	switch r.DurationClass {
	case "short":
		return shortDurationSeconds
	case "extended":
		return extendedDurationSeconds
	default:
		return standardDurationSeconds
	}
}

// AttemptOutcome enumerates how a single provider attempt ended.
type AttemptOutcome string

const (
	AttemptOutcomePending AttemptOutcome = "pending"
	AttemptOutcomeSuccess AttemptOutcome = "success"
	AttemptOutcomeFailure AttemptOutcome = "failure"
	AttemptOutcomeTimeout AttemptOutcome = "timeout"
)

// Attempt records one submission of a job to one provider.
type Attempt struct {
	ID           string         `json:"id"`
	Number       int            `json:"number"`
	ProviderID   string         `json:"provider_id"`
	ExternalRef  string         `json:"external_ref,omitempty"`
	Outcome      AttemptOutcome `json:"outcome"`
	ErrorMessage string         `json:"error_message,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	EndedAt      *time.Time     `json:"ended_at,omitempty"`
}

// Result holds the artifact produced by a completed job.
type Result struct {
	ArtifactURL     string  `json:"artifact_url"`
	DurationSeconds int     `json:"duration_seconds"`
	Transcript      string  `json:"transcript,omitempty"`
	QualityScore    float64 `json:"quality_score"`
}

// Job encapsulates the lifecycle of one media-generation request.
type Job struct {
	ID                 string
	Kind               JobKind
	Requirements       Requirements
	Criteria           SelectionCriteria
	State              JobState
	SelectedProviderID string
	RankedProviderIDs  []string
	AttemptCount       int
	Attempts           []Attempt
	Progress           int
	Result             *Result
	ErrorMessage       string
	FailureCause       FailureCause
	Region             string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	CompletedAt        *time.Time
}

// CurrentAttempt returns the most recent attempt, or nil before the first one.
func (j *Job) CurrentAttempt() *Attempt {
	if len(j.Attempts) == 0 {
		return nil
	}
	return &j.Attempts[len(j.Attempts)-1]
}

// Clone returns a deep copy safe to hand out as a snapshot.
func (j *Job) Clone() *Job {
	cp := *j
	cp.RankedProviderIDs = append([]string(nil), j.RankedProviderIDs...)
	cp.Requirements.Features = append([]string(nil), j.Requirements.Features...)
	cp.Attempts = make([]Attempt, len(j.Attempts))
	copy(cp.Attempts, j.Attempts)
	for i := range cp.Attempts {
		if j.Attempts[i].EndedAt != nil {
			ended := *j.Attempts[i].EndedAt
			cp.Attempts[i].EndedAt = &ended
		}
	}
	if j.Result != nil {
		res := *j.Result
		cp.Result = &res
	}
	if j.CompletedAt != nil {
		done := *j.CompletedAt
		cp.CompletedAt = &done
	}
	return &cp
}
