package domain

import "time"

// OutcomeRecord is one append-only row describing how a single attempt
// ended. Records are never mutated after write; rolling provider stats
// are derived from them.
type OutcomeRecord struct {
	JobID             string         `json:"job_id"`
	AttemptID         string         `json:"attempt_id"`
	ProviderID        string         `json:"provider_id"`
	Kind              JobKind        `json:"kind"`
	Outcome           AttemptOutcome `json:"outcome"`
	QualityScore      *float64       `json:"quality_score,omitempty"`
	GenerationSeconds float64        `json:"generation_seconds"`
	CostTier          int            `json:"cost_tier"`
	Region            string         `json:"region,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// Report grouping dimensions.
const (
	ReportGroupProvider = "provider"
	ReportGroupKind     = "kind"
	ReportGroupRegion   = "region"
)

// ReportFilter narrows and groups outcome aggregation.
type ReportFilter struct {
	ProviderID string
	Kind       JobKind
	Region     string
	Since      time.Time
	Until      time.Time
	GroupBy    string
}

// ReportRow is one aggregate bucket produced by a report query.
type ReportRow struct {
	Key                  string  `json:"key"`
	Attempts             int     `json:"attempts"`
	Successes            int     `json:"successes"`
	Failures             int     `json:"failures"`
	Timeouts             int     `json:"timeouts"`
	AvgQuality           float64 `json:"avg_quality"`
	AvgGenerationSeconds float64 `json:"avg_generation_seconds"`
}
