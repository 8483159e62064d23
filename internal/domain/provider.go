package domain

// Capabilities declares what a provider can produce.
type Capabilities struct {
	Kinds              []JobKind `json:"kinds"`
	MaxDurationSeconds int       `json:"max_duration_seconds"`
	QualityTiers       []string  `json:"quality_tiers"`
	Features           []string  `json:"features,omitempty"`
}

// SupportsKind reports whether the provider produces artifacts of the given kind.
func (c Capabilities) SupportsKind(kind JobKind) bool {
	for _, k := range c.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// SupportsQualityTier reports whether the provider offers the given tier.
func (c Capabilities) SupportsQualityTier(tier string) bool {
	if tier == "" {
		return true
	}
	for _, t := range c.QualityTiers {
		if t == tier {
			return true
		}
	}
	return false
}

// SupportsFeatures reports whether every requested feature is offered.
func (c Capabilities) SupportsFeatures(features []string) bool {
	if len(features) == 0 {
		return true
	}
	offered := make(map[string]struct{}, len(c.Features))
	for _, f := range c.Features {
		offered[f] = struct{}{}
	}
	for _, f := range features {
		if _, ok := offered[f]; !ok {
			return false
		}
	}
	return true
}

// Satisfies is the hard capability filter: kind, duration bound, quality
// tier, and the full requested feature set must all be covered.
func (c Capabilities) Satisfies(kind JobKind, req Requirements) bool {
	return c.SupportsKind(kind) &&
		c.MaxDurationSeconds >= req.DurationSeconds() &&
		c.SupportsQualityTier(req.QualityTier) &&
		c.SupportsFeatures(req.Features)
}

// ProviderStats carries the rolling aggregates fed back from observed outcomes.
type ProviderStats struct {
	Attempts          int64   `json:"attempts"`
	Successes         int64   `json:"successes"`
	Reliability       float64 `json:"reliability"`
	AvgLatencySeconds float64 `json:"avg_latency_seconds"`
	AvgQuality        float64 `json:"avg_quality"`
}

// Provider describes an external generation service. It is a capability
// descriptor, not a live connection; Stats is a point-in-time snapshot.
type Provider struct {
	ID              string       `json:"id"`
	DisplayName     string       `json:"display_name"`
	Capabilities    Capabilities `json:"capabilities"`
	CostTier        int          `json:"cost_tier"`
	ExpectedSeconds int          `json:"expected_seconds"`
	Callback        bool         `json:"callback"`
	Stats           ProviderStats `json:"stats"`
}
