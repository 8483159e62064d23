package domain

// Quality preferences and speed priorities accepted in selection criteria.
const (
	QualityPreferenceStandard = "standard"
	QualityPreferenceHigh     = "high"

	SpeedPriorityNormal = "normal"
	SpeedPriorityFast   = "fast"
)

// SelectionCriteria is the per-request value object steering provider
// ranking. It is derived from the client request and never persisted on
// its own.
type SelectionCriteria struct {
	QualityPreference string `json:"quality_preference,omitempty"`
	SpeedPriority     string `json:"speed_priority,omitempty"`
	BudgetCeiling     int    `json:"budget_ceiling,omitempty"`
}

// Normalize fills unset fields with their defaults and clamps the budget
// ceiling to the known cost-tier range.
func (c *SelectionCriteria) Normalize() {
	if c.QualityPreference == "" {
		c.QualityPreference = QualityPreferenceStandard
	}
	if c.SpeedPriority == "" {
		c.SpeedPriority = SpeedPriorityNormal
	}
	if c.BudgetCeiling < 0 {
		c.BudgetCeiling = 0
	}
	if c.BudgetCeiling > MaxCostTier {
		c.BudgetCeiling = MaxCostTier
	}
}

// Cost tiers run from 1 (cheapest) to MaxCostTier. A zero budget ceiling
// means no ceiling.
const MaxCostTier = 5
