package analytics

import (
	"context"

	"github.com/rs/zerolog"

	"mediagen/internal/domain"
	"mediagen/internal/registry"
)

// Recorder appends attempt outcomes and feeds the registry's rolling
// statistics. Every failure in here is logged and swallowed: analytics
// durability is decoupled from job completion by design.
type Recorder struct {
	outcomes domain.OutcomeRepository
	stats    domain.ProviderStatsRepository
	registry *registry.Registry
	logger   zerolog.Logger
}

// NewRecorder wires the recorder. The stats repository may be nil when
// rolling aggregates should not be persisted across restarts.
func NewRecorder(outcomes domain.OutcomeRepository, stats domain.ProviderStatsRepository, reg *registry.Registry, logger zerolog.Logger) *Recorder {
	return &Recorder{outcomes: outcomes, stats: stats, registry: reg, logger: logger}
}

// Record folds one outcome into the registry and appends it to the log.
func (r *Recorder) Record(ctx context.Context, rec domain.OutcomeRecord) {
	updated, known := r.registry.RecordOutcome(rec)

	if err := r.outcomes.Append(ctx, rec); err != nil {
		r.logger.Error().Err(err).
			Str("job_id", rec.JobID).
			Str("provider_id", rec.ProviderID).
			Msg("analytics: append outcome failed")
	}

	if known && r.stats != nil {
		if err := r.stats.Save(ctx, rec.ProviderID, updated); err != nil {
			r.logger.Error().Err(err).
				Str("provider_id", rec.ProviderID).
				Msg("analytics: persist provider stats failed")
		}
	}
}

// Report aggregates the outcome log for the reporting surfaces.
func (r *Recorder) Report(ctx context.Context, filter domain.ReportFilter) ([]domain.ReportRow, error) {
	switch filter.GroupBy {
	case domain.ReportGroupProvider, domain.ReportGroupKind, domain.ReportGroupRegion:
	case "":
		filter.GroupBy = domain.ReportGroupProvider
	default:
		return nil, domain.ErrInvalidRequest
	}
	return r.outcomes.Aggregate(ctx, filter)
}
