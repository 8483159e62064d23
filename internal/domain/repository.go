package domain

import "context"

// JobRepository defines persistence for job entities.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	Update(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, jobID string) (*Job, error)
	ListUnfinished(ctx context.Context) ([]*Job, error)
}

// OutcomeRepository is the append-only attempt outcome log.
type OutcomeRepository interface {
	Append(ctx context.Context, rec OutcomeRecord) error
	Aggregate(ctx context.Context, filter ReportFilter) ([]ReportRow, error)
}

// ProviderStatsRepository persists rolling provider aggregates so the
// registry survives restarts.
type ProviderStatsRepository interface {
	Load(ctx context.Context) (map[string]ProviderStats, error)
	Save(ctx context.Context, providerID string, stats ProviderStats) error
}
