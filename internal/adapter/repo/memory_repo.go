package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"mediagen/internal/domain"
)

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// MemoryJobRepository is an in-memory domain.JobRepository used by tests
// and catalog-only runs without a database.
type MemoryJobRepository struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
}

func NewMemoryJobRepository() *MemoryJobRepository {
	return &MemoryJobRepository{jobs: make(map[string]*domain.Job)}
}

func (r *MemoryJobRepository) Create(ctx context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job.Clone()
	return nil
}

func (r *MemoryJobRepository) Update(ctx context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		return domain.ErrNotFound
	}
	r.jobs[job.ID] = job.Clone()
	return nil
}

func (r *MemoryJobRepository) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return job.Clone(), nil
}

func (r *MemoryJobRepository) ListUnfinished(ctx context.Context) ([]*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Job
	for _, job := range r.jobs {
		if !job.State.Terminal() {
			out = append(out, job.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// MemoryOutcomeRepository is an in-memory append-only outcome log.
type MemoryOutcomeRepository struct {
	mu      sync.Mutex
	records []domain.OutcomeRecord
}

func NewMemoryOutcomeRepository() *MemoryOutcomeRepository {
	return &MemoryOutcomeRepository{}
}

func (r *MemoryOutcomeRepository) Append(ctx context.Context, rec domain.OutcomeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

// Records returns a copy of everything appended so far.
func (r *MemoryOutcomeRepository) Records() []domain.OutcomeRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.OutcomeRecord(nil), r.records...)
}

func (r *MemoryOutcomeRepository) Aggregate(ctx context.Context, filter domain.ReportFilter) ([]domain.ReportRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	type bucket struct {
		row          domain.ReportRow
		qualitySum   float64
		qualityCount int
		genSum       float64
	}
	buckets := make(map[string]*bucket)
	for _, rec := range r.records {
		if filter.ProviderID != "" && rec.ProviderID != filter.ProviderID {
			continue
		}
		if filter.Kind != "" && rec.Kind != filter.Kind {
			continue
		}
		if filter.Region != "" && rec.Region != filter.Region {
			continue
		}
		if !filter.Since.IsZero() && rec.CreatedAt.Before(filter.Since) {
			continue
		}
		if !filter.Until.IsZero() && !rec.CreatedAt.Before(filter.Until) {
			continue
		}
		var key string
		switch filter.GroupBy {
		case domain.ReportGroupKind:
			key = string(rec.Kind)
		case domain.ReportGroupRegion:
			key = rec.Region
		default:
			key = rec.ProviderID
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{row: domain.ReportRow{Key: key}}
			buckets[key] = b
		}
		b.row.Attempts++
		switch rec.Outcome {
		case domain.AttemptOutcomeSuccess:
			b.row.Successes++
			b.genSum += rec.GenerationSeconds
		case domain.AttemptOutcomeTimeout:
			b.row.Timeouts++
		default:
			b.row.Failures++
		}
		if rec.QualityScore != nil {
			b.qualitySum += *rec.QualityScore
			b.qualityCount++
		}
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]domain.ReportRow, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]
		if b.qualityCount > 0 {
			b.row.AvgQuality = b.qualitySum / float64(b.qualityCount)
		}
		if b.row.Successes > 0 {
			b.row.AvgGenerationSeconds = b.genSum / float64(b.row.Successes)
		}
		out = append(out, b.row)
	}
	return out, nil
}

// MemoryProviderStatsRepository is an in-memory stats table.
type MemoryProviderStatsRepository struct {
	mu    sync.Mutex
	stats map[string]domain.ProviderStats
}

func NewMemoryProviderStatsRepository() *MemoryProviderStatsRepository {
	return &MemoryProviderStatsRepository{stats: make(map[string]domain.ProviderStats)}
}

func (r *MemoryProviderStatsRepository) Load(ctx context.Context) (map[string]domain.ProviderStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]domain.ProviderStats, len(r.stats))
	for id, stats := range r.stats {
		out[id] = stats
	}
	return out, nil
}

func (r *MemoryProviderStatsRepository) Save(ctx context.Context, providerID string, stats domain.ProviderStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats[providerID] = stats
	return nil
}

var (
	_ domain.JobRepository           = (*MemoryJobRepository)(nil)
	_ domain.OutcomeRepository       = (*MemoryOutcomeRepository)(nil)
	_ domain.ProviderStatsRepository = (*MemoryProviderStatsRepository)(nil)
)
