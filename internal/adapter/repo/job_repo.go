package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mediagen/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository on PostgreSQL. The
// variable-shape parts of a job (requirements, criteria, attempts,
// result) live in JSONB columns.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

// Create inserts a new job record.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	query := `
INSERT INTO jobs (
    id, kind, state, requirements, criteria, selected_provider_id, ranked_provider_ids,
    attempt_count, attempts, progress, result, error_message, failure_cause, region,
    created_at, updated_at, completed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
`
	args, err := jobArgs(job)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, query, args...)
	return err
}

// Update overwrites the persisted snapshot of a job.
func (r *JobRepositoryPG) Update(ctx context.Context, job *domain.Job) error {
	query := `
UPDATE jobs
SET kind = $2,
    state = $3,
    requirements = $4,
    criteria = $5,
    selected_provider_id = $6,
    ranked_provider_ids = $7,
    attempt_count = $8,
    attempts = $9,
    progress = $10,
    result = $11,
    error_message = $12,
    failure_cause = $13,
    region = $14,
    created_at = $15,
    updated_at = $16,
    completed_at = $17
WHERE id = $1;
`
	args, err := jobArgs(job)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, query, args...)
	return err
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := selectJobQuery + ` WHERE id = $1;`
	job, err := scanJob(r.pool.QueryRow(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// ListUnfinished returns every job not yet in a terminal state, oldest first.
func (r *JobRepositoryPG) ListUnfinished(ctx context.Context) ([]*domain.Job, error) {
	query := selectJobQuery + `
WHERE state NOT IN ('completed', 'failed', 'cancelled')
ORDER BY created_at;`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

const selectJobQuery = `
SELECT id, kind, state, requirements, criteria, selected_provider_id, ranked_provider_ids,
       attempt_count, attempts, progress, result, error_message, failure_cause, region,
       created_at, updated_at, completed_at
FROM jobs`

func jobArgs(job *domain.Job) ([]any, error) {
	requirements, err := json.Marshal(job.Requirements)
	if err != nil {
		return nil, fmt.Errorf("encode requirements: %w", err)
	}
	criteria, err := json.Marshal(job.Criteria)
	if err != nil {
		return nil, fmt.Errorf("encode criteria: %w", err)
	}
	attempts, err := json.Marshal(job.Attempts)
	if err != nil {
		return nil, fmt.Errorf("encode attempts: %w", err)
	}
	var result []byte
	if job.Result != nil {
		if result, err = json.Marshal(job.Result); err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
	}
	return []any{
		job.ID,
		job.Kind,
		job.State,
		requirements,
		criteria,
		job.SelectedProviderID,
		job.RankedProviderIDs,
		job.AttemptCount,
		attempts,
		job.Progress,
		result,
		job.ErrorMessage,
		job.FailureCause,
		job.Region,
		job.CreatedAt,
		job.UpdatedAt,
		job.CompletedAt,
	}, nil
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	var requirements, criteria, attempts, result []byte
	if err := row.Scan(
		&job.ID,
		&job.Kind,
		&job.State,
		&requirements,
		&criteria,
		&job.SelectedProviderID,
		&job.RankedProviderIDs,
		&job.AttemptCount,
		&attempts,
		&job.Progress,
		&result,
		&job.ErrorMessage,
		&job.FailureCause,
		&job.Region,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.CompletedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(requirements, &job.Requirements); err != nil {
		return nil, fmt.Errorf("decode requirements: %w", err)
	}
	if err := json.Unmarshal(criteria, &job.Criteria); err != nil {
		return nil, fmt.Errorf("decode criteria: %w", err)
	}
	if len(attempts) > 0 {
		if err := json.Unmarshal(attempts, &job.Attempts); err != nil {
			return nil, fmt.Errorf("decode attempts: %w", err)
		}
	}
	if len(result) > 0 {
		job.Result = &domain.Result{}
		if err := json.Unmarshal(result, job.Result); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
	}
	return &job, nil
}
