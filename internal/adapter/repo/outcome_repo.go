package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"mediagen/internal/domain"
)

// OutcomeRepositoryPG implements the append-only outcome log on PostgreSQL.
type OutcomeRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewOutcomeRepository creates an outcome repository backed by PostgreSQL.
func NewOutcomeRepository(pool *pgxpool.Pool) *OutcomeRepositoryPG {
	return &OutcomeRepositoryPG{pool: pool}
}

// Append inserts one outcome record. Records are never updated or deleted.
func (r *OutcomeRepositoryPG) Append(ctx context.Context, rec domain.OutcomeRecord) error {
	query := `
INSERT INTO outcome_records (
    job_id, attempt_id, provider_id, kind, outcome, quality_score,
    generation_seconds, cost_tier, region, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`
	_, err := r.pool.Exec(ctx, query,
		rec.JobID,
		rec.AttemptID,
		rec.ProviderID,
		rec.Kind,
		rec.Outcome,
		rec.QualityScore,
		rec.GenerationSeconds,
		rec.CostTier,
		rec.Region,
		rec.CreatedAt,
	)
	return err
}

// Aggregate groups the outcome log along one dimension. The grouping
// column comes from a fixed set validated by the recorder, never from
// raw client input.
func (r *OutcomeRepositoryPG) Aggregate(ctx context.Context, filter domain.ReportFilter) ([]domain.ReportRow, error) {
	var dim string
	switch filter.GroupBy {
	case domain.ReportGroupKind:
		dim = "kind"
	case domain.ReportGroupRegion:
		dim = "region"
	case domain.ReportGroupProvider, "":
		dim = "provider_id"
	default:
		return nil, fmt.Errorf("%w: group by %q", domain.ErrInvalidRequest, filter.GroupBy)
	}

	query := `
SELECT ` + dim + ` AS dim,
       COUNT(*) AS attempts,
       COUNT(*) FILTER (WHERE outcome = 'success') AS successes,
       COUNT(*) FILTER (WHERE outcome = 'failure') AS failures,
       COUNT(*) FILTER (WHERE outcome = 'timeout') AS timeouts,
       COALESCE(AVG(quality_score), 0) AS avg_quality,
       COALESCE(AVG(generation_seconds) FILTER (WHERE outcome = 'success'), 0) AS avg_generation_seconds
FROM outcome_records
WHERE ($1 = '' OR provider_id = $1)
  AND ($2 = '' OR kind = $2)
  AND ($3 = '' OR region = $3)
  AND ($4::timestamptz IS NULL OR created_at >= $4)
  AND ($5::timestamptz IS NULL OR created_at < $5)
GROUP BY dim
ORDER BY dim;
`
	rows, err := r.pool.Query(ctx, query,
		filter.ProviderID,
		string(filter.Kind),
		filter.Region,
		nullableTime(filter.Since),
		nullableTime(filter.Until),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ReportRow
	for rows.Next() {
		var row domain.ReportRow
		if err := rows.Scan(
			&row.Key,
			&row.Attempts,
			&row.Successes,
			&row.Failures,
			&row.Timeouts,
			&row.AvgQuality,
			&row.AvgGenerationSeconds,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
