package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"mediagen/internal/domain"
)

// ProviderStatsRepositoryPG persists the registry's rolling aggregates so
// the reliability feedback loop survives restarts.
type ProviderStatsRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewProviderStatsRepository creates a stats repository backed by PostgreSQL.
func NewProviderStatsRepository(pool *pgxpool.Pool) *ProviderStatsRepositoryPG {
	return &ProviderStatsRepositoryPG{pool: pool}
}

// Load returns the persisted stats keyed by provider id.
func (r *ProviderStatsRepositoryPG) Load(ctx context.Context) (map[string]domain.ProviderStats, error) {
	rows, err := r.pool.Query(ctx, `
SELECT provider_id, attempts, successes, reliability, avg_latency_seconds, avg_quality
FROM provider_stats;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]domain.ProviderStats)
	for rows.Next() {
		var id string
		var stats domain.ProviderStats
		if err := rows.Scan(
			&id,
			&stats.Attempts,
			&stats.Successes,
			&stats.Reliability,
			&stats.AvgLatencySeconds,
			&stats.AvgQuality,
		); err != nil {
			return nil, err
		}
		out[id] = stats
	}
	return out, rows.Err()
}

// Save upserts one provider's aggregates in place.
func (r *ProviderStatsRepositoryPG) Save(ctx context.Context, providerID string, stats domain.ProviderStats) error {
	query := `
INSERT INTO provider_stats (
    provider_id, attempts, successes, reliability, avg_latency_seconds, avg_quality, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (provider_id) DO UPDATE SET
    attempts = EXCLUDED.attempts,
    successes = EXCLUDED.successes,
    reliability = EXCLUDED.reliability,
    avg_latency_seconds = EXCLUDED.avg_latency_seconds,
    avg_quality = EXCLUDED.avg_quality,
    updated_at = EXCLUDED.updated_at;
`
	_, err := r.pool.Exec(ctx, query,
		providerID,
		stats.Attempts,
		stats.Successes,
		stats.Reliability,
		stats.AvgLatencySeconds,
		stats.AvgQuality,
		time.Now(),
	)
	return err
}
