package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsdesk/opsdesk-backend/internal/core/domain"
	"github.com/opsdesk/opsdesk-backend/internal/core/ports"
)

// AnalyticsRepository runs store-side reporting queries that are cheaper in
// SQL than over a full collection snapshot.
type AnalyticsRepository struct {
	pool *pgxpool.Pool
}

var _ ports.AnalyticsRepository = (*AnalyticsRepository)(nil)

func NewAnalyticsRepository(pool *pgxpool.Pool) ports.AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

func (r *AnalyticsRepository) GetOverview(ctx context.Context) (*domain.AnalyticsOverview, error) {
	statusCounts, err := r.fetchStatusCounts(ctx)
	if err != nil {
		return nil, err
	}

	mttrHours, err := r.fetchMTTRHours(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.AnalyticsOverview{
		StatusCounts: statusCounts,
		MTTRHours:    mttrHours,
	}, nil
}

func (r *AnalyticsRepository) fetchStatusCounts(ctx context.Context) ([]domain.StatusCount, error) {
	const query = `
SELECT status, COUNT(*)
FROM tickets
GROUP BY status
`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[domain.TicketStatus]int64{
		domain.StatusOpen:       0,
		domain.StatusInProgress: 0,
		domain.StatusResolved:   0,
		domain.StatusClosed:     0,
	}

	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[domain.TicketStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return []domain.StatusCount{
		{Status: domain.StatusOpen, Count: counts[domain.StatusOpen]},
		{Status: domain.StatusInProgress, Count: counts[domain.StatusInProgress]},
		{Status: domain.StatusResolved, Count: counts[domain.StatusResolved]},
		{Status: domain.StatusClosed, Count: counts[domain.StatusClosed]},
	}, nil
}

func (r *AnalyticsRepository) fetchMTTRHours(ctx context.Context) (float64, error) {
	const query = `
SELECT AVG(EXTRACT(EPOCH FROM (resolved_at - created_at)))
FROM tickets
WHERE resolved_at IS NOT NULL
`

	row := r.pool.QueryRow(ctx, query)
	var avgSeconds pgtype.Float8
	if err := row.Scan(&avgSeconds); err != nil {
		return 0, err
	}
	if !avgSeconds.Valid {
		return 0, nil
	}
	return avgSeconds.Float64 / 3600, nil
}
