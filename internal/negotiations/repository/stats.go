package repository

import (
	"context"
	"time"

	"imobcrm_backend/internal/negotiations/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// StatsFilters restrict the aggregation window. Zero values mean "no filter".
type StatsFilters struct {
	BrokerID uuid.UUID
	From     time.Time
	To       time.Time
}

// Stats are raw pipeline aggregates; derived figures (conversion rate,
// average ticket) are computed by the service.
type Stats struct {
	CountByStatus map[domain.Status]int
	Total         int
	Closed        int
	ClosedSum     decimal.Decimal
}

const statsByStatusQuery = `
	SELECT status, count(*)
	FROM negotiations
	WHERE tenant_id = $1
	  AND ($2::uuid IS NULL OR broker_id = $2)
	  AND ($3::timestamptz IS NULL OR created_at >= $3)
	  AND ($4::timestamptz IS NULL OR created_at < $4)
	GROUP BY status`

const statsClosedQuery = `
	SELECT count(*), COALESCE(sum(closing_value), 0)::text
	FROM negotiations
	WHERE tenant_id = $1 AND status = 'FECHADO'
	  AND ($2::uuid IS NULL OR broker_id = $2)
	  AND ($3::timestamptz IS NULL OR created_at >= $3)
	  AND ($4::timestamptz IS NULL OR created_at < $4)`

// Stats aggregates pipeline counts and closed-deal totals. The two queries
// run concurrently; both are read-only and tolerate an eventually-consistent
// snapshot with respect to in-flight mutations.
func (r *Repository) Stats(ctx context.Context, tenantID uuid.UUID, filters StatsFilters) (Stats, error) {
	args := []any{
		tenantID,
		nilIfZero(filters.BrokerID),
		nilIfZeroTime(filters.From),
		nilIfZeroTime(filters.To),
	}

	stats := Stats{CountByStatus: make(map[domain.Status]int)}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := r.pool.Query(gctx, statsByStatusQuery, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var status string
			var count int
			if err := rows.Scan(&status, &count); err != nil {
				return err
			}
			stats.CountByStatus[domain.Status(status)] = count
			stats.Total += count
		}
		return rows.Err()
	})

	var closedSum string
	g.Go(func() error {
		return r.pool.QueryRow(gctx, statsClosedQuery, args...).Scan(&stats.Closed, &closedSum)
	})

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	sum, err := decimal.NewFromString(closedSum)
	if err != nil {
		return Stats{}, err
	}
	stats.ClosedSum = sum
	return stats, nil
}

func nilIfZeroTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
