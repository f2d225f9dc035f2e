package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Ariet2003/cashier-service/internal/entity"
)

type StatisticsRepository struct {
	store
}

func NewStatisticsRepository(db *sql.DB, timeout time.Duration) *StatisticsRepository {
	return &StatisticsRepository{newStore(db, timeout)}
}

// Summarize counts orders in [from, to]. Paid orders and revenue are windowed by
// paid_at, everything else by created_at.
func (r *StatisticsRepository) Summarize(ctx context.Context, from, to time.Time) (*entity.Statistics, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT
			COALESCE(SUM(created_at BETWEEN ? AND ?), 0),
			COALESCE(SUM(status = ? AND paid_at BETWEEN ? AND ?), 0),
			COALESCE(SUM(status = ? AND created_at BETWEEN ? AND ?), 0),
			COALESCE(SUM(status = ? AND created_at BETWEEN ? AND ?), 0),
			COALESCE(SUM(CASE WHEN status = ? AND paid_at BETWEEN ? AND ? THEN total_price END), 0)
		FROM orders`

	stats := &entity.Statistics{}
	err := r.db.QueryRowContext(ctx, query,
		from, to,
		entity.OrderStatusPaid, from, to,
		entity.OrderStatusCancelled, from, to,
		entity.OrderStatusOpen, from, to,
		entity.OrderStatusPaid, from, to,
	).Scan(&stats.TotalOrders, &stats.PaidOrders, &stats.CancelledOrders, &stats.OpenOrders, &stats.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize orders: %w", err)
	}
	return stats, nil
}

// CreatedTimes lists created_at of every order in [from, to] for bucketing.
func (r *StatisticsRepository) CreatedTimes(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT created_at FROM orders WHERE created_at BETWEEN ? AND ?`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list order times: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan order time: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list order times: %w", err)
	}
	return out, nil
}
