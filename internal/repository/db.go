package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// store is embedded by every repository; it bounds each storage round-trip.
type store struct {
	db      *sql.DB
	timeout time.Duration
}

func newStore(db *sql.DB, timeout time.Duration) store {
	return store{db: db, timeout: timeout}
}

func (s store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// inClause returns "(?,?,?)" and the ids as driver args.
func inClause(ids []int) (string, []interface{}) {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + ")", args
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
