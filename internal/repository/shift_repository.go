package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Ariet2003/cashier-service/internal/entity"
)

type ShiftRepository struct {
	store
}

func NewShiftRepository(db *sql.DB, timeout time.Duration) *ShiftRepository {
	return &ShiftRepository{newStore(db, timeout)}
}

// FindActive returns the single active shift, ErrNoActiveShift when there is
// none and ErrMultipleActiveShifts when storage holds more than one.
func (r *ShiftRepository) FindActive(ctx context.Context) (*entity.Shift, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT id, started_at, ended_at, is_active FROM shifts WHERE is_active = TRUE ORDER BY id LIMIT 2`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active shift: %w", err)
	}
	defer rows.Close()

	var shifts []*entity.Shift
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get active shift: %w", err)
	}

	switch len(shifts) {
	case 0:
		return nil, ErrNoActiveShift
	case 1:
		return shifts[0], nil
	default:
		return nil, ErrMultipleActiveShifts
	}
}

func (r *ShiftRepository) FindActiveByID(ctx context.Context, id int) (*entity.Shift, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT id, started_at, ended_at, is_active FROM shifts WHERE id = ? AND is_active = TRUE`
	shift, err := scanShift(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return shift, nil
}

func (r *ShiftRepository) IsAssigned(ctx context.Context, shiftID, userID int) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM shift_staff WHERE shift_id = ? AND user_id = ?)`
	if err := r.db.QueryRowContext(ctx, query, shiftID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check shift assignment: %w", err)
	}
	return exists, nil
}

// Start closes any active shift and opens a new one with the given staff, in one transaction.
func (r *ShiftRepository) Start(ctx context.Context, startedAt time.Time, staffIDs []int) (*entity.Shift, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `UPDATE shifts SET is_active = FALSE, ended_at = ? WHERE is_active = TRUE`, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to close active shift: %w", err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO shifts (started_at, is_active) VALUES (?, TRUE)`, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert shift: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to insert shift: %w", err)
	}

	for _, userID := range staffIDs {
		_, err = tx.ExecContext(ctx, `INSERT INTO shift_staff (shift_id, user_id) VALUES (?, ?)`, id, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to assign user %d to shift: %w", userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &entity.Shift{ID: int(id), StartedAt: startedAt, IsActive: true}, nil
}

// EndActive deactivates the active shift, returning ErrNoActiveShift when none is open.
func (r *ShiftRepository) EndActive(ctx context.Context, endedAt time.Time) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE shifts SET is_active = FALSE, ended_at = ? WHERE is_active = TRUE`, endedAt)
	if err != nil {
		return fmt.Errorf("failed to end shift: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to end shift: %w", err)
	}
	if n == 0 {
		return ErrNoActiveShift
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanShift(row rowScanner) (*entity.Shift, error) {
	shift := &entity.Shift{}
	var endedAt sql.NullTime
	if err := row.Scan(&shift.ID, &shift.StartedAt, &endedAt, &shift.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan shift: %w", err)
	}
	shift.EndedAt = timePtr(endedAt)
	return shift, nil
}
