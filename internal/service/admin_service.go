package service

import (
	"context"
	"errors"
	"time"

	"github.com/Ariet2003/cashier-service/internal/apperror"
	"github.com/Ariet2003/cashier-service/internal/entity"
	"github.com/Ariet2003/cashier-service/internal/repository"
)

type ShiftAdminStore interface {
	Start(ctx context.Context, startedAt time.Time, staffIDs []int) (*entity.Shift, error)
	EndActive(ctx context.Context, endedAt time.Time) error
}

type UserAdminStore interface {
	SetActive(ctx context.Context, id int, active bool) error
}

// AdminService backs the provisioning commands. It has no HTTP surface.
type AdminService struct {
	shifts ShiftAdminStore
	users  UserAdminStore
	now    func() time.Time
}

func NewAdminService(shifts ShiftAdminStore, users UserAdminStore) *AdminService {
	return &AdminService{shifts: shifts, users: users, now: time.Now}
}

// StartShift ends whatever shift is active and opens a new one staffed by staffIDs.
func (s *AdminService) StartShift(ctx context.Context, staffIDs []int) (*entity.Shift, error) {
	if len(staffIDs) == 0 {
		return nil, apperror.Validation("a shift needs at least one staff member")
	}
	seen := make(map[int]bool, len(staffIDs))
	for _, id := range staffIDs {
		if id <= 0 || seen[id] {
			return nil, apperror.Validation("staff ids must be positive and unique")
		}
		seen[id] = true
	}

	shift, err := s.shifts.Start(ctx, s.now(), staffIDs)
	if err != nil {
		logger.Error().Err(err).Ints("staff", staffIDs).Msg("Error starting shift")
		return nil, apperror.Storage(err)
	}
	logger.Info().Int("shift_id", shift.ID).Ints("staff", staffIDs).Msg("Shift started")
	return shift, nil
}

func (s *AdminService) EndShift(ctx context.Context) error {
	if err := s.shifts.EndActive(ctx, s.now()); err != nil {
		if errors.Is(err, repository.ErrNoActiveShift) {
			return apperror.StateConflict(msgNoActiveShift)
		}
		logger.Error().Err(err).Msg("Error ending shift")
		return apperror.Storage(err)
	}
	logger.Info().Msg("Shift ended")
	return nil
}

// SetUserActive toggles a user; sessions held by a deactivated user fail on their next request.
func (s *AdminService) SetUserActive(ctx context.Context, userID int, active bool) error {
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("user not found")
		}
		logger.Error().Err(err).Int("user_id", userID).Msg("Error updating user")
		return apperror.Storage(err)
	}
	return nil
}
