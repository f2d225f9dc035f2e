package repository

import "errors"

var (
	ErrNotFound = errors.New("resource not found")
	// ErrNotPayable means the order exists but is no longer OPEN.
	ErrNotPayable = errors.New("order is not open")
	// ErrMultipleActiveShifts signals storage holding more than one active shift.
	ErrMultipleActiveShifts = errors.New("more than one active shift")
	ErrNoActiveShift        = errors.New("no active shift")
)
