package entity

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleCashier Role = "CASHIER"
	RoleWaiter  Role = "WAITER"
	RoleAdmin   Role = "ADMIN"
)

// ParseRole rejects anything outside the known set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCashier, RoleWaiter, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	FullName     string `json:"fullName"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	IsActive     bool   `json:"isActive"`
}

// UserProfile is the public part of a user handed back to clients.
type UserProfile struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Role     Role   `json:"role"`
}

func (u *User) Profile() UserProfile {
	return UserProfile{ID: u.ID, Username: u.Username, FullName: u.FullName, Role: u.Role}
}

type Shift struct {
	ID        int        `json:"id"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	IsActive  bool       `json:"isActive"`
}

type ShiftSummary struct {
	ID        int       `json:"id"`
	StartedAt time.Time `json:"startedAt"`
}

func (s *Shift) Summary() ShiftSummary {
	return ShiftSummary{ID: s.ID, StartedAt: s.StartedAt}
}

type ShiftStaff struct {
	ShiftID int `json:"shiftId"`
	UserID  int `json:"userId"`
}

/*
Mysql Schema: see migrations.AutoMigrate

users(id, username UNIQUE, full_name, password_hash, role, is_active)
shifts(id, started_at, ended_at, is_active, active_marker UNIQUE generated)
shift_staff(shift_id, user_id) PRIMARY KEY (shift_id, user_id)
*/
