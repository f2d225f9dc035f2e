package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Ariet2003/cashier-service/internal/entity"
)

type UserRepository struct {
	store
}

func NewUserRepository(db *sql.DB, timeout time.Duration) *UserRepository {
	return &UserRepository{newStore(db, timeout)}
}

const userColumns = `id, username, full_name, password_hash, role, is_active`

func (r *UserRepository) FindActiveCashierByUsername(ctx context.Context, username string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ? AND is_active = TRUE AND role = ?`
	return r.findOne(ctx, query, username, entity.RoleCashier)
}

func (r *UserRepository) FindActiveCashierByID(ctx context.Context, id int) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ? AND is_active = TRUE AND role = ?`
	return r.findOne(ctx, query, id, entity.RoleCashier)
}

func (r *UserRepository) SetActive(ctx context.Context, id int, active bool) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	user := &entity.User{}
	var role string
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&user.ID, &user.Username, &user.FullName, &user.PasswordHash, &role, &user.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Role, err = entity.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", user.ID, err)
	}
	return user, nil
}
