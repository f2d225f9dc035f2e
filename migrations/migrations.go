package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// statements are applied in order; every one is idempotent.
var statements = []struct {
	name  string
	query string
}{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id INT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(50) NOT NULL UNIQUE,
			full_name VARCHAR(100) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			INDEX users_role_active_idx (role, is_active)
		);
	`},
	// active_marker is 1 for the active shift and NULL otherwise; the unique key
	// therefore admits at most one active shift.
	{"shifts", `
		CREATE TABLE IF NOT EXISTS shifts (
			id INT AUTO_INCREMENT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			ended_at DATETIME NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			active_marker TINYINT GENERATED ALWAYS AS (IF(is_active, 1, NULL)) STORED,
			UNIQUE KEY shifts_single_active_uq (active_marker)
		);
	`},
	{"shift_staff", `
		CREATE TABLE IF NOT EXISTS shift_staff (
			shift_id INT NOT NULL,
			user_id INT NOT NULL,
			PRIMARY KEY (shift_id, user_id),
			FOREIGN KEY (shift_id) REFERENCES shifts(id) ON DELETE CASCADE,
			FOREIGN KEY (user_id) REFERENCES users(id)
		);
	`},
	{"categories", `
		CREATE TABLE IF NOT EXISTS categories (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(100) NOT NULL
		);
	`},
	{"menu_items", `
		CREATE TABLE IF NOT EXISTS menu_items (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(150) NOT NULL,
			category_id INT NULL,
			price DECIMAL(10,2) NOT NULL,
			FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE SET NULL
		);
	`},
	{"orders", `
		CREATE TABLE IF NOT EXISTS orders (
			id INT AUTO_INCREMENT PRIMARY KEY,
			table_number VARCHAR(20) NOT NULL,
			total_price DECIMAL(10,2) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'OPEN',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			paid_at DATETIME NULL,
			waiter_id INT NOT NULL,
			cashier_id INT NULL,
			FOREIGN KEY (waiter_id) REFERENCES users(id),
			FOREIGN KEY (cashier_id) REFERENCES users(id),
			INDEX orders_status_created_idx (status, created_at)
		);
	`},
	{"order_items", `
		CREATE TABLE IF NOT EXISTS order_items (
			id INT AUTO_INCREMENT PRIMARY KEY,
			order_id INT NOT NULL,
			menu_item_id INT NOT NULL,
			quantity INT NOT NULL,
			price DECIMAL(10,2) NOT NULL,
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
			FOREIGN KEY (menu_item_id) REFERENCES menu_items(id)
		);
	`},
	{"payments", `
		CREATE TABLE IF NOT EXISTS payments (
			id INT AUTO_INCREMENT PRIMARY KEY,
			order_id INT NOT NULL,
			amount DECIMAL(10,2) NOT NULL,
			payment_type VARCHAR(10) NOT NULL,
			paid_at DATETIME NOT NULL,
			paid_by_id INT NOT NULL,
			FOREIGN KEY (order_id) REFERENCES orders(id),
			FOREIGN KEY (paid_by_id) REFERENCES users(id),
			INDEX payments_order_idx (order_id)
		);
	`},
}

// AutoMigrate creates every table that does not exist yet, retrying each
// statement up to retries times before giving up.
func AutoMigrate(ctx context.Context, db *sql.DB, retries int) error {
	for _, st := range statements {
		_, err := db.ExecContext(ctx, st.query)
		for i := 0; err != nil && i < retries; i++ {
			select {
			case <-time.After(1 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			_, err = db.ExecContext(ctx, st.query)
		}
		if err != nil {
			return fmt.Errorf("migrate %s: %w", st.name, err)
		}
	}
	return nil
}
