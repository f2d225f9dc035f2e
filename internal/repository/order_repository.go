package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Ariet2003/cashier-service/internal/entity"
)

type OrderRepository struct {
	store
}

func NewOrderRepository(db *sql.DB, timeout time.Duration) *OrderRepository {
	return &OrderRepository{newStore(db, timeout)}
}

// Pay settles an OPEN order inside one read-committed transaction: the order row
// is locked and re-read, the status is swapped OPEN -> PAID only if it is still
// OPEN, and exactly one payment row is written for the snapshot total.
func (r *OrderRepository) Pay(ctx context.Context, id int, paymentType entity.PaymentType, cashierID int, now time.Time) (*entity.Order, *entity.Payment, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	lockQuery := `SELECT id, table_number, total_price, status, created_at, paid_at, waiter_id, cashier_id FROM orders WHERE id = ? FOR UPDATE`
	order, err := scanOrder(tx.QueryRowContext(ctx, lockQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	if !order.Status.CanTransitionTo(entity.OrderStatusPaid) {
		return nil, nil, ErrNotPayable
	}

	updateQuery := `UPDATE orders SET status = ?, paid_at = ?, cashier_id = ? WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, updateQuery, entity.OrderStatusPaid, now, cashierID, id, entity.OrderStatusOpen)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update order %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update order %d: %w", id, err)
	}
	if affected != 1 {
		return nil, nil, ErrNotPayable
	}

	payment := &entity.Payment{
		OrderID:     id,
		Amount:      order.TotalPrice,
		PaymentType: paymentType,
		PaidAt:      now,
		PaidByID:    cashierID,
	}
	paymentQuery := `INSERT INTO payments (order_id, amount, payment_type, paid_at, paid_by_id) VALUES (?, ?, ?, ?, ?)`
	res, err = tx.ExecContext(ctx, paymentQuery, payment.OrderID, payment.Amount, payment.PaymentType, payment.PaidAt, payment.PaidByID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert payment for order %d: %w", id, err)
	}
	paymentID, err := res.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert payment for order %d: %w", id, err)
	}
	payment.ID = int(paymentID)

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	order.Status = entity.OrderStatusPaid
	order.PaidAt = &now
	order.CashierID = &cashierID
	return order, payment, nil
}

// ListOpen returns OPEN orders, newest first, with waiter and item lines.
func (r *OrderRepository) ListOpen(ctx context.Context) ([]entity.OpenOrder, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT o.id, o.table_number, o.total_price, o.status, o.created_at, o.paid_at, o.waiter_id, o.cashier_id, w.full_name
		FROM orders o
		JOIN users w ON w.id = o.waiter_id
		WHERE o.status = ?
		ORDER BY o.created_at DESC, o.id DESC`
	rows, err := r.db.QueryContext(ctx, query, entity.OrderStatusOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to list open orders: %w", err)
	}
	defer rows.Close()

	orders := []entity.OpenOrder{}
	var ids []int
	for rows.Next() {
		var o entity.OpenOrder
		var status string
		var paidAt sql.NullTime
		var cashierID sql.NullInt64
		err := rows.Scan(&o.ID, &o.TableNumber, &o.TotalPrice, &status, &o.CreatedAt, &paidAt, &o.WaiterID, &cashierID, &o.Waiter.FullName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if o.Status, err = entity.ParseOrderStatus(status); err != nil {
			return nil, fmt.Errorf("order %d: %w", o.ID, err)
		}
		o.PaidAt = timePtr(paidAt)
		o.CashierID = intPtr(cashierID)
		o.Items = []entity.OrderItem{}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list open orders: %w", err)
	}

	items, err := r.itemsByOrder(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if list, ok := items[orders[i].ID]; ok {
			orders[i].Items = list
		}
	}
	return orders, nil
}

// ListPaidCreatedBetween returns PAID orders created in [from, to], latest payment first.
func (r *OrderRepository) ListPaidCreatedBetween(ctx context.Context, from, to time.Time) ([]entity.OrderSummary, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT o.id, o.table_number, o.total_price, o.created_at, o.paid_at, w.full_name, c.full_name,
			(SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.id)
		FROM orders o
		JOIN users w ON w.id = o.waiter_id
		LEFT JOIN users c ON c.id = o.cashier_id
		WHERE o.status = ? AND o.created_at BETWEEN ? AND ?
		ORDER BY o.paid_at DESC, o.id DESC`
	rows, err := r.db.QueryContext(ctx, query, entity.OrderStatusPaid, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list paid orders: %w", err)
	}
	defer rows.Close()

	summaries := []entity.OrderSummary{}
	var ids []int
	for rows.Next() {
		var s entity.OrderSummary
		var paidAt sql.NullTime
		var cashierName sql.NullString
		err := rows.Scan(&s.ID, &s.TableNumber, &s.TotalPrice, &s.CreatedAt, &paidAt, &s.Waiter.FullName, &cashierName, &s.ItemCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order summary: %w", err)
		}
		s.PaidAt = timePtr(paidAt)
		if cashierName.Valid {
			s.Cashier = &entity.Person{FullName: cashierName.String}
		}
		s.Payments = []entity.PaymentTypeRef{}
		summaries = append(summaries, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list paid orders: %w", err)
	}

	payments, err := r.paymentsByOrder(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		for _, p := range payments[summaries[i].ID] {
			summaries[i].Payments = append(summaries[i].Payments, entity.PaymentTypeRef{PaymentType: p.PaymentType})
		}
	}
	return summaries, nil
}

// GetPaidDetail loads a PAID order. Orders in any other state are reported as ErrNotFound.
func (r *OrderRepository) GetPaidDetail(ctx context.Context, id int) (*entity.OrderDetail, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT o.id, o.table_number, o.total_price, o.status, o.created_at, o.paid_at, o.waiter_id, o.cashier_id, w.full_name, c.full_name
		FROM orders o
		JOIN users w ON w.id = o.waiter_id
		LEFT JOIN users c ON c.id = o.cashier_id
		WHERE o.id = ? AND o.status = ?`

	d := &entity.OrderDetail{}
	var status string
	var paidAt sql.NullTime
	var cashierID sql.NullInt64
	var cashierName sql.NullString
	err := r.db.QueryRowContext(ctx, query, id, entity.OrderStatusPaid).
		Scan(&d.ID, &d.TableNumber, &d.TotalPrice, &status, &d.CreatedAt, &paidAt, &d.WaiterID, &cashierID, &d.Waiter.FullName, &cashierName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}
	if d.Status, err = entity.ParseOrderStatus(status); err != nil {
		return nil, fmt.Errorf("order %d: %w", id, err)
	}
	d.PaidAt = timePtr(paidAt)
	d.CashierID = intPtr(cashierID)
	if cashierName.Valid {
		d.Cashier = &entity.Person{FullName: cashierName.String}
	}

	items, err := r.itemsByOrder(ctx, []int{id})
	if err != nil {
		return nil, err
	}
	d.Items = items[id]
	if d.Items == nil {
		d.Items = []entity.OrderItem{}
	}

	payments, err := r.paymentsByOrder(ctx, []int{id})
	if err != nil {
		return nil, err
	}
	d.Payments = payments[id]
	if d.Payments == nil {
		d.Payments = []entity.Payment{}
	}
	return d, nil
}

func (r *OrderRepository) itemsByOrder(ctx context.Context, orderIDs []int) (map[int][]entity.OrderItem, error) {
	out := make(map[int][]entity.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	in, args := inClause(orderIDs)
	query := `
		SELECT oi.id, oi.order_id, oi.quantity, oi.price, m.name, c.name
		FROM order_items oi
		JOIN menu_items m ON m.id = oi.menu_item_id
		LEFT JOIN categories c ON c.id = m.category_id
		WHERE oi.order_id IN ` + in + `
		ORDER BY oi.id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item entity.OrderItem
		var category sql.NullString
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Quantity, &item.Price, &item.MenuItem.Name, &category); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if category.Valid {
			item.MenuItem.Category = &entity.Category{Name: category.String}
		}
		out[item.OrderID] = append(out[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	return out, nil
}

func (r *OrderRepository) paymentsByOrder(ctx context.Context, orderIDs []int) (map[int][]entity.Payment, error) {
	out := make(map[int][]entity.Payment, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	in, args := inClause(orderIDs)
	query := `SELECT id, order_id, amount, payment_type, paid_at, paid_by_id FROM payments WHERE order_id IN ` + in + ` ORDER BY paid_at, id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p entity.Payment
		var paymentType string
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &paymentType, &p.PaidAt, &p.PaidByID); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		if p.PaymentType, err = entity.ParsePaymentType(paymentType); err != nil {
			return nil, fmt.Errorf("payment %d: %w", p.ID, err)
		}
		out[p.OrderID] = append(out[p.OrderID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}
	return out, nil
}

func scanOrder(row rowScanner) (*entity.Order, error) {
	o := &entity.Order{}
	var status string
	var paidAt sql.NullTime
	var cashierID sql.NullInt64
	if err := row.Scan(&o.ID, &o.TableNumber, &o.TotalPrice, &status, &o.CreatedAt, &paidAt, &o.WaiterID, &cashierID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	var err error
	if o.Status, err = entity.ParseOrderStatus(status); err != nil {
		return nil, fmt.Errorf("order %d: %w", o.ID, err)
	}
	o.PaidAt = timePtr(paidAt)
	o.CashierID = intPtr(cashierID)
	return o, nil
}
