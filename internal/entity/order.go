package entity

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "OPEN"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderStatusOpen, OrderStatusPaid, OrderStatusCancelled:
		return OrderStatus(s), nil
	default:
		return "", fmt.Errorf("unknown order status %q", s)
	}
}

// CanTransitionTo reports whether moving from s to next is allowed.
// OPEN is the only non-terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusOpen:
		return next == OrderStatusPaid || next == OrderStatusCancelled
	case OrderStatusPaid, OrderStatusCancelled:
		return false
	default:
		return false
	}
}

type PaymentType string

const (
	PaymentTypeCash  PaymentType = "CASH"
	PaymentTypeCard  PaymentType = "CARD"
	PaymentTypeQR    PaymentType = "QR"
	PaymentTypeOther PaymentType = "OTHER"
)

func ParsePaymentType(s string) (PaymentType, error) {
	switch PaymentType(s) {
	case PaymentTypeCash, PaymentTypeCard, PaymentTypeQR, PaymentTypeOther:
		return PaymentType(s), nil
	default:
		return "", fmt.Errorf("unknown payment type %q", s)
	}
}

type Order struct {
	ID          int         `json:"id"`
	TableNumber string      `json:"tableNumber"`
	TotalPrice  float64     `json:"totalPrice"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	PaidAt      *time.Time  `json:"paidAt"`
	WaiterID    int         `json:"waiterId"`
	CashierID   *int        `json:"cashierId"`
}

type MenuItem struct {
	Name     string    `json:"name"`
	Category *Category `json:"category"`
}

type Category struct {
	Name string `json:"name"`
}

type OrderItem struct {
	ID       int      `json:"id"`
	OrderID  int      `json:"orderId"`
	Quantity int      `json:"quantity"`
	Price    float64  `json:"price"`
	MenuItem MenuItem `json:"menuItem"`
}

type Person struct {
	FullName string `json:"fullName"`
}

// OpenOrder is an OPEN order expanded for the cashier's queue.
type OpenOrder struct {
	Order
	Waiter Person      `json:"waiter"`
	Items  []OrderItem `json:"items"`
}

type PaymentTypeRef struct {
	PaymentType PaymentType `json:"paymentType"`
}

// OrderSummary is one row of the paid-today history list.
type OrderSummary struct {
	ID          int              `json:"id"`
	TableNumber string           `json:"tableNumber"`
	TotalPrice  float64          `json:"totalPrice"`
	CreatedAt   time.Time        `json:"createdAt"`
	PaidAt      *time.Time       `json:"paidAt"`
	Waiter      Person           `json:"waiter"`
	Cashier     *Person          `json:"cashier"`
	ItemCount   int              `json:"itemCount"`
	Payments    []PaymentTypeRef `json:"payments"`
}

// OrderDetail is a PAID order with all items and payments.
type OrderDetail struct {
	Order
	Waiter   Person      `json:"waiter"`
	Cashier  *Person     `json:"cashier"`
	Items    []OrderItem `json:"items"`
	Payments []Payment   `json:"payments"`
}

type Payment struct {
	ID          int         `json:"id"`
	OrderID     int         `json:"orderId"`
	Amount      float64     `json:"amount"`
	PaymentType PaymentType `json:"paymentType"`
	PaidAt      time.Time   `json:"paidAt"`
	PaidByID    int         `json:"paidById"`
}

/*
Mysql Schema: see migrations.AutoMigrate

orders(id, table_number, total_price DECIMAL(10,2), status, created_at, paid_at NULL, waiter_id, cashier_id NULL)
order_items(id, order_id, menu_item_id, quantity, price)
payments(id, order_id, amount, payment_type, paid_at, paid_by_id)
*/
