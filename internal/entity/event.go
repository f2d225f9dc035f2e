package entity

import "time"

// OrderPaidEvent is published after a payment commits.
type OrderPaidEvent struct {
	EventID     string      `json:"event_id"`
	OrderID     int         `json:"order_id"`
	TableNumber string      `json:"table_number"`
	Amount      float64     `json:"amount"`
	PaymentType PaymentType `json:"payment_type"`
	CashierID   int         `json:"cashier_id"`
	ShiftID     int         `json:"shift_id"`
	PaidAt      time.Time   `json:"paid_at"`
}
