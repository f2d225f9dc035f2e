package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Ariet2003/cashier-service/internal/apperror"
	"github.com/Ariet2003/cashier-service/internal/entity"
	"github.com/Ariet2003/cashier-service/internal/repository"
)

type PaymentStore interface {
	Pay(ctx context.Context, id int, paymentType entity.PaymentType, cashierID int, now time.Time) (*entity.Order, *entity.Payment, error)
}

type EventPublisher interface {
	PublishOrderPaid(ctx context.Context, evt entity.OrderPaidEvent) error
}

// Actor is the validated identity a protected operation is attributed to.
type Actor struct {
	UserID  int
	ShiftID int
}

// publishTimeout bounds how long a paid request waits on the broker.
const publishTimeout = 2 * time.Second

type PaymentService struct {
	orders         PaymentStore
	publisher      EventPublisher
	now            func() time.Time
	publishTimeout time.Duration
}

func NewPaymentService(orders PaymentStore, publisher EventPublisher) *PaymentService {
	return &PaymentService{orders: orders, publisher: publisher, now: time.Now, publishTimeout: publishTimeout}
}

// PayOrder settles an OPEN order for the acting cashier. At most one payment is
// ever committed per order; a repeated or concurrent call fails with a state conflict.
func (s *PaymentService) PayOrder(ctx context.Context, orderID int, paymentType string, actor Actor) (*entity.Order, error) {
	if orderID <= 0 {
		return nil, apperror.Validation("invalid order id")
	}
	pt, err := entity.ParsePaymentType(paymentType)
	if err != nil {
		return nil, apperror.Validation("invalid payment type")
	}

	order, payment, err := s.orders.Pay(ctx, orderID, pt, actor.UserID, s.now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperror.NotFound("order not found")
		case errors.Is(err, repository.ErrNotPayable):
			logger.Warn().Int("order_id", orderID).Int("user_id", actor.UserID).Msg("Order already paid or cancelled")
			return nil, apperror.StateConflict("order already paid or cancelled")
		default:
			logger.Error().Err(err).Int("order_id", orderID).Int("user_id", actor.UserID).Msg("Error paying order")
			return nil, apperror.Storage(err)
		}
	}

	logger.Info().Int("order_id", order.ID).Int("user_id", actor.UserID).Int("shift_id", actor.ShiftID).
		Str("payment_type", string(pt)).Float64("amount", payment.Amount).Msg("Order paid")

	if s.publisher != nil {
		evt := entity.OrderPaidEvent{
			EventID:     uuid.NewString(),
			OrderID:     order.ID,
			TableNumber: order.TableNumber,
			Amount:      payment.Amount,
			PaymentType: payment.PaymentType,
			CashierID:   actor.UserID,
			ShiftID:     actor.ShiftID,
			PaidAt:      payment.PaidAt,
		}
		// the commit is authoritative; a lost event is logged, not surfaced.
		// The client going away must not cancel the publish either.
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
		defer cancel()
		if err := s.publisher.PublishOrderPaid(pctx, evt); err != nil {
			logger.Error().Err(err).Int("order_id", order.ID).Msg("Error publishing order paid event")
		}
	}

	return order, nil
}
