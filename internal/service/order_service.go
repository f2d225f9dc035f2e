package service

import (
	"context"
	"errors"
	"time"

	"github.com/Ariet2003/cashier-service/internal/apperror"
	"github.com/Ariet2003/cashier-service/internal/entity"
	"github.com/Ariet2003/cashier-service/internal/repository"
)

type OrderReader interface {
	ListOpen(ctx context.Context) ([]entity.OpenOrder, error)
	ListPaidCreatedBetween(ctx context.Context, from, to time.Time) ([]entity.OrderSummary, error)
	GetPaidDetail(ctx context.Context, id int) (*entity.OrderDetail, error)
}

// OrderService serves the read side: the open queue and today's paid history.
type OrderService struct {
	orders OrderReader
	now    func() time.Time
}

func NewOrderService(orders OrderReader) *OrderService {
	return &OrderService{orders: orders, now: time.Now}
}

func (s *OrderService) ListOpenOrders(ctx context.Context) ([]entity.OpenOrder, error) {
	orders, err := s.orders.ListOpen(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing open orders")
		return nil, apperror.Storage(err)
	}
	return orders, nil
}

// ListPaidToday lists orders created today (server local time) that are PAID.
func (s *OrderService) ListPaidToday(ctx context.Context) ([]entity.OrderSummary, error) {
	from, to := dayBounds(s.now())
	orders, err := s.orders.ListPaidCreatedBetween(ctx, from, to)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing paid orders")
		return nil, apperror.Storage(err)
	}
	return orders, nil
}

// GetOrderDetail only ever returns PAID orders; anything else is not found.
func (s *OrderService) GetOrderDetail(ctx context.Context, id int) (*entity.OrderDetail, error) {
	if id <= 0 {
		return nil, apperror.Validation("invalid order id")
	}
	order, err := s.orders.GetPaidDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("order not found")
		}
		logger.Error().Err(err).Int("order_id", id).Msg("Error getting order detail")
		return nil, apperror.Storage(err)
	}
	return order, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// dayBounds returns the first and last instant of t's calendar day.
func dayBounds(t time.Time) (time.Time, time.Time) {
	from := startOfDay(t)
	return from, from.AddDate(0, 0, 1).Add(-time.Nanosecond)
}
