package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ariet2003/cashier-service/internal/apperror"
	"github.com/Ariet2003/cashier-service/internal/entity"
)

func TestHistory_onlyPaidOrdersCreatedToday(t *testing.T) {
	store, _, payments, orders := newPaymentFixture(t)
	ctx := context.Background()

	store.addOrder(&entity.Order{ID: 2, TableNumber: "7", TotalPrice: 120, Status: entity.OrderStatusOpen, CreatedAt: fixedNow.Add(-30 * time.Minute), WaiterID: waiterID})
	store.addOrder(&entity.Order{ID: 3, TableNumber: "2", TotalPrice: 60, Status: entity.OrderStatusCancelled, CreatedAt: fixedNow.Add(-20 * time.Minute), WaiterID: waiterID})
	store.addOrder(&entity.Order{ID: 4, TableNumber: "9", TotalPrice: 300, Status: entity.OrderStatusOpen, CreatedAt: fixedNow.AddDate(0, 0, -1), WaiterID: waiterID})

	_, err := payments.PayOrder(ctx, 1, "CASH", actor)
	require.NoError(t, err)
	_, err = payments.PayOrder(ctx, 4, "QR", actor)
	require.NoError(t, err)

	history, err := orders.ListPaidToday(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].ID)
	assert.Equal(t, 2, history[0].ItemCount)
	assert.Equal(t, "Aida Waiter", history[0].Waiter.FullName)
	require.Len(t, history[0].Payments, 1)
	assert.Equal(t, entity.PaymentTypeCash, history[0].Payments[0].PaymentType)

	for _, id := range []int{2, 3} {
		_, err := orders.GetOrderDetail(ctx, id)
		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err), "order %d", id)
	}
}

func TestListOpenOrders(t *testing.T) {
	store, _, payments, orders := newPaymentFixture(t)
	ctx := context.Background()
	store.addOrder(&entity.Order{ID: 2, TableNumber: "7", TotalPrice: 120, Status: entity.OrderStatusOpen, CreatedAt: fixedNow, WaiterID: waiterID})

	open, err := orders.ListOpenOrders(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, 2, open[0].ID, "newest first")

	_, err = payments.PayOrder(ctx, 2, "CARD", actor)
	require.NoError(t, err)

	open, err = orders.ListOpenOrders(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, 1, open[0].ID)
	assert.Equal(t, "Aida Waiter", open[0].Waiter.FullName)
	assert.Len(t, open[0].Items, 2)
}

func TestGetOrderDetail_invalidID(t *testing.T) {
	store, _, _, orders := newPaymentFixture(t)

	_, err := orders.GetOrderDetail(context.Background(), -1)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Zero(t, store.callCount())
}

func TestOrderReads_storageFailure(t *testing.T) {
	store, _, _, orders := newPaymentFixture(t)
	store.failWith = errors.New("too many connections")
	ctx := context.Background()

	_, err := orders.ListOpenOrders(ctx)
	assert.Equal(t, apperror.KindStorage, apperror.KindOf(err))
	_, err = orders.ListPaidToday(ctx)
	assert.Equal(t, apperror.KindStorage, apperror.KindOf(err))
	_, err = orders.GetOrderDetail(ctx, 1)
	assert.Equal(t, apperror.KindStorage, apperror.KindOf(err))
}

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("UTC+6", 6*60*60)
	from, to := dayBounds(time.Date(2026, 10, 16, 23, 59, 0, 0, loc))

	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, loc).Add(-time.Nanosecond), to)
}
