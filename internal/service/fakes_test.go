package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ariet2003/cashier-service/internal/entity"
	"github.com/Ariet2003/cashier-service/internal/repository"
)

// memStore is an in-memory stand-in for the MySQL repositories. Its mutex plays
// the role of the row lock taken by the pay transaction.
type memStore struct {
	mu       sync.Mutex
	users    map[int]*entity.User
	shifts   map[int]*entity.Shift
	staff    map[[2]int]bool
	orders   map[int]*entity.Order
	items    map[int][]entity.OrderItem
	payments []entity.Payment
	calls    int
	failWith error
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[int]*entity.User{},
		shifts: map[int]*entity.Shift{},
		staff:  map[[2]int]bool{},
		orders: map[int]*entity.Order{},
		items:  map[int][]entity.OrderItem{},
	}
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func (m *memStore) addUser(u *entity.User) { m.users[u.ID] = u }

func (m *memStore) addShift(id int, active bool) {
	m.shifts[id] = &entity.Shift{ID: id, StartedAt: time.Date(2026, 10, 16, 8, 0, 0, 0, time.Local), IsActive: active}
}

func (m *memStore) assign(shiftID, userID int) { m.staff[[2]int{shiftID, userID}] = true }

func (m *memStore) addOrder(o *entity.Order) { m.orders[o.ID] = o }

func (m *memStore) paymentsFor(orderID int) []entity.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.Payment
	for _, p := range m.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out
}

func (m *memStore) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *memStore) enter() error {
	m.calls++
	return m.failWith
}

func (m *memStore) FindActiveCashierByUsername(_ context.Context, username string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if u.Username == username && u.IsActive && u.Role == entity.RoleCashier {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) FindActiveCashierByID(_ context.Context, id int) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok || !u.IsActive || u.Role != entity.RoleCashier {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) SetActive(_ context.Context, id int, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsActive = active
	return nil
}

func (m *memStore) FindActive(_ context.Context) (*entity.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	var active []*entity.Shift
	for _, s := range m.shifts {
		if s.IsActive {
			active = append(active, s)
		}
	}
	switch len(active) {
	case 0:
		return nil, repository.ErrNoActiveShift
	case 1:
		cp := *active[0]
		return &cp, nil
	default:
		return nil, repository.ErrMultipleActiveShifts
	}
}

func (m *memStore) FindActiveByID(_ context.Context, id int) (*entity.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	s, ok := m.shifts[id]
	if !ok || !s.IsActive {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) IsAssigned(_ context.Context, shiftID, userID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return false, err
	}
	return m.staff[[2]int{shiftID, userID}], nil
}

func (m *memStore) Start(_ context.Context, startedAt time.Time, staffIDs []int) (*entity.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	for _, s := range m.shifts {
		if s.IsActive {
			s.IsActive = false
			end := startedAt
			s.EndedAt = &end
		}
	}
	id := len(m.shifts) + 1
	m.shifts[id] = &entity.Shift{ID: id, StartedAt: startedAt, IsActive: true}
	for _, uid := range staffIDs {
		m.staff[[2]int{id, uid}] = true
	}
	cp := *m.shifts[id]
	return &cp, nil
}

func (m *memStore) EndActive(_ context.Context, endedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return err
	}
	ended := false
	for _, s := range m.shifts {
		if s.IsActive {
			s.IsActive = false
			s.EndedAt = &endedAt
			ended = true
		}
	}
	if !ended {
		return repository.ErrNoActiveShift
	}
	return nil
}

func (m *memStore) Pay(_ context.Context, id int, paymentType entity.PaymentType, cashierID int, now time.Time) (*entity.Order, *entity.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, nil, err
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, nil, repository.ErrNotFound
	}
	if !o.Status.CanTransitionTo(entity.OrderStatusPaid) {
		return nil, nil, repository.ErrNotPayable
	}
	o.Status = entity.OrderStatusPaid
	paidAt := now
	o.PaidAt = &paidAt
	cid := cashierID
	o.CashierID = &cid

	p := entity.Payment{
		ID:          len(m.payments) + 1,
		OrderID:     id,
		Amount:      o.TotalPrice,
		PaymentType: paymentType,
		PaidAt:      now,
		PaidByID:    cashierID,
	}
	m.payments = append(m.payments, p)
	cp := *o
	return &cp, &p, nil
}

func (m *memStore) ListOpen(_ context.Context) ([]entity.OpenOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	out := []entity.OpenOrder{}
	for _, o := range m.orders {
		if o.Status == entity.OrderStatusOpen {
			out = append(out, entity.OpenOrder{Order: *o, Waiter: m.person(o.WaiterID), Items: m.items[o.ID]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) ListPaidCreatedBetween(_ context.Context, from, to time.Time) ([]entity.OrderSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	out := []entity.OrderSummary{}
	for _, o := range m.orders {
		if o.Status != entity.OrderStatusPaid || o.CreatedAt.Before(from) || o.CreatedAt.After(to) {
			continue
		}
		s := entity.OrderSummary{
			ID: o.ID, TableNumber: o.TableNumber, TotalPrice: o.TotalPrice, CreatedAt: o.CreatedAt, PaidAt: o.PaidAt,
			Waiter: m.person(o.WaiterID), ItemCount: len(m.items[o.ID]),
		}
		for _, p := range m.payments {
			if p.OrderID == o.ID {
				s.Payments = append(s.Payments, entity.PaymentTypeRef{PaymentType: p.PaymentType})
			}
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.After(*out[j].PaidAt) })
	return out, nil
}

func (m *memStore) GetPaidDetail(_ context.Context, id int) (*entity.OrderDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	o, ok := m.orders[id]
	if !ok || o.Status != entity.OrderStatusPaid {
		return nil, repository.ErrNotFound
	}
	d := &entity.OrderDetail{Order: *o, Waiter: m.person(o.WaiterID), Items: m.items[id]}
	for _, p := range m.payments {
		if p.OrderID == id {
			d.Payments = append(d.Payments, p)
		}
	}
	return d, nil
}

func (m *memStore) person(id int) entity.Person {
	if u, ok := m.users[id]; ok {
		return entity.Person{FullName: u.FullName}
	}
	return entity.Person{}
}

type fakeLimiter struct {
	blocked bool
	fails   int
	resets  int
}

func (f *fakeLimiter) Allowed(context.Context, string) bool { return !f.blocked }
func (f *fakeLimiter) Fail(context.Context, string)         { f.fails++ }
func (f *fakeLimiter) Reset(context.Context, string)        { f.resets++ }

type fakePublisher struct {
	mu     sync.Mutex
	events []entity.OrderPaidEvent
	err    error
	// block makes the publisher behave like an unreachable broker.
	block  bool
	ctxErr error
}

func (f *fakePublisher) PublishOrderPaid(ctx context.Context, evt entity.OrderPaidEvent) error {
	f.mu.Lock()
	f.events = append(f.events, evt)
	f.ctxErr = ctx.Err()
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}
