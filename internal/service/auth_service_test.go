package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ariet2003/cashier-service/internal/apperror"
	"github.com/Ariet2003/cashier-service/internal/entity"
	"github.com/Ariet2003/cashier-service/internal/session"
)

const (
	cashierID = 1
	waiterID  = 2
	shiftID   = 10
	password  = "s3cret-pass"
)

type authFixture struct {
	store   *memStore
	limiter *fakeLimiter
	codec   *session.Codec
	svc     *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	store := newMemStore()
	store.addUser(&entity.User{ID: cashierID, Username: "u1", FullName: "Cara Cashier", PasswordHash: hash(t, password), Role: entity.RoleCashier, IsActive: true})
	store.addUser(&entity.User{ID: waiterID, Username: "w1", FullName: "Aida Waiter", PasswordHash: hash(t, password), Role: entity.RoleWaiter, IsActive: true})
	store.addShift(shiftID, true)
	store.assign(shiftID, cashierID)
	store.assign(shiftID, waiterID)

	limiter := &fakeLimiter{}
	codec := session.NewCodec("test-secret", 24*time.Hour)
	svc, err := NewAuthService(store, store, codec, limiter, bcrypt.MinCost)
	require.NoError(t, err)
	return &authFixture{store: store, limiter: limiter, codec: codec, svc: svc}
}

func TestLogin_thenValidate_thenDeactivate(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, "u1", password)
	require.NoError(t, err)
	assert.Equal(t, cashierID, res.Session.UserID)
	assert.Equal(t, shiftID, res.Session.ShiftID)
	assert.Equal(t, entity.RoleCashier, res.User.Role)
	assert.Equal(t, shiftID, res.Shift.ID)
	assert.Equal(t, 1, f.limiter.resets)

	auth, err := f.svc.Validate(ctx, res.Token)
	require.NoError(t, err)
	assert.True(t, auth.IsAuthenticated)
	require.NotNil(t, auth.User)
	assert.Equal(t, "Cara Cashier", auth.User.FullName)
	require.NotNil(t, auth.Shift)
	assert.Equal(t, shiftID, auth.Shift.ID)

	require.NoError(t, f.store.SetActive(ctx, cashierID, false))

	auth, err = f.svc.Validate(ctx, res.Token)
	require.NoError(t, err)
	assert.False(t, auth.IsAuthenticated)
	assert.Nil(t, auth.User)
}

func TestLogin_badCredentialsShareOneMessage(t *testing.T) {
	f := newAuthFixture(t)

	_, errUnknown := f.svc.Login(context.Background(), "nobody", password)
	_, errWrong := f.svc.Login(context.Background(), "u1", "wrong")

	for _, err := range []error{errUnknown, errWrong} {
		require.Error(t, err)
		assert.Equal(t, apperror.KindAuthentication, apperror.KindOf(err))
	}
	assert.Equal(t, apperror.PublicMessage(errUnknown), apperror.PublicMessage(errWrong))
	assert.Equal(t, 2, f.limiter.fails)
}

func TestLogin_rejectsNonCashierWithCorrectPassword(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), "w1", password)
	assert.Equal(t, apperror.KindAuthentication, apperror.KindOf(err))
}

func TestLogin_rejectsAnyPasswordWithoutActiveShift(t *testing.T) {
	f := newAuthFixture(t)
	f.store.shifts[shiftID].IsActive = false

	_, err := f.svc.Login(context.Background(), "u1", password)
	assert.Equal(t, apperror.KindAuthorization, apperror.KindOf(err))
	assert.Equal(t, msgNoActiveShift, apperror.PublicMessage(err))

	_, err = f.svc.Login(context.Background(), "u1", "wrong")
	assert.Equal(t, apperror.KindAuthentication, apperror.KindOf(err))
}

func TestLogin_notAssignedToActiveShift(t *testing.T) {
	f := newAuthFixture(t)
	delete(f.store.staff, [2]int{shiftID, cashierID})

	_, err := f.svc.Login(context.Background(), "u1", password)
	assert.Equal(t, apperror.KindAuthorization, apperror.KindOf(err))
	assert.Equal(t, msgNotAssigned, apperror.PublicMessage(err))
}

func TestLogin_ambiguousActiveShiftIsStorageFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.store.addShift(shiftID+1, true)

	_, err := f.svc.Login(context.Background(), "u1", password)
	assert.Equal(t, apperror.KindStorage, apperror.KindOf(err))
}

func TestLogin_throttled(t *testing.T) {
	f := newAuthFixture(t)
	f.limiter.blocked = true

	_, err := f.svc.Login(context.Background(), "u1", password)
	assert.Equal(t, apperror.KindTooManyRequests, apperror.KindOf(err))
	assert.Zero(t, f.store.callCount())
}

func TestLogin_requiresBothFields(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), "", password)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	_, err = f.svc.Login(context.Background(), "u1", "")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestValidate_incompleteSessionsNeverReachStorage(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	for name, sess := range map[string]*entity.Session{
		"missing user":  {ShiftID: shiftID, Role: entity.RoleCashier},
		"missing shift": {UserID: cashierID, Role: entity.RoleCashier},
		"missing both":  {Role: entity.RoleCashier},
	} {
		t.Run(name, func(t *testing.T) {
			token, err := f.codec.Encode(sess)
			require.NoError(t, err)

			auth, err := f.svc.Validate(ctx, token)
			require.NoError(t, err)
			assert.False(t, auth.IsAuthenticated)
		})
	}

	for _, token := range []string{"", "garbage", `{"userId":1,"shiftId":10}`} {
		auth, err := f.svc.Validate(ctx, token)
		require.NoError(t, err)
		assert.False(t, auth.IsAuthenticated)
	}

	auth, err := f.svc.ValidateSession(ctx, nil)
	require.NoError(t, err)
	assert.False(t, auth.IsAuthenticated)

	assert.Zero(t, f.store.callCount())
}

func TestValidate_inactiveUserRegardlessOfShift(t *testing.T) {
	f := newAuthFixture(t)
	f.store.users[cashierID].IsActive = false

	auth, err := f.svc.ValidateSession(context.Background(), &entity.Session{UserID: cashierID, ShiftID: shiftID})
	require.NoError(t, err)
	assert.False(t, auth.IsAuthenticated)
}

func TestValidate_endedShift(t *testing.T) {
	f := newAuthFixture(t)
	f.store.shifts[shiftID].IsActive = false

	auth, err := f.svc.ValidateSession(context.Background(), &entity.Session{UserID: cashierID, ShiftID: shiftID})
	require.NoError(t, err)
	assert.False(t, auth.IsAuthenticated)
}

func TestValidate_unassignedUser(t *testing.T) {
	f := newAuthFixture(t)
	f.store.addShift(shiftID+1, false)
	f.store.shifts[shiftID].IsActive = false
	f.store.shifts[shiftID+1].IsActive = true

	auth, err := f.svc.ValidateSession(context.Background(), &entity.Session{UserID: cashierID, ShiftID: shiftID + 1})
	require.NoError(t, err)
	assert.False(t, auth.IsAuthenticated)
}

func TestValidate_nonCashierRole(t *testing.T) {
	f := newAuthFixture(t)

	auth, err := f.svc.ValidateSession(context.Background(), &entity.Session{UserID: waiterID, ShiftID: shiftID, Role: entity.RoleCashier})
	require.NoError(t, err)
	assert.False(t, auth.IsAuthenticated)
}

func TestValidate_storageFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.store.failWith = errors.New("connection refused")

	_, err := f.svc.ValidateSession(context.Background(), &entity.Session{UserID: cashierID, ShiftID: shiftID})
	assert.Equal(t, apperror.KindStorage, apperror.KindOf(err))
}
