package service

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ariet2003/cashier-service/internal/apperror"
	"github.com/Ariet2003/cashier-service/internal/entity"
	"github.com/Ariet2003/cashier-service/internal/repository"
	"github.com/Ariet2003/cashier-service/internal/session"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "service").Logger()

const (
	msgInvalidCredentials = "invalid username or password"
	msgNoActiveShift      = "no active shift"
	msgNotAssigned        = "not assigned to current shift"
	msgUnauthenticated    = "unauthorized"
	msgTooManyAttempts    = "too many failed login attempts, try again later"
)

type UserStore interface {
	FindActiveCashierByUsername(ctx context.Context, username string) (*entity.User, error)
	FindActiveCashierByID(ctx context.Context, id int) (*entity.User, error)
}

type ShiftStore interface {
	FindActive(ctx context.Context) (*entity.Shift, error)
	FindActiveByID(ctx context.Context, id int) (*entity.Shift, error)
	IsAssigned(ctx context.Context, shiftID, userID int) (bool, error)
}

// LoginLimiter tracks failed logins per username.
type LoginLimiter interface {
	Allowed(ctx context.Context, key string) bool
	Fail(ctx context.Context, key string)
	Reset(ctx context.Context, key string)
}

// AuthService mints sessions at login and re-derives their validity on every use.
// Nothing about users, shifts or assignments is cached between calls.
type AuthService struct {
	users   UserStore
	shifts  ShiftStore
	codec   *session.Codec
	limiter LoginLimiter
	// dummyHash is compared against when the username is unknown so both
	// failure paths spend the same bcrypt time.
	dummyHash []byte
}

func NewAuthService(users UserStore, shifts ShiftStore, codec *session.Codec, limiter LoginLimiter, bcryptCost int) (*AuthService, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("cashier-service-dummy"), bcryptCost)
	if err != nil {
		return nil, err
	}
	return &AuthService{users: users, shifts: shifts, codec: codec, limiter: limiter, dummyHash: dummy}, nil
}

type LoginResult struct {
	Token   string
	Session *entity.Session
	User    entity.UserProfile
	Shift   entity.ShiftSummary
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, apperror.Validation("login and password are required")
	}
	if s.limiter != nil && !s.limiter.Allowed(ctx, username) {
		return nil, apperror.New(apperror.KindTooManyRequests, msgTooManyAttempts)
	}

	user, err := s.users.FindActiveCashierByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Error().Err(err).Str("username", username).Msg("Error getting cashier")
			return nil, apperror.Storage(err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		logger.Warn().Str("username", username).Msg("Login rejected: user not found or not an active cashier")
		s.fail(ctx, username)
		return nil, apperror.Authentication(msgInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Warn().Int("user_id", user.ID).Msg("Login rejected: invalid password")
		s.fail(ctx, username)
		return nil, apperror.Authentication(msgInvalidCredentials)
	}

	shift, err := s.shifts.FindActive(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveShift) {
			return nil, apperror.Authorization(msgNoActiveShift)
		}
		logger.Error().Err(err).Msg("Error getting active shift")
		return nil, apperror.Storage(err)
	}

	assigned, err := s.shifts.IsAssigned(ctx, shift.ID, user.ID)
	if err != nil {
		logger.Error().Err(err).Int("user_id", user.ID).Int("shift_id", shift.ID).Msg("Error checking shift assignment")
		return nil, apperror.Storage(err)
	}
	if !assigned {
		return nil, apperror.Authorization(msgNotAssigned)
	}

	sess := &entity.Session{
		UserID:   user.ID,
		ShiftID:  shift.ID,
		Username: user.Username,
		FullName: user.FullName,
		Role:     user.Role,
	}
	token, err := s.codec.Encode(sess)
	if err != nil {
		logger.Error().Err(err).Int("user_id", user.ID).Msg("Error signing session")
		return nil, apperror.Storage(err)
	}

	if s.limiter != nil {
		s.limiter.Reset(ctx, username)
	}
	logger.Info().Int("user_id", user.ID).Int("shift_id", shift.ID).Msg("Cashier logged in")

	return &LoginResult{Token: token, Session: sess, User: user.Profile(), Shift: shift.Summary()}, nil
}

// Validate parses the token and runs the validity chain. A chain failure is an
// unauthenticated result with a nil error; only storage failures return an error.
func (s *AuthService) Validate(ctx context.Context, token string) (*entity.AuthResult, error) {
	sess, err := s.codec.Decode(token)
	if err != nil {
		return &entity.AuthResult{}, nil
	}
	return s.ValidateSession(ctx, sess)
}

func (s *AuthService) ValidateSession(ctx context.Context, sess *entity.Session) (*entity.AuthResult, error) {
	if sess == nil || sess.UserID <= 0 || sess.ShiftID <= 0 {
		return &entity.AuthResult{}, nil
	}

	user, err := s.users.FindActiveCashierByID(ctx, sess.UserID)
	if err != nil {
		return chainFailure(err, "user", sess)
	}

	shift, err := s.shifts.FindActiveByID(ctx, sess.ShiftID)
	if err != nil {
		return chainFailure(err, "shift", sess)
	}

	assigned, err := s.shifts.IsAssigned(ctx, shift.ID, user.ID)
	if err != nil {
		return chainFailure(err, "assignment", sess)
	}
	if !assigned {
		return &entity.AuthResult{}, nil
	}

	profile := user.Profile()
	summary := shift.Summary()
	return &entity.AuthResult{IsAuthenticated: true, User: &profile, Shift: &summary}, nil
}

func chainFailure(err error, step string, sess *entity.Session) (*entity.AuthResult, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return &entity.AuthResult{}, nil
	}
	logger.Error().Err(err).Str("step", step).Int("user_id", sess.UserID).Int("shift_id", sess.ShiftID).Msg("Error validating session")
	return nil, apperror.Storage(err)
}

func (s *AuthService) fail(ctx context.Context, username string) {
	if s.limiter != nil {
		s.limiter.Fail(ctx, username)
	}
}
