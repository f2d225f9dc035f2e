package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Ariet2003/cashier-service/internal/apperror"
	"github.com/Ariet2003/cashier-service/internal/entity"
	"github.com/Ariet2003/cashier-service/internal/service"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "api").Logger()

type Authenticator interface {
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
	Validate(ctx context.Context, token string) (*entity.AuthResult, error)
}

type Payer interface {
	PayOrder(ctx context.Context, orderID int, paymentType string, actor service.Actor) (*entity.Order, error)
}

type OrderQueries interface {
	ListOpenOrders(ctx context.Context) ([]entity.OpenOrder, error)
	ListPaidToday(ctx context.Context) ([]entity.OrderSummary, error)
	GetOrderDetail(ctx context.Context, id int) (*entity.OrderDetail, error)
}

type StatisticsQueries interface {
	Get(ctx context.Context, period entity.Period) (*entity.Statistics, error)
}

// CookieConfig controls the session cookie written at login.
type CookieConfig struct {
	TTL    time.Duration
	Secure bool
}

type Handler struct {
	auth     Authenticator
	payments Payer
	orders   OrderQueries
	stats    StatisticsQueries
	cookie   CookieConfig
}

func NewHandler(auth Authenticator, payments Payer, orders OrderQueries, stats StatisticsQueries, cookie CookieConfig) *Handler {
	return &Handler{auth: auth, payments: payments, orders: orders, stats: stats, cookie: cookie}
}

// respondError renders err as {"error": message}. Storage failures are logged
// where they happen and reach the client as an opaque message.
func respondError(c echo.Context, err error) error {
	kind := apperror.KindOf(err)
	return c.JSON(kind.HTTPStatus(), map[string]string{"error": apperror.PublicMessage(err)})
}

type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	return &requestValidator{validate: validator.New()}
}

func (v *requestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperror.Validation(verrs[0].Field() + " is " + verrs[0].Tag())
		}
		return apperror.Validation("invalid request payload")
	}
	return nil
}

// errorHandler renders errors that escape a handler, mostly echo's own
// routing and binding failures, in the same JSON shape.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		_ = c.JSON(he.Code, map[string]string{"error": msg})
		return
	}
	if apperror.KindOf(err) == apperror.KindStorage {
		logger.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("Unhandled error")
	}
	_ = respondError(c, err)
}
