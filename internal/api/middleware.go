package api

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Ariet2003/cashier-service/internal/entity"
	"github.com/Ariet2003/cashier-service/internal/service"
	"github.com/Ariet2003/cashier-service/internal/session"
)

const (
	authResultKey = "auth"
	pageTokenKey  = "page-session"
	loginPath     = "/"
)

// RequireSession runs the full validity chain on every request. Nothing is
// cached: a deactivated user or ended shift is rejected on the next call.
func RequireSession(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(session.CookieName)
			if err != nil || cookie.Value == "" {
				return c.JSON(401, map[string]string{"error": "unauthorized"})
			}

			res, err := auth.Validate(c.Request().Context(), cookie.Value)
			if err != nil {
				return respondError(c, err)
			}
			if !res.IsAuthenticated {
				return c.JSON(401, map[string]string{"error": "unauthorized"})
			}

			c.Set(authResultKey, res)
			return next(c)
		}
	}
}

func actorFrom(c echo.Context) service.Actor {
	res, ok := c.Get(authResultKey).(*entity.AuthResult)
	if !ok || res.User == nil || res.Shift == nil {
		return service.Actor{}
	}
	return service.Actor{UserID: res.User.ID, ShiftID: res.Shift.ID}
}

// PageGate only checks that the cookie is a well formed, signed and unexpired
// session. It never reads storage; the API layer is authoritative.
func PageGate(codec *session.Codec) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		SigningKey:    codec.Secret(),
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		TokenLookup:   "cookie:" + session.CookieName,
		ContextKey:    pageTokenKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(session.Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.Redirect(http.StatusFound, loginPath)
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(c echo.Context) error {
			token, ok := c.Get(pageTokenKey).(*jwt.Token)
			if !ok {
				return c.Redirect(http.StatusFound, loginPath)
			}
			claims, ok := token.Claims.(*session.Claims)
			if !ok || !claims.Complete() {
				return c.Redirect(http.StatusFound, loginPath)
			}
			return next(c)
		})
	}
}

// LoginRateLimiter limits login attempts per client address as resolved by
// the router's IPExtractor.
func LoginRateLimiter(limit float64, burst int) echo.MiddlewareFunc {
	config := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(limit),
				Burst:     burst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}
	return middleware.RateLimiterWithConfig(config)
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			evt := logger.Info()
			if v.Error != nil || v.Status >= 500 {
				evt = logger.Error().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

func requestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	})
}

func cors(origins []string) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
	})
}
