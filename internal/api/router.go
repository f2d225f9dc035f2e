package api

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Ariet2003/cashier-service/internal/config"
	"github.com/Ariet2003/cashier-service/internal/session"
)

// NewRouter wires middleware and every route of the cashier API.
func NewRouter(h *Handler, codec *session.Codec, cfg config.HTTPConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()
	// client addresses come from the socket; forwarding headers are not trusted
	e.IPExtractor = echo.ExtractIPDirect()
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(requestID())
	e.Use(requestLogger())
	if len(cfg.CORSOrigins) > 0 {
		e.Use(cors(cfg.CORSOrigins))
	}

	authed := RequireSession(h.auth)

	e.POST("/auth", h.Login, LoginRateLimiter(cfg.RateLimit, cfg.RateBurst))
	e.GET("/auth/check", h.Check)
	e.POST("/auth/logout", h.Logout)

	e.GET("/orders", h.ListOpen)
	e.POST("/orders/:id/pay", h.Pay, authed)
	e.GET("/orders/history", h.History, authed)
	e.GET("/orders/history/:id", h.HistoryDetail, authed)
	e.GET("/orders/statistics", h.Statistics)

	gate := PageGate(codec)
	for _, path := range []string{"/dashboard", "/history", "/dashboard/statistics"} {
		e.GET(path, page(path), gate)
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "cashier-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	return e
}

// page stands in for the rendered page behind the gate.
func page(path string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(200, map[string]string{"page": path})
	}
}
