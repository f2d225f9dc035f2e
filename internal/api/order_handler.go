package api

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Ariet2003/cashier-service/internal/apperror"
	"github.com/Ariet2003/cashier-service/internal/entity"
)

type payRequest struct {
	PaymentType string `json:"paymentType" validate:"required"`
}

// ListOpen --> GET /orders
func (h *Handler) ListOpen(c echo.Context) error {
	orders, err := h.orders.ListOpenOrders(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(200, orders)
}

// Pay settles an open order for the cashier holding the session --> POST /orders/:id/pay
func (h *Handler) Pay(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return respondError(c, apperror.Validation("invalid order id"))
	}

	req := payRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	order, err := h.payments.PayOrder(c.Request().Context(), id, req.PaymentType, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(200, order)
}

// History lists today's paid orders --> GET /orders/history
func (h *Handler) History(c echo.Context) error {
	orders, err := h.orders.ListPaidToday(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(200, orders)
}

// HistoryDetail --> GET /orders/history/:id
func (h *Handler) HistoryDetail(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return respondError(c, apperror.Validation("invalid order id"))
	}

	order, err := h.orders.GetOrderDetail(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(200, order)
}

// Statistics --> GET /orders/statistics?period=day|week|month
func (h *Handler) Statistics(c echo.Context) error {
	stats, err := h.stats.Get(c.Request().Context(), entity.ParsePeriod(c.QueryParam("period")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(200, stats)
}
