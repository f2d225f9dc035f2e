package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Ariet2003/cashier-service/internal/entity"
	"github.com/Ariet2003/cashier-service/internal/session"
)

type loginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	User  entity.UserProfile  `json:"user"`
	Shift entity.ShiftSummary `json:"shift"`
}

// Login checks credentials and shift assignment and sets the session cookie --> POST /auth
func (h *Handler) Login(c echo.Context) error {
	req := loginRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	res, err := h.auth.Login(c.Request().Context(), req.Login, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	c.SetCookie(h.sessionCookie(res.Token, int(h.cookie.TTL.Seconds())))
	return c.JSON(200, loginResponse{User: res.User, Shift: res.Shift})
}

// Check re-validates the session cookie against storage --> GET /auth/check
func (h *Handler) Check(c echo.Context) error {
	cookie, err := c.Cookie(session.CookieName)
	if err != nil {
		return c.JSON(401, entity.AuthResult{})
	}

	res, err := h.auth.Validate(c.Request().Context(), cookie.Value)
	if err != nil {
		return respondError(c, err)
	}
	if !res.IsAuthenticated {
		return c.JSON(401, res)
	}
	return c.JSON(200, res)
}

// Logout clears the session cookie --> POST /auth/logout
func (h *Handler) Logout(c echo.Context) error {
	c.SetCookie(h.sessionCookie("", -1))
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     session.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
