package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/roach88/cube/internal/model"
)

const userKey = "user"

// BasicAuthValidator checks credentials against the user store and stores
// the authenticated user on the request context.
func (h *Handler) BasicAuthValidator(username, password string, c echo.Context) (bool, error) {
	user, ok, err := h.users.Authenticate(c.Request().Context(), username, password)
	if err != nil {
		return false, err
	}
	if ok {
		c.Set(userKey, user)
	}
	return ok, nil
}

// RequireRole rejects callers holding none of roles with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := c.Get(userKey).(model.User)
			if !ok || !user.HasRole(roles...) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}
