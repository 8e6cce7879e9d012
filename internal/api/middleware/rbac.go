package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ourpoint/fisher-accounts/internal/core/domain"
)

// RequireRole lets the request through when the caller's role ranks at or
// above min in the FISHER < GOODFISHER < GREATFISHER < ADMIN order. It must
// run after Auth.
func RequireRole(min domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(domain.Role)
			if !role.AtLeast(min) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
