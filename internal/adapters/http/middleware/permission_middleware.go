package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Checker interface {
	AllowsAny(tokens ...string) bool
}

// RequirePermission rejects requests unless the current session holds at
// least one of tokens. The backend still enforces its own checks.
func RequirePermission(checker Checker, tokens ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(tokens) == 0 || !checker.AllowsAny(tokens...) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "permission denied"})
			}
			return next(c)
		}
	}
}
