package middleware

import (
	"crypto/subtle"
	"strings"

	"tailtown/internal/common"

	"github.com/labstack/echo/v4"
)

const AdminKeyHeader = "X-Admin-API-Key"

// RequireAdminKey guards the platform admin routes. An empty key disables them.
func RequireAdminKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if key == "" {
				return &common.AuthorizationError{Message: "admin API is disabled"}
			}
			got := c.Request().Header.Get(AdminKeyHeader)
			if got == "" {
				got = strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "ApiKey ")
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				return &common.AuthenticationError{Message: "invalid admin API key"}
			}
			return next(c)
		}
	}
}
