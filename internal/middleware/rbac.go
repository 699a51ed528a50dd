package middleware

import (
	"tailtown/internal/common"
	"tailtown/internal/models"

	"github.com/labstack/echo/v4"
)

// RequireRole allows staff whose role ranks at least min.
func RequireRole(min string) echo.MiddlewareFunc {
	need := models.RoleRank(min)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := common.GetUserRoleFromContext(c.Request().Context())
			if !ok {
				return &common.AuthenticationError{Message: "user not authenticated"}
			}
			if models.RoleRank(role) < need {
				return &common.AuthorizationError{Message: "insufficient permissions"}
			}
			return next(c)
		}
	}
}
