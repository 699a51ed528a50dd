package middleware

import (
	"net/http"

	"tailtown/internal/common"
	"tailtown/internal/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuditWrites logs every state-changing request with the acting user and tenant.
// Reads are not audited.
func AuditWrites() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return err
			}

			fields := []zap.Field{
				zap.String("action", c.Request().Method+" "+c.Path()),
				zap.String("ip", c.RealIP()),
				zap.String("user_agent", c.Request().UserAgent()),
			}
			if id := c.Param("id"); id != "" {
				fields = append(fields, zap.String("entity_id", id))
			}
			ctx := c.Request().Context()
			if userID, ok := common.GetUserIDFromContext(ctx); ok {
				fields = append(fields, zap.String("user_id", userID.String()))
			}
			if scope, serr := ScopeFrom(c); serr == nil {
				fields = append(fields, zap.String("tenant_id", scope.TenantID().String()))
			}
			if err != nil {
				status, code := common.HTTPStatus(err)
				fields = append(fields, zap.Int("status", status), zap.String("error_code", code))
			} else {
				fields = append(fields, zap.Int("status", c.Response().Status))
			}

			logger.FromEcho(c).Named("audit").Info("write", fields...)
			return err
		}
	}
}
