package middleware

import (
	"github.com/labstack/echo/v4"
)

// VersionMiddleware stamps responses with the API version that served them.
type VersionMiddleware struct {
	current string
}

func NewVersionMiddleware(current string) *VersionMiddleware {
	return &VersionMiddleware{current: current}
}

// VersionHeader adds X-API-Version to every response.
func (vm *VersionMiddleware) VersionHeader(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-API-Version", version)
			return next(c)
		}
	}
}

// Current returns the version new routes are published under.
func (vm *VersionMiddleware) Current() string {
	return vm.current
}
