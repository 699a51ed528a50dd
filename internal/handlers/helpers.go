package handlers

import (
	"errors"
	"strconv"
	"strings"

	"tailtown/internal/common"
	"tailtown/internal/middleware"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// bind decodes the request body into dst and runs the struct validator.
func bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		var herr *echo.HTTPError
		if errors.As(err, &herr) {
			return common.NewValidationError("body", "invalid request format")
		}
		return err
	}
	if c.Echo().Validator != nil {
		if err := c.Validate(dst); err != nil {
			return err
		}
	}
	return nil
}

// requestScope returns the tenant scope resolved for the request.
func requestScope(c echo.Context) (tenancy.Scope, error) {
	return middleware.ScopeFrom(c)
}

// scopeAndID also parses the :id path parameter.
func scopeAndID(c echo.Context) (tenancy.Scope, uuid.UUID, error) {
	scope, err := requestScope(c)
	if err != nil {
		return tenancy.Scope{}, uuid.Nil, err
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return tenancy.Scope{}, uuid.Nil, err
	}
	return scope, id, nil
}

func queryUUID(c echo.Context, name string) (*uuid.UUID, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	id, err := common.ValidateUUID(v, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func queryBool(c echo.Context, name string) bool {
	b, _ := strconv.ParseBool(c.QueryParam(name))
	return b
}

func currentUserID(c echo.Context) *uuid.UUID {
	if id, ok := common.GetUserIDFromContext(c.Request().Context()); ok {
		return &id
	}
	return nil
}
