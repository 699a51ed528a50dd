package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HTTPStatus maps an error onto the API status code and error code.
func HTTPStatus(err error) (int, string) {
	var (
		ve   *ValidationError
		te   *TenantError
		ae   *AuthenticationError
		ze   *AuthorizationError
		nf   *NotFoundError
		ce   *ConflictError
		cfg  *ConfigurationError
		herr *echo.HTTPError
	)

	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.As(err, &te):
		switch te.Kind {
		case TenantNotFound:
			return http.StatusNotFound, string(te.Kind)
		case TenantInactive:
			return http.StatusForbidden, string(te.Kind)
		default:
			return http.StatusBadRequest, string(te.Kind)
		}
	case errors.As(err, &ae):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.As(err, &ze):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.As(err, &nf):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.As(err, &ce):
		return http.StatusConflict, "CONFLICT"
	case errors.As(err, &cfg):
		return http.StatusUnprocessableEntity, "CONFIGURATION_ERROR"
	case errors.As(err, &herr):
		return herr.Code, codeForStatus(herr.Code)
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "CLIENT_ERROR"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	}
	if status >= 500 {
		return "INTERNAL_ERROR"
	}
	return "CLIENT_ERROR"
}

// NewHTTPErrorHandler renders every error returned by a handler as an ErrorResponse.
// Internal errors are logged with their cause and answered with a generic message.
func NewHTTPErrorHandler(log *zap.Logger, loggerFor func(echo.Context) *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, code := HTTPStatus(err)
		message := err.Error()
		var details map[string]any

		var (
			ve   *ValidationError
			ce   *ConflictError
			herr *echo.HTTPError
		)
		switch {
		case errors.As(err, &ve):
			message = "Validation failed"
			if ve.Field != "" {
				details = map[string]any{ve.Field: ve.Message}
			} else {
				details = map[string]any{"request": ve.Message}
			}
		case errors.As(err, &ce):
			message = ce.Message
			if len(ce.ConflictingIDs) > 0 {
				details = map[string]any{"conflicting_ids": ce.ConflictingIDs}
			}
		case errors.As(err, &herr):
			message = fmt.Sprint(herr.Message)
		}

		l := log
		if loggerFor != nil {
			l = loggerFor(c)
		}
		if status >= http.StatusInternalServerError {
			l.Error("request failed",
				zap.Error(err),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
			)
			message = "An internal error occurred"
			details = nil
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, CreateErrorResponse(code, message, details))
		}
		if err != nil {
			l.Warn("failed to write error response", zap.Error(err))
		}
	}
}
