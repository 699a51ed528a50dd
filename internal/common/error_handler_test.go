package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", NewValidationError("name", "is required"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"tenant required", &TenantError{Kind: TenantRequired}, http.StatusBadRequest, "TENANT_REQUIRED"},
		{"tenant mismatch", &TenantError{Kind: TenantMismatch}, http.StatusBadRequest, "TENANT_MISMATCH"},
		{"tenant not found", &TenantError{Kind: TenantNotFound, Key: "acme2"}, http.StatusNotFound, "TENANT_NOT_FOUND"},
		{"tenant inactive", &TenantError{Kind: TenantInactive, Key: "acme"}, http.StatusForbidden, "TENANT_INACTIVE"},
		{"auth", ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", &AuthorizationError{Message: "no"}, http.StatusForbidden, "FORBIDDEN"},
		{"not found wrapped", fmt.Errorf("get: %w", ErrReservationNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", &ConflictError{Message: "overlap"}, http.StatusConflict, "CONFLICT"},
		{"configuration", &ConfigurationError{Message: "bad rule"}, http.StatusUnprocessableEntity, "CONFIGURATION_ERROR"},
		{"echo", echo.NewHTTPError(http.StatusTooManyRequests, "slow down"), http.StatusTooManyRequests, "RATE_LIMITED"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := HTTPStatus(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestHTTPErrorHandler_ConflictListsIDs(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/reservations", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	existing := uuid.New()
	handler := NewHTTPErrorHandler(zap.NewNop(), nil)
	handler(&ConflictError{Message: "resource is not available", ConflictingIDs: []uuid.UUID{existing}}, c)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "CONFLICT", body.Error.Code)
	assert.Equal(t, []any{existing.String()}, body.Error.Details["conflicting_ids"])
}

func TestHTTPErrorHandler_HidesInternalErrors(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := NewHTTPErrorHandler(zap.NewNop(), nil)
	handler(errors.New("pq: relation customers does not exist"), c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "relation")
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestRequestValidator_UsesJSONNames(t *testing.T) {
	type payload struct {
		FirstName string `json:"first_name" validate:"required"`
		Email     string `json:"email" validate:"omitempty,email"`
	}

	v := NewRequestValidator()
	err := v.Validate(&payload{Email: "nope"})
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "first_name", ve.Field)
	assert.Equal(t, "is required", ve.Message)

	assert.NoError(t, v.Validate(&payload{FirstName: "Ada"}))
}

func TestPaginationClamp(t *testing.T) {
	limit, offset, err := ValidatePaginationParams(0, -3)
	require.NoError(t, err)
	assert.Equal(t, DefaultPageLimit, limit)
	assert.Equal(t, 0, offset)

	limit, _, err = ValidatePaginationParams(5000, 0)
	require.NoError(t, err)
	assert.Equal(t, MaxPageLimit, limit)
}

func TestParseDateTime(t *testing.T) {
	d, err := ParseDateTime("2025-12-10", "start_date")
	require.NoError(t, err)
	assert.Equal(t, 10, d.Day())

	_, err = ParseDateTime("12/10/2025", "start_date")
	assert.True(t, IsValidation(err))
}
