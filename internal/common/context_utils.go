package common

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 1000
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]any) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// Pagination is the paging block of every list response.
type Pagination struct {
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
	TotalCount int `json:"totalCount"`
}

// ListResponse is the envelope returned by list endpoints.
type ListResponse struct {
	Data       any        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewListResponse wraps items with paging metadata
func NewListResponse(items any, limit, offset, total int) ListResponse {
	return ListResponse{
		Data:       items,
		Pagination: Pagination{Limit: limit, Offset: offset, TotalCount: total},
	}
}

// ValidateUUID parses a UUID field, returning a ValidationError naming the field.
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, NewValidationError(fieldName, "is required")
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, NewValidationError(fieldName, "must be a valid UUID")
	}

	return id, nil
}

// ParamUUID reads a UUID path parameter.
func ParamUUID(c echo.Context, name string) (uuid.UUID, error) {
	return ValidateUUID(c.Param(name), name)
}

// ValidateRequiredString validates required string fields
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(fieldName, "is required")
	}
	return nil
}

// ParseDateTime accepts RFC3339 timestamps or plain YYYY-MM-DD dates (midnight UTC).
func ParseDateTime(value, fieldName string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, NewValidationError(fieldName, "is required")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, NewValidationError(fieldName, "must be RFC3339 or YYYY-MM-DD")
}

// ParseOptionalDateTime is ParseDateTime for query filters that may be absent.
func ParseOptionalDateTime(value, fieldName string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := ParseDateTime(value, fieldName)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SafeString safely handles string pointer operations
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns nil for blank strings.
func StringPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetUserRoleFromContext extracts the staff role from the request context
func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}

// SanitizeSearchQuery strips LIKE wildcards and bounds the length of a search term
func SanitizeSearchQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}

	query = strings.ReplaceAll(query, "%", "")
	query = strings.ReplaceAll(query, "_", "")

	if len(query) > 100 {
		query = query[:100]
	}

	return strings.TrimSpace(query)
}

// ValidatePaginationParams clamps limit and offset
func ValidatePaginationParams(limit, offset int) (int, int, error) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	if offset < 0 {
		offset = 0
	}
	if offset > 1000000 {
		return 0, 0, NewValidationError("offset", "cannot exceed 1,000,000")
	}

	return limit, offset, nil
}

// PaginationFromQuery reads limit/offset query parameters.
func PaginationFromQuery(c echo.Context) (int, int, error) {
	limit, offset := 0, 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, NewValidationError("limit", "must be an integer")
		}
		limit = n
	}
	if v := c.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, NewValidationError("offset", "must be an integer")
		}
		offset = n
	}
	return ValidatePaginationParams(limit, offset)
}

// ValidateDateRange requires end strictly after start and caps the span
func ValidateDateRange(startDate, endDate time.Time) error {
	if !endDate.After(startDate) {
		return NewValidationError("end_date", "must be after start_date")
	}

	maxDuration := time.Hour * 24 * 365 * 2
	if endDate.Sub(startDate) > maxDuration {
		return NewValidationError("end_date", fmt.Sprintf("range cannot exceed %d days", int(maxDuration.Hours()/24)))
	}

	return nil
}
