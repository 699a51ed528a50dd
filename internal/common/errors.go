package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ValidationError represents a validation error on a single field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

// Is enables errors.Is() comparison for NotFoundError
func (e *NotFoundError) Is(target error) bool {
	t, ok := target.(*NotFoundError)
	if !ok {
		return false
	}
	return e.Entity == t.Entity
}

// ConflictError is returned when a write would violate a uniqueness or capacity invariant.
type ConflictError struct {
	Message        string
	ConflictingIDs []uuid.UUID
}

func (e *ConflictError) Error() string {
	if len(e.ConflictingIDs) == 0 {
		return e.Message
	}
	ids := make([]string, len(e.ConflictingIDs))
	for i, id := range e.ConflictingIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("%s: conflicts with %s", e.Message, strings.Join(ids, ", "))
}

// AuthenticationError represents authentication-related errors
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

// AuthorizationError represents authorization-related errors
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// TenantErrorKind classifies tenant resolution failures.
type TenantErrorKind string

const (
	TenantRequired TenantErrorKind = "TENANT_REQUIRED"
	TenantMismatch TenantErrorKind = "TENANT_MISMATCH"
	TenantNotFound TenantErrorKind = "TENANT_NOT_FOUND"
	TenantInactive TenantErrorKind = "TENANT_INACTIVE"
)

// TenantError is returned by the tenant resolver.
type TenantError struct {
	Kind TenantErrorKind
	Key  string
}

func (e *TenantError) Error() string {
	switch e.Kind {
	case TenantRequired:
		return "tenant could not be determined from the request"
	case TenantMismatch:
		return "tenant header does not match request host"
	case TenantNotFound:
		return fmt.Sprintf("tenant %q not found", e.Key)
	case TenantInactive:
		return fmt.Sprintf("tenant %q is not active", e.Key)
	}
	return "tenant error"
}

// Is matches any TenantError of the same kind.
func (e *TenantError) Is(target error) bool {
	t, ok := target.(*TenantError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// ConfigurationError is a tenant configuration problem, e.g. a malformed pricing rule.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

var (
	ErrCustomerNotFound     = &NotFoundError{Entity: "customer"}
	ErrPetNotFound          = &NotFoundError{Entity: "pet"}
	ErrResourceNotFound     = &NotFoundError{Entity: "resource"}
	ErrServiceNotFound      = &NotFoundError{Entity: "service"}
	ErrReservationNotFound  = &NotFoundError{Entity: "reservation"}
	ErrInvoiceNotFound      = &NotFoundError{Entity: "invoice"}
	ErrUserNotFound         = &NotFoundError{Entity: "user"}
	ErrProductNotFound      = &NotFoundError{Entity: "product"}
	ErrAnnouncementNotFound = &NotFoundError{Entity: "announcement"}
	ErrPricingRuleNotFound  = &NotFoundError{Entity: "pricing rule"}
	ErrDepositRuleNotFound  = &NotFoundError{Entity: "deposit rule"}
	ErrTenantNotFound       = &NotFoundError{Entity: "tenant"}
	ErrImportNotFound       = &NotFoundError{Entity: "import"}
)

var (
	ErrInvalidCredentials = &AuthenticationError{Message: "invalid email or password"}
	ErrMissingTenantScope = &TenantError{Kind: TenantRequired}
	ErrInvoiceFinalized   = &ConflictError{Message: "invoice is finalized"}
)

// IsNotFound reports whether err is any NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
