package models

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TenantID   uuid.UUID `json:"tenant_id" db:"tenant_id"`
	FirstName  string    `json:"first_name" db:"first_name"`
	LastName   string    `json:"last_name" db:"last_name"`
	Email      *string   `json:"email,omitempty" db:"email"`
	Phone      *string   `json:"phone,omitempty" db:"phone"`
	Address    *string   `json:"address,omitempty" db:"address"`
	Notes      *string   `json:"notes,omitempty" db:"notes"`
	ExternalID *string   `json:"external_id,omitempty" db:"external_id"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// CustomerFilter narrows customer listings.
type CustomerFilter struct {
	Search          string
	IncludeInactive bool
	Limit           int
	Offset          int
}
