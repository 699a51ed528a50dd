package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SpeciesDog   = "DOG"
	SpeciesCat   = "CAT"
	SpeciesOther = "OTHER"
)

type Pet struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	TenantID       uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	CustomerID     uuid.UUID  `json:"customer_id" db:"customer_id"`
	Name           string     `json:"name" db:"name"`
	Species        string     `json:"species" db:"species"`
	Breed          *string    `json:"breed,omitempty" db:"breed"`
	BirthDate      *time.Time `json:"birth_date,omitempty" db:"birth_date"`
	WeightKg       *float64   `json:"weight_kg,omitempty" db:"weight_kg"`
	MedicalNotes   *string    `json:"medical_notes,omitempty" db:"medical_notes"`
	PhotoObjectKey *string    `json:"-" db:"photo_object_key"`
	PhotoURL       string     `json:"photo_url,omitempty" db:"-"`
	ExternalID     *string    `json:"external_id,omitempty" db:"external_id"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}
