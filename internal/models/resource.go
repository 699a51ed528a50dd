package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ResourceStandardSuite     = "STANDARD_SUITE"
	ResourceStandardPlusSuite = "STANDARD_PLUS_SUITE"
	ResourceVIPSuite          = "VIP_SUITE"
	ResourceKennel            = "KENNEL"
	ResourcePlayArea          = "PLAY_AREA"
	ResourceGroomingStation   = "GROOMING_STATION"
)

// ResourceTypes lists the accepted resource types.
var ResourceTypes = []string{
	ResourceStandardSuite,
	ResourceStandardPlusSuite,
	ResourceVIPSuite,
	ResourceKennel,
	ResourcePlayArea,
	ResourceGroomingStation,
}

// Resource is a bookable unit: a suite, kennel, run or station.
type Resource struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name        string    `json:"name" db:"name"`
	Type        string    `json:"type" db:"type"`
	Capacity    int       `json:"capacity" db:"capacity"`
	Description *string   `json:"description,omitempty" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
