package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ServiceCategoryBoarding = "BOARDING"
	ServiceCategoryDaycare  = "DAYCARE"
	ServiceCategoryGrooming = "GROOMING"
	ServiceCategoryTraining = "TRAINING"
)

const (
	PriceUnitPerNight = "PER_NIGHT"
	PriceUnitPerDay   = "PER_DAY"
	PriceUnitFlat     = "FLAT"
)

// Service is something a reservation buys: a boarding night, a daycare day, a groom.
type Service struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	TenantID    uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Name        string          `json:"name" db:"name"`
	Category    string          `json:"category" db:"category"`
	Description *string         `json:"description,omitempty" db:"description"`
	BasePrice   decimal.Decimal `json:"base_price" db:"base_price"`
	PriceUnit   string          `json:"price_unit" db:"price_unit"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}
