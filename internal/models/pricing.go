package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DepositTypePercentage = "PERCENTAGE"
	DepositTypeFixed      = "FIXED"
	DepositTypeFull       = "FULL"
	DepositTypeNone       = "NONE"
)

const (
	RefundTypeFull   = "FULL"
	RefundTypeNone   = "NONE"
	RefundTypeTiered = "TIERED"
)

const (
	AdjustPercentDiscount  = "PERCENT_DISCOUNT"
	AdjustPercentSurcharge = "PERCENT_SURCHARGE"
	AdjustFixedDiscount    = "FIXED_DISCOUNT"
	AdjustFixedSurcharge   = "FIXED_SURCHARGE"
)

// RefundTier refunds RefundPercent when cancelling at least DaysBeforeStart days ahead.
type RefundTier struct {
	DaysBeforeStart int             `json:"days_before_start"`
	RefundPercent   decimal.Decimal `json:"refund_percent"`
}

// RefundPolicy decides how much of a deposit comes back on cancellation.
type RefundPolicy struct {
	Type  string       `json:"type"`
	Tiers []RefundTier `json:"tiers,omitempty"`
}

// RuleCondition is the stored, undecoded form of a rule predicate.
// Kind selects the predicate; Config holds its kind specific parameters.
type RuleCondition struct {
	Kind   string          `json:"kind"`
	Config json.RawMessage `json:"config,omitempty"`
}

// DepositRule decides the deposit for reservations matching its condition.
type DepositRule struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	TenantID     uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Name         string          `json:"name" db:"name"`
	Priority     int             `json:"priority" db:"priority"`
	IsActive     bool            `json:"is_active" db:"is_active"`
	Condition    RuleCondition   `json:"condition" db:"condition"`
	DepositType  string          `json:"deposit_type" db:"deposit_type"`
	DepositValue decimal.Decimal `json:"deposit_value" db:"deposit_value"`
	RefundPolicy RefundPolicy    `json:"refund_policy" db:"refund_policy"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// PricingRule adjusts the quoted price for reservations matching its condition.
type PricingRule struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	TenantID        uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Name            string          `json:"name" db:"name"`
	Priority        int             `json:"priority" db:"priority"`
	IsActive        bool            `json:"is_active" db:"is_active"`
	Condition       RuleCondition   `json:"condition" db:"condition"`
	AdjustmentType  string          `json:"adjustment_type" db:"adjustment_type"`
	AdjustmentValue decimal.Decimal `json:"adjustment_value" db:"adjustment_value"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}
