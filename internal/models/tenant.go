package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TenantStatusTrial     = "trial"
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
	TenantStatusDeleted   = "deleted"
)

type Tenant struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Subdomain    string    `json:"subdomain" db:"subdomain"`
	Status       string    `json:"status" db:"status"`
	ContactEmail *string   `json:"contact_email,omitempty" db:"contact_email"`
	Timezone     string    `json:"timezone" db:"timezone"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// CanServeRequests reports whether requests for the tenant may proceed.
func (t *Tenant) CanServeRequests() bool {
	return t.Status == TenantStatusActive || t.Status == TenantStatusTrial
}

const (
	PricingMatchFirst      = "FIRST_MATCH"
	PricingMatchCumulative = "CUMULATIVE"
)

// TenantSettings holds the per-tenant defaults used by booking, pricing and invoicing.
type TenantSettings struct {
	TenantID              uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	DefaultDepositType    string          `json:"default_deposit_type" db:"default_deposit_type"`
	DefaultDepositValue   decimal.Decimal `json:"default_deposit_value" db:"default_deposit_value"`
	DefaultRefundPolicy   RefundPolicy    `json:"default_refund_policy" db:"default_refund_policy"`
	PricingMatchMode      string          `json:"pricing_match_mode" db:"pricing_match_mode"`
	TaxRate               decimal.Decimal `json:"tax_rate" db:"tax_rate"`
	TurnoverBufferMinutes int             `json:"turnover_buffer_minutes" db:"turnover_buffer_minutes"`
	UpdatedAt             time.Time       `json:"updated_at" db:"updated_at"`
}

// DefaultTenantSettings are used until a tenant saves its own.
func DefaultTenantSettings(tenantID uuid.UUID) *TenantSettings {
	return &TenantSettings{
		TenantID:            tenantID,
		DefaultDepositType:  DepositTypeNone,
		DefaultDepositValue: decimal.Zero,
		DefaultRefundPolicy: RefundPolicy{Type: RefundTypeFull},
		PricingMatchMode:    PricingMatchFirst,
		TaxRate:             decimal.Zero,
	}
}

// TurnoverBuffer is the minimum gap enforced between consecutive stays on a resource.
func (s *TenantSettings) TurnoverBuffer() time.Duration {
	return time.Duration(s.TurnoverBufferMinutes) * time.Minute
}
