package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ReservationPending    = "PENDING"
	ReservationConfirmed  = "CONFIRMED"
	ReservationCheckedIn  = "CHECKED_IN"
	ReservationCheckedOut = "CHECKED_OUT"
	ReservationCompleted  = "COMPLETED"
	ReservationCancelled  = "CANCELLED"
)

// ActiveReservationStatuses are the statuses that occupy a resource.
var ActiveReservationStatuses = []string{
	ReservationPending,
	ReservationConfirmed,
	ReservationCheckedIn,
}

// IsActiveReservationStatus reports whether status holds capacity on a resource.
func IsActiveReservationStatus(status string) bool {
	for _, s := range ActiveReservationStatuses {
		if s == status {
			return true
		}
	}
	return false
}

var reservationTransitions = map[string][]string{
	ReservationPending:    {ReservationConfirmed, ReservationCancelled},
	ReservationConfirmed:  {ReservationCheckedIn, ReservationCancelled},
	ReservationCheckedIn:  {ReservationCheckedOut},
	ReservationCheckedOut: {ReservationCompleted},
}

// CanTransitionReservation reports whether from -> to is a legal status change.
func CanTransitionReservation(from, to string) bool {
	for _, s := range reservationTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Reservation books a resource for one or more pets over the half-open interval [StartDate, EndDate).
type Reservation struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	TenantID           uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	CustomerID         uuid.UUID       `json:"customer_id" db:"customer_id"`
	PetIDs             []uuid.UUID     `json:"pet_ids" db:"-"`
	ResourceID         *uuid.UUID      `json:"resource_id,omitempty" db:"resource_id"`
	ServiceID          uuid.UUID       `json:"service_id" db:"service_id"`
	StartDate          time.Time       `json:"start_date" db:"start_date"`
	EndDate            time.Time       `json:"end_date" db:"end_date"`
	Status             string          `json:"status" db:"status"`
	Price              decimal.Decimal `json:"price" db:"price"`
	DepositAmount      decimal.Decimal `json:"deposit_amount" db:"deposit_amount"`
	DepositRuleID      *uuid.UUID      `json:"deposit_rule_id,omitempty" db:"deposit_rule_id"`
	Notes              *string         `json:"notes,omitempty" db:"notes"`
	ExternalID         *string         `json:"external_id,omitempty" db:"external_id"`
	CancellationReason *string         `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CheckedInAt        *time.Time      `json:"checked_in_at,omitempty" db:"checked_in_at"`
	CheckedOutAt       *time.Time      `json:"checked_out_at,omitempty" db:"checked_out_at"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// ReservationFilter narrows reservation listings. Nil fields are ignored.
type ReservationFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	Status     *string
	ResourceID *uuid.UUID
	CustomerID *uuid.UUID
	Limit      int
	Offset     int
}
