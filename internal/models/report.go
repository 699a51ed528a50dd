package models

import (
	"time"

	"github.com/google/uuid"
)

// ResourceReservationCount is one row of the kennel distribution report.
type ResourceReservationCount struct {
	ResourceID   uuid.UUID `json:"resource_id"`
	ResourceName string    `json:"resource_name"`
	ResourceType string    `json:"resource_type"`
	Count        int       `json:"count"`
}

// ImportSummary describes how much of a tenant's reservation data came from an import.
type ImportSummary struct {
	TotalReservations     int        `json:"total_reservations"`
	ImportedReservations  int        `json:"imported_reservations"`
	WithoutResource       int        `json:"without_resource"`
	EarliestImportedStart *time.Time `json:"earliest_imported_start,omitempty"`
	LatestImportedStart   *time.Time `json:"latest_imported_start,omitempty"`
}

// ResourceOccupancy reports how many units of a resource are held on a given day.
type ResourceOccupancy struct {
	ResourceID   uuid.UUID `json:"resource_id"`
	ResourceName string    `json:"resource_name"`
	ResourceType string    `json:"resource_type"`
	Capacity     int       `json:"capacity"`
	Occupied     int       `json:"occupied"`
}
