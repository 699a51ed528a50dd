package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ImportQueued    = "QUEUED"
	ImportRunning   = "RUNNING"
	ImportCompleted = "COMPLETED"
	ImportFailed    = "FAILED"
)

// ImportJob tracks a reservation import from an external system export.
type ImportJob struct {
	ID                   uuid.UUID  `json:"id"`
	TenantID             uuid.UUID  `json:"tenant_id"`
	ObjectKey            string     `json:"object_key"`
	Status               string     `json:"status"`
	RecordsProcessed     int        `json:"records_processed"`
	CustomersCreated     int        `json:"customers_created"`
	PetsCreated          int        `json:"pets_created"`
	ReservationsImported int        `json:"reservations_imported"`
	ReservationsSkipped  int        `json:"reservations_skipped"`
	Errors               []string   `json:"errors,omitempty"`
	QueuedAt             time.Time  `json:"queued_at"`
	FinishedAt           *time.Time `json:"finished_at,omitempty"`
}
