package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AnnouncementPriorityLow    = "LOW"
	AnnouncementPriorityNormal = "NORMAL"
	AnnouncementPriorityUrgent = "URGENT"
)

// Announcement is a notice shown to staff between StartsAt and EndsAt.
type Announcement struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	TenantID  uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Title     string     `json:"title" db:"title"`
	Body      string     `json:"body" db:"body"`
	Priority  string     `json:"priority" db:"priority"`
	StartsAt  time.Time  `json:"starts_at" db:"starts_at"`
	EndsAt    *time.Time `json:"ends_at,omitempty" db:"ends_at"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}
