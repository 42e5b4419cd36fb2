package models

import (
	"time"

	"github.com/google/uuid"
)

// Batch is one reporting period's worth of reportable rent entries.
// ReportingPeriod is immutable after creation; Status only changes
// through the reporting state machine.
type Batch struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReportingPeriod string    `gorm:"index"` // e.g. "2026-08"
	Status          string    `gorm:"index"`
	ApprovedAt      *time.Time
	ApprovedBy      *uuid.UUID
	ExportedAt      *time.Time
	CreatedAt       time.Time
}
