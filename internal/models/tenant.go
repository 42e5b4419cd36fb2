package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant holds the identity fields this pipeline reads. The table is
// owned by the onboarding service; we never write to it.
type Tenant struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName  string
	Email     string
	CreatedAt time.Time
}
