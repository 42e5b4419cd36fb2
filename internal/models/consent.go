package models

import (
	"time"

	"github.com/google/uuid"
)

// Consent is a per-tenant, per-purpose grant record. The table is
// owned by the consent service; this pipeline only reads it.
type Consent struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"index"`
	ConsentType string    `gorm:"index"`
	Granted     bool
	RevokedAt   *time.Time
	CreatedAt   time.Time
}
