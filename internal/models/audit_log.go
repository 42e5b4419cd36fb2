package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLog is an append-only record of an action taken against a
// batch. Rows are never updated or deleted.
type AuditLog struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	BatchID      uuid.UUID `gorm:"index"`
	ActorAdminID uuid.UUID
	Action       string // validate | approve | block | export_csv | export_json
	Metadata     datatypes.JSON
	CreatedAt    time.Time
}
