package models

import (
	"time"

	"github.com/google/uuid"
)

// Issue is a validation finding against one entry. The full set of
// issues for a batch is replaced on every validation pass.
type Issue struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	BatchID     uuid.UUID `gorm:"index"`
	EntryID     uuid.UUID `gorm:"index"`
	IssueType   string    // missing_consent | data_integrity | missing_identity
	Description string
	CreatedAt   time.Time
}
