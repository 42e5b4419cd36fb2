package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Entry is one tenant's reportable payment record within a batch.
// Payload is a frozen snapshot taken at batch-generation time and is
// never re-derived from live data.
type Entry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	BatchID   uuid.UUID `gorm:"index"`
	TenantID  uuid.UUID `gorm:"index"`
	Payload   datatypes.JSON
	CreatedAt time.Time
}

// PaymentSnapshot is the shape of Entry.Payload.
type PaymentSnapshot struct {
	RentAmount float64    `json:"rent_amount"`
	PaidAmount float64    `json:"paid_amount"`
	DueDate    *time.Time `json:"due_date"`
	PaidAt     *time.Time `json:"paid_at"`
	OnTime     bool       `json:"on_time"`
	DaysLate   int        `json:"days_late"`
}

func (e *Entry) Snapshot() (PaymentSnapshot, error) {
	var snap PaymentSnapshot
	err := json.Unmarshal(e.Payload, &snap)
	return snap, err
}

func (s PaymentSnapshot) Marshal() datatypes.JSON {
	raw, _ := json.Marshal(s)
	return raw
}
