package models

import (
	"time"

	"github.com/google/uuid"
)

type JournalEntry struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID        uuid.UUID `gorm:"index"`
	AccountID        string    `gorm:"index"`
	EntityID         string    `gorm:"index"`
	EntryDate        time.Time `gorm:"column:entry_date;index"`
	Description      string
	Amount           float64 `gorm:"index"` // signed; credits negative
	Currency         string
	ReconciliationID *uuid.UUID `gorm:"index"`
	CreatedAt        time.Time
}

func (e *JournalEntry) Reconciled() bool {
	return e.ReconciliationID != nil
}
