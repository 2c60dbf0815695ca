package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Reconciliation is the persisted link between N bank transactions and M
// journal entries. GroupKey is derived from the sorted member ids and makes
// finalization idempotent.
type Reconciliation struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID          uuid.UUID `gorm:"index"`
	GroupKey           string    `gorm:"uniqueIndex"`
	BankTransactionIDs datatypes.JSON
	JournalEntryIDs    datatypes.JSON
	TotalBankAmount    float64
	TotalJournalAmount float64
	CreatedAt          time.Time
}

// Discrepancy is always recomputed from the stored totals, never persisted
// on its own.
func (r *Reconciliation) Discrepancy() float64 {
	return r.TotalBankAmount - r.TotalJournalAmount
}
