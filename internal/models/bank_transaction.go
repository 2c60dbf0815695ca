package models

import (
	"time"

	"github.com/google/uuid"
)

type BankTransaction struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID        uuid.UUID `gorm:"index"`
	AccountID        string    `gorm:"index"`
	TransactionDate  time.Time `gorm:"column:transaction_date;index"`
	Description      string
	Amount           float64 `gorm:"index"`
	Currency         string
	ReferenceNumber  string
	ReconciliationID *uuid.UUID `gorm:"index"`
	CreatedAt        time.Time
}

// Reconciled is derived from membership in an active Reconciliation.
func (t *BankTransaction) Reconciled() bool {
	return t.ReconciliationID != nil
}
