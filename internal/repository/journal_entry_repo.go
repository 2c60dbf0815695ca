package repository

import (
	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/services/reconciliation"

	"gorm.io/gorm"
)

type JournalEntryRepository struct {
	db *gorm.DB
}

func NewJournalEntryRepository(db *gorm.DB) *JournalEntryRepository {
	return &JournalEntryRepository{db: db}
}

// UnreconciledJournalEntries returns the snapshot of journal entries in
// scope that are not claimed by an active reconciliation.
func (r *JournalEntryRepository) UnreconciledJournalEntries(scope reconciliation.Scope) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	query := r.db.
		Where("company_id = ?", scope.CompanyID).
		Where("reconciliation_id IS NULL").
		Order("entry_date ASC, id ASC")

	if scope.AccountID != "" {
		query = query.Where("account_id = ?", scope.AccountID)
	}
	if scope.EntityID != "" {
		query = query.Where("entity_id = ?", scope.EntityID)
	}
	if scope.DateFrom != nil {
		query = query.Where("entry_date >= ?", *scope.DateFrom)
	}
	if scope.DateTo != nil {
		query = query.Where("entry_date <= ?", *scope.DateTo)
	}

	err := query.Find(&entries).Error
	return entries, err
}
