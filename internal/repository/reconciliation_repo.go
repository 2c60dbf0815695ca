package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/services/reconciliation"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReconciliationRepository struct {
	db *gorm.DB
}

func NewReconciliationRepository(db *gorm.DB) *ReconciliationRepository {
	return &ReconciliationRepository{db: db}
}

// ClaimAndCreate commits one group in a single transaction: row locks on the
// members, exclusivity and existence checks, totals, record insert and claim
// updates. Conflicts surface as the service-level sentinel errors.
func (r *ReconciliationRepository) ClaimAndCreate(companyID uuid.UUID, groupKey string, bankIDs, bookIDs []uuid.UUID) (*models.Reconciliation, error) {
	var rec *models.Reconciliation
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Reconciliation
		err := tx.Where("group_key = ?", groupKey).First(&existing).Error
		if err == nil {
			return reconciliation.ErrGroupFinalized
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var txns []models.BankTransaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", bankIDs).Find(&txns).Error; err != nil {
			return err
		}
		if len(txns) != len(bankIDs) {
			return reconciliation.ErrRecordNotFound
		}
		totalBank := 0.0
		for _, t := range txns {
			if t.ReconciliationID != nil {
				return reconciliation.ErrRecordClaimed
			}
			totalBank += t.Amount
		}

		var entries []models.JournalEntry
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", bookIDs).Find(&entries).Error; err != nil {
			return err
		}
		if len(entries) != len(bookIDs) {
			return reconciliation.ErrRecordNotFound
		}
		totalJournal := 0.0
		for _, e := range entries {
			if e.ReconciliationID != nil {
				return reconciliation.ErrRecordClaimed
			}
			totalJournal += e.Amount
		}

		bankJSON, err := json.Marshal(bankIDs)
		if err != nil {
			return fmt.Errorf("encoding bank ids: %w", err)
		}
		bookJSON, err := json.Marshal(bookIDs)
		if err != nil {
			return fmt.Errorf("encoding journal ids: %w", err)
		}

		rec = &models.Reconciliation{
			ID:                 uuid.New(),
			CompanyID:          companyID,
			GroupKey:           groupKey,
			BankTransactionIDs: datatypes.JSON(bankJSON),
			JournalEntryIDs:    datatypes.JSON(bookJSON),
			TotalBankAmount:    totalBank,
			TotalJournalAmount: totalJournal,
			CreatedAt:          time.Now(),
		}
		if err := tx.Create(rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return reconciliation.ErrGroupFinalized
			}
			return err
		}

		if err := tx.Model(&models.BankTransaction{}).
			Where("id IN ?", bankIDs).
			Update("reconciliation_id", rec.ID).Error; err != nil {
			return err
		}
		return tx.Model(&models.JournalEntry{}).
			Where("id IN ?", bookIDs).
			Update("reconciliation_id", rec.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *ReconciliationRepository) ReconciliationByKey(groupKey string) (*models.Reconciliation, error) {
	var rec models.Reconciliation
	if err := r.db.First(&rec, "group_key = ?", groupKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reconciliation.ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// DeleteReconciliations removes the records and releases the claims on
// their members in one transaction.
func (r *ReconciliationRepository) DeleteReconciliations(ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.BankTransaction{}).
			Where("reconciliation_id IN ?", ids).
			Update("reconciliation_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.JournalEntry{}).
			Where("reconciliation_id IN ?", ids).
			Update("reconciliation_id", nil).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&models.Reconciliation{})
		deleted = result.RowsAffected
		return result.Error
	})
	return deleted, err
}
