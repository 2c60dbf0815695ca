package repository

import (
	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/services/reconciliation"

	"gorm.io/gorm"
)

type BankTransactionRepository struct {
	db *gorm.DB
}

func NewBankTransactionRepository(db *gorm.DB) *BankTransactionRepository {
	return &BankTransactionRepository{db: db}
}

// UnreconciledBankTransactions returns the snapshot of bank transactions in
// scope that are not claimed by an active reconciliation.
func (r *BankTransactionRepository) UnreconciledBankTransactions(scope reconciliation.Scope) ([]models.BankTransaction, error) {
	var txns []models.BankTransaction
	query := r.db.
		Where("company_id = ?", scope.CompanyID).
		Where("reconciliation_id IS NULL").
		Order("transaction_date ASC, id ASC")

	if scope.AccountID != "" {
		query = query.Where("account_id = ?", scope.AccountID)
	}
	if scope.DateFrom != nil {
		query = query.Where("transaction_date >= ?", *scope.DateFrom)
	}
	if scope.DateTo != nil {
		query = query.Where("transaction_date <= ?", *scope.DateTo)
	}

	err := query.Find(&txns).Error
	return txns, err
}
