package repository

import "gorm.io/gorm"

// Store bundles the per-aggregate repositories into the single persistence
// surface the reconciliation service consumes.
type Store struct {
	*BankTransactionRepository
	*JournalEntryRepository
	*ConfigRepository
	*TaskRepository
	*ReconciliationRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		BankTransactionRepository: NewBankTransactionRepository(db),
		JournalEntryRepository:    NewJournalEntryRepository(db),
		ConfigRepository:          NewConfigRepository(db),
		TaskRepository:            NewTaskRepository(db),
		ReconciliationRepository:  NewReconciliationRepository(db),
	}
}
