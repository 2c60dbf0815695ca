package reconciliation

import (
	"time"

	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
)

// Scope bounds a matching run to a company plus optional account, entity and
// date-window filters.
type Scope struct {
	CompanyID uuid.UUID  `json:"company_id"`
	AccountID string     `json:"account_id,omitempty"`
	EntityID  string     `json:"entity_id,omitempty"`
	DateFrom  *time.Time `json:"date_from,omitempty"`
	DateTo    *time.Time `json:"date_to,omitempty"`
}

// Store is the persistence surface the service depends on. The gorm
// repositories satisfy it in production; tests use an in-memory fake.
type Store interface {
	// Candidate collection. Both reads are point-in-time snapshots of
	// unclaimed records and must not mutate state.
	UnreconciledBankTransactions(scope Scope) ([]models.BankTransaction, error)
	UnreconciledJournalEntries(scope Scope) ([]models.JournalEntry, error)

	ConfigByID(id uuid.UUID) (*models.ReconciliationConfig, error)
	CreateConfig(cfg *models.ReconciliationConfig) error
	ListConfigs() ([]models.ReconciliationConfig, error)

	CreateTask(task *models.ReconciliationTask) error
	SaveTask(task *models.ReconciliationTask) error
	TaskByID(id uuid.UUID) (*models.ReconciliationTask, error)

	// ClaimAndCreate atomically verifies that none of the ids are claimed,
	// computes the totals, persists the Reconciliation and marks the rows
	// reconciled. It returns ErrRecordClaimed, ErrRecordNotFound or
	// ErrGroupFinalized on conflict.
	ClaimAndCreate(companyID uuid.UUID, groupKey string, bankIDs, bookIDs []uuid.UUID) (*models.Reconciliation, error)
	ReconciliationByKey(groupKey string) (*models.Reconciliation, error)
	DeleteReconciliations(ids []uuid.UUID) (int64, error)
}
