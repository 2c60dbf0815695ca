package reconciliation

import (
	"encoding/json"
	"sync"
	"time"

	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// memStore mirrors the gorm store's semantics in memory so the service and
// finalizer can be exercised without a database.
type memStore struct {
	mu      sync.Mutex
	bank    map[uuid.UUID]*models.BankTransaction
	book    map[uuid.UUID]*models.JournalEntry
	configs map[uuid.UUID]*models.ReconciliationConfig
	tasks   map[uuid.UUID]*models.ReconciliationTask
	recs    map[uuid.UUID]*models.Reconciliation
	byKey   map[string]uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		bank:    make(map[uuid.UUID]*models.BankTransaction),
		book:    make(map[uuid.UUID]*models.JournalEntry),
		configs: make(map[uuid.UUID]*models.ReconciliationConfig),
		tasks:   make(map[uuid.UUID]*models.ReconciliationTask),
		recs:    make(map[uuid.UUID]*models.Reconciliation),
		byKey:   make(map[string]uuid.UUID),
	}
}

func (s *memStore) addBank(t models.BankTransaction) models.BankTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	s.bank[t.ID] = &t
	return t
}

func (s *memStore) addBook(e models.JournalEntry) models.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	s.book[e.ID] = &e
	return e
}

func (s *memStore) UnreconciledBankTransactions(scope Scope) ([]models.BankTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.BankTransaction
	for _, t := range s.bank {
		if t.CompanyID != scope.CompanyID || t.ReconciliationID != nil {
			continue
		}
		if scope.AccountID != "" && t.AccountID != scope.AccountID {
			continue
		}
		if !inWindow(t.TransactionDate, scope.DateFrom, scope.DateTo) {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (s *memStore) UnreconciledJournalEntries(scope Scope) ([]models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.JournalEntry
	for _, e := range s.book {
		if e.CompanyID != scope.CompanyID || e.ReconciliationID != nil {
			continue
		}
		if scope.AccountID != "" && e.AccountID != scope.AccountID {
			continue
		}
		if scope.EntityID != "" && e.EntityID != scope.EntityID {
			continue
		}
		if !inWindow(e.EntryDate, scope.DateFrom, scope.DateTo) {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (s *memStore) ConfigByID(id uuid.UUID) (*models.ReconciliationConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[id]
	if !ok {
		return nil, ErrConfigNotFound
	}
	copied := *cfg
	return &copied, nil
}

func (s *memStore) CreateConfig(cfg *models.ReconciliationConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *cfg
	s.configs[cfg.ID] = &copied
	return nil
}

func (s *memStore) ListConfigs() ([]models.ReconciliationConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ReconciliationConfig
	for _, cfg := range s.configs {
		out = append(out, *cfg)
	}
	return out, nil
}

func (s *memStore) CreateTask(task *models.ReconciliationTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *memStore) SaveTask(task *models.ReconciliationTask) error {
	return s.CreateTask(task)
}

func (s *memStore) TaskByID(id uuid.UUID) (*models.ReconciliationTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (s *memStore) ClaimAndCreate(companyID uuid.UUID, groupKey string, bankIDs, bookIDs []uuid.UUID) (*models.Reconciliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byKey[groupKey]; ok {
		return nil, ErrGroupFinalized
	}

	totalBank := 0.0
	for _, id := range bankIDs {
		t, ok := s.bank[id]
		if !ok {
			return nil, ErrRecordNotFound
		}
		if t.ReconciliationID != nil {
			return nil, ErrRecordClaimed
		}
		totalBank += t.Amount
	}
	totalJournal := 0.0
	for _, id := range bookIDs {
		e, ok := s.book[id]
		if !ok {
			return nil, ErrRecordNotFound
		}
		if e.ReconciliationID != nil {
			return nil, ErrRecordClaimed
		}
		totalJournal += e.Amount
	}

	bankJSON, _ := json.Marshal(bankIDs)
	bookJSON, _ := json.Marshal(bookIDs)
	rec := &models.Reconciliation{
		ID:                 uuid.New(),
		CompanyID:          companyID,
		GroupKey:           groupKey,
		BankTransactionIDs: datatypes.JSON(bankJSON),
		JournalEntryIDs:    datatypes.JSON(bookJSON),
		TotalBankAmount:    totalBank,
		TotalJournalAmount: totalJournal,
		CreatedAt:          time.Now(),
	}
	s.recs[rec.ID] = rec
	s.byKey[groupKey] = rec.ID
	for _, id := range bankIDs {
		recID := rec.ID
		s.bank[id].ReconciliationID = &recID
	}
	for _, id := range bookIDs {
		recID := rec.ID
		s.book[id].ReconciliationID = &recID
	}

	copied := *rec
	return &copied, nil
}

func (s *memStore) ReconciliationByKey(groupKey string) (*models.Reconciliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byKey[groupKey]
	if !ok {
		return nil, ErrRecordNotFound
	}
	copied := *s.recs[id]
	return &copied, nil
}

func (s *memStore) DeleteReconciliations(ids []uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for _, id := range ids {
		rec, ok := s.recs[id]
		if !ok {
			continue
		}
		for _, t := range s.bank {
			if t.ReconciliationID != nil && *t.ReconciliationID == id {
				t.ReconciliationID = nil
			}
		}
		for _, e := range s.book {
			if e.ReconciliationID != nil && *e.ReconciliationID == id {
				e.ReconciliationID = nil
			}
		}
		delete(s.byKey, rec.GroupKey)
		delete(s.recs, id)
		deleted++
	}
	return deleted, nil
}

func inWindow(date time.Time, from, to *time.Time) bool {
	if from != nil && date.Before(*from) {
		return false
	}
	if to != nil && date.After(*to) {
		return false
	}
	return true
}
