package reconciliation

import (
	"fmt"

	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/services/matching"
)

// Collector reads the unreconciled candidates for a scope. The result is a
// snapshot: races with concurrent finalization are resolved by the
// finalizer's exclusivity check, not here.
type Collector struct {
	store Store
}

func NewCollector(store Store) *Collector {
	return &Collector{store: store}
}

func (c *Collector) Collect(scope Scope) (bank, book []matching.Entry, err error) {
	txns, err := c.store.UnreconciledBankTransactions(scope)
	if err != nil {
		return nil, nil, fmt.Errorf("collecting bank transactions: %w", err)
	}
	entries, err := c.store.UnreconciledJournalEntries(scope)
	if err != nil {
		return nil, nil, fmt.Errorf("collecting journal entries: %w", err)
	}

	for _, t := range txns {
		bank = append(bank, bankEntry(&t))
	}
	for _, e := range entries {
		book = append(book, bookEntry(&e))
	}
	return bank, book, nil
}

func bankEntry(t *models.BankTransaction) matching.Entry {
	return matching.Entry{
		ID:          t.ID,
		Date:        t.TransactionDate,
		Amount:      t.Amount,
		Currency:    t.Currency,
		Description: t.Description,
	}
}

func bookEntry(e *models.JournalEntry) matching.Entry {
	return matching.Entry{
		ID:          e.ID,
		Date:        e.EntryDate,
		Amount:      e.Amount,
		Currency:    e.Currency,
		Description: e.Description,
	}
}
