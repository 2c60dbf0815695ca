package reconciliation

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Group is one bank/book id grouping to finalize, either materialized from an
// accepted suggestion or supplied manually.
type Group struct {
	BankIDs []uuid.UUID `json:"bank_ids"`
	BookIDs []uuid.UUID `json:"book_ids"`
}

// Conflict reports a group that could not be finalized. ExistingID is set
// when the group was already finalized (idempotent retry).
type Conflict struct {
	Group      Group      `json:"group"`
	Reason     string     `json:"reason"`
	ExistingID *uuid.UUID `json:"existing_id,omitempty"`
}

// FinalizeResult carries both outcomes of a batch: groups are evaluated
// independently, so one conflict never fails the whole call.
type FinalizeResult struct {
	Created   []models.Reconciliation `json:"created"`
	Conflicts []Conflict              `json:"conflicts"`
}

// Finalizer converts accepted groupings into persisted Reconciliation
// records. Exclusivity is re-checked per group at commit time; matching is
// cheap to recompute, so coordination stays optimistic.
type Finalizer struct {
	store Store
	log   zerolog.Logger
}

func NewFinalizer(store Store) *Finalizer {
	return &Finalizer{store: store, log: zerolog.Nop()}
}

func (f *Finalizer) SetLogger(log zerolog.Logger) {
	f.log = log.With().Str("component", "finalizer").Logger()
}

// Finalize commits each group atomically. A retried group resolves via its
// deterministic key: the existing record is reported as a conflict, never
// duplicated.
func (f *Finalizer) Finalize(companyID uuid.UUID, groups []Group) (*FinalizeResult, error) {
	result := &FinalizeResult{}
	for _, group := range groups {
		if len(group.BankIDs) == 0 || len(group.BookIDs) == 0 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Group:  group,
				Reason: "group must touch at least one bank transaction and one journal entry",
			})
			continue
		}

		key := GroupKey(group.BankIDs, group.BookIDs)
		rec, err := f.store.ClaimAndCreate(companyID, key, group.BankIDs, group.BookIDs)
		switch {
		case err == nil:
			result.Created = append(result.Created, *rec)
		case errors.Is(err, ErrGroupFinalized):
			conflict := Conflict{Group: group, Reason: "group already finalized"}
			if existing, lookupErr := f.store.ReconciliationByKey(key); lookupErr == nil {
				id := existing.ID
				conflict.ExistingID = &id
			}
			result.Conflicts = append(result.Conflicts, conflict)
		case errors.Is(err, ErrRecordClaimed):
			result.Conflicts = append(result.Conflicts, Conflict{
				Group:  group,
				Reason: "one or more records are claimed by an active reconciliation",
			})
		case errors.Is(err, ErrRecordNotFound):
			result.Conflicts = append(result.Conflicts, Conflict{
				Group:  group,
				Reason: "one or more records do not exist in the scope",
			})
		default:
			// Persistence failure: surface it, never retry silently.
			return nil, fmt.Errorf("finalizing group %s: %w", key, err)
		}
	}

	f.log.Info().
		Int("created", len(result.Created)).
		Int("conflicts", len(result.Conflicts)).
		Msg("finalize batch processed")
	return result, nil
}

// GroupKey derives the idempotency key for a grouping from the sorted
// touched ids. The same group always hashes to the same key regardless of
// input order.
func GroupKey(bankIDs, bookIDs []uuid.UUID) string {
	bank := sortedIDStrings(bankIDs)
	book := sortedIDStrings(bookIDs)
	h := sha256.Sum256([]byte("bank:" + strings.Join(bank, ",") + "|book:" + strings.Join(book, ",")))
	return hex.EncodeToString(h[:])
}

func sortedIDStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	sort.Strings(out)
	return out
}
