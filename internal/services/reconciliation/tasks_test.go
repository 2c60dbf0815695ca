package reconciliation

import (
	"sync"
	"testing"
	"time"

	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModelConfig() *models.ReconciliationConfig {
	return &models.ReconciliationConfig{
		ID:                uuid.New(),
		Name:              "test",
		Scope:             models.ScopeGlobal,
		DateWeight:        0.3,
		AmountWeight:      0.4,
		CurrencyWeight:    0.1,
		DescriptionWeight: 0.2,
		AmountTolerance:   0.01,
		DateToleranceDays: 5,
		MaxBankEntries:    2,
		MaxBookEntries:    4,
		MaxSuggestions:    100,
		MinConfidence:     0.5,
	}
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func seedPair(store *memStore, company uuid.UUID, date string, amount float64, desc string) {
	store.addBank(models.BankTransaction{
		CompanyID:       company,
		TransactionDate: day(date),
		Amount:          amount,
		Currency:        "EUR",
		Description:     desc,
	})
	store.addBook(models.JournalEntry{
		CompanyID:   company,
		EntryDate:   day(date),
		Amount:      amount,
		Currency:    "EUR",
		Description: desc,
	})
}

func waitForStatus(t *testing.T, m *TaskManager, id uuid.UUID, status models.TaskStatus) *models.ReconciliationTask {
	t.Helper()
	require.Eventually(t, func() bool {
		task, err := m.Status(id)
		return err == nil && task.Status == status
	}, 2*time.Second, 5*time.Millisecond)
	task, err := m.Status(id)
	require.NoError(t, err)
	return task
}

// gateSimilarity blocks every scoring call until released, letting tests
// pin a run inside its first batch.
type gateSimilarity struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGateSimilarity() *gateSimilarity {
	return &gateSimilarity{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gateSimilarity) Score(a, b string) float64 {
	g.once.Do(func() { close(g.started) })
	<-g.release
	return 1
}

func TestTask_CompletesWithSuggestions(t *testing.T) {
	store := newMemStore()
	company := uuid.New()
	seedPair(store, company, "2025-01-10", 100.00, "ACME PAYMENT")
	seedPair(store, company, "2025-02-10", 250.00, "RENT FEBRUARY")

	m := NewTaskManager(store, time.Minute)
	task, err := m.Start(testModelConfig(), nil, Scope{CompanyID: company})
	require.NoError(t, err)
	assert.Equal(t, models.TaskQueued, task.Status)

	done := waitForStatus(t, m, task.ID, models.TaskCompleted)
	assert.Equal(t, 2, done.GroupsEvaluated)
	assert.Equal(t, 2, done.SuggestionsFound)
	assert.Empty(t, done.Error)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)

	suggestions, err := m.Suggestions(task.ID)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	for _, s := range suggestions {
		assert.NotEqual(t, uuid.Nil, s.ID)
		assert.InDelta(t, 1.0, s.Confidence, 1e-9)
	}
}

func TestTask_EmptyScopeCompletesEmpty(t *testing.T) {
	store := newMemStore()

	m := NewTaskManager(store, time.Minute)
	task, err := m.Start(testModelConfig(), nil, Scope{CompanyID: uuid.New()})
	require.NoError(t, err)

	done := waitForStatus(t, m, task.ID, models.TaskCompleted)
	assert.Zero(t, done.GroupsEvaluated)
	assert.Zero(t, done.SuggestionsFound)

	suggestions, err := m.Suggestions(task.ID)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestTask_CancelMidRunRetainsPartialResults(t *testing.T) {
	store := newMemStore()
	company := uuid.New()
	// Dates far apart so each bank transaction forms its own batch.
	seedPair(store, company, "2025-01-01", 100.00, "FIRST")
	seedPair(store, company, "2025-02-01", 200.00, "SECOND")
	seedPair(store, company, "2025-03-01", 300.00, "THIRD")

	gate := newGateSimilarity()
	m := NewTaskManager(store, time.Minute)
	task, err := m.Start(testModelConfig(), gate, Scope{CompanyID: company})
	require.NoError(t, err)

	// Wait until the first batch is inside the matcher, then cancel and let
	// the batch finish.
	<-gate.started
	require.NoError(t, m.Cancel(task.ID))
	close(gate.release)

	done := waitForStatus(t, m, task.ID, models.TaskCancelled)
	assert.Equal(t, ErrTaskCancelledMessage, done.Error)
	assert.Equal(t, 1, done.GroupsEvaluated)

	suggestions, err := m.Suggestions(task.ID)
	require.NoError(t, err)
	assert.Len(t, suggestions, 1)
}

func TestTask_TimeBudgetExceededFails(t *testing.T) {
	store := newMemStore()
	company := uuid.New()
	seedPair(store, company, "2025-01-10", 100.00, "ACME")

	m := NewTaskManager(store, -time.Second)
	task, err := m.Start(testModelConfig(), nil, Scope{CompanyID: company})
	require.NoError(t, err)

	done := waitForStatus(t, m, task.ID, models.TaskFailed)
	assert.Equal(t, ErrTaskTimeout.Error(), done.Error)

	// Partial suggestions stay queryable after a timeout.
	_, err = m.Suggestions(task.ID)
	assert.NoError(t, err)
}

func TestTask_TerminalStatusIsWriteOnce(t *testing.T) {
	store := newMemStore()
	company := uuid.New()
	seedPair(store, company, "2025-01-10", 100.00, "ACME")

	m := NewTaskManager(store, time.Minute)
	task, err := m.Start(testModelConfig(), nil, Scope{CompanyID: company})
	require.NoError(t, err)

	done := waitForStatus(t, m, task.ID, models.TaskCompleted)
	assert.ErrorIs(t, m.Cancel(task.ID), ErrTaskNotCancellable)

	after, err := m.Status(task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, after.Status)
	assert.Equal(t, done.CompletedAt, after.CompletedAt)
}

func TestTask_UnknownTask(t *testing.T) {
	m := NewTaskManager(newMemStore(), time.Minute)

	_, err := m.Status(uuid.New())
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.ErrorIs(t, m.Cancel(uuid.New()), ErrTaskNotFound)
	_, err = m.Suggestions(uuid.New())
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTask_ExpireEvictsFinishedRuns(t *testing.T) {
	store := newMemStore()
	company := uuid.New()
	seedPair(store, company, "2025-01-10", 100.00, "ACME")

	m := NewTaskManager(store, time.Minute)
	task, err := m.Start(testModelConfig(), nil, Scope{CompanyID: company})
	require.NoError(t, err)
	waitForStatus(t, m, task.ID, models.TaskCompleted)

	assert.Equal(t, 1, m.Expire(time.Now().Add(time.Second)))
	_, err = m.Status(task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	// The persisted row survives eviction; only the in-memory state and its
	// suggestions are released.
	_, err = store.TaskByID(task.ID)
	assert.NoError(t, err)
}

func TestTask_StatusSafeUnderConcurrentPolling(t *testing.T) {
	store := newMemStore()
	company := uuid.New()
	for i := 0; i < 5; i++ {
		seedPair(store, company, day("2025-01-01").AddDate(0, i, 0).Format("2006-01-02"), 100+float64(i), "ENTRY")
	}

	m := NewTaskManager(store, time.Minute)
	task, err := m.Start(testModelConfig(), nil, Scope{CompanyID: company})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if snap, err := m.Status(task.ID); err == nil {
					assert.GreaterOrEqual(t, snap.SuggestionsFound, 0)
				}
			}
		}()
	}
	wg.Wait()

	waitForStatus(t, m, task.ID, models.TaskCompleted)
}
