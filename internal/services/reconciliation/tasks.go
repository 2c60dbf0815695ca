package reconciliation

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/services/matching"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// flushEvery controls how often the runner persists progress counters while
// batching through bank groups.
const flushEvery = 25

// taskState is the in-memory run state of one task: the authoritative task
// row snapshot, the cancel flag and the suggestion set. Suggestions live here
// only; they are released when the task is evicted.
type taskState struct {
	mu              sync.Mutex
	task            models.ReconciliationTask
	cancelRequested bool
	suggestions     []matching.Suggestion
	engine          *matching.Engine
}

// snapshot returns a copy safe to hand out while the run loop is mutating
// the state.
func (s *taskState) snapshot() models.ReconciliationTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task
}

// transition moves the task to a new status. Terminal statuses are
// write-once: once the task is completed, failed or cancelled no further
// transition is applied.
func (s *taskState) transition(status models.TaskStatus, errMsg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.task.Status.Terminal() {
		return false
	}
	s.task.Status = status
	now := time.Now()
	switch {
	case status == models.TaskRunning:
		s.task.StartedAt = &now
	case status.Terminal():
		s.task.CompletedAt = &now
		s.task.Error = errMsg
	}
	return true
}

// TaskManager owns the reconciliation task registry and runs each task as an
// independent asynchronous unit of work. Start, Cancel and Status never block
// on the underlying computation.
type TaskManager struct {
	store      Store
	collector  *Collector
	timeBudget time.Duration
	log        zerolog.Logger

	tasks sync.Map // uuid.UUID -> *taskState
}

func NewTaskManager(store Store, timeBudget time.Duration) *TaskManager {
	return &TaskManager{
		store:      store,
		collector:  NewCollector(store),
		timeBudget: timeBudget,
		log:        zerolog.Nop(),
	}
}

func (m *TaskManager) SetLogger(log zerolog.Logger) {
	m.log = log.With().Str("component", "task_manager").Logger()
}

// Start enqueues a task for the given config and scope and returns
// immediately. The config must already be validated.
func (m *TaskManager) Start(cfg *models.ReconciliationConfig, sim matching.Similarity, scope Scope) (*models.ReconciliationTask, error) {
	task := models.ReconciliationTask{
		ID:        uuid.New(),
		Status:    models.TaskQueued,
		CompanyID: scope.CompanyID,
		AccountID: scope.AccountID,
		EntityID:  scope.EntityID,
		DateFrom:  scope.DateFrom,
		DateTo:    scope.DateTo,
		CreatedAt: time.Now(),
	}
	if cfg.ID != uuid.Nil {
		id := cfg.ID
		task.ConfigID = &id
	}
	if err := m.store.CreateTask(&task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	state := &taskState{
		task:   task,
		engine: matching.NewEngine(engineConfig(cfg), sim),
	}
	m.tasks.Store(task.ID, state)

	m.log.Info().Str("task", task.ID.String()).Str("config", cfg.Name).Msg("reconciliation task queued")

	// Snapshot before the runner can transition the state.
	snap := state.snapshot()
	go m.run(state, scope)
	return &snap, nil
}

// Cancel requests cancellation. Queued tasks transition immediately; running
// tasks observe the flag at the next batch boundary.
func (m *TaskManager) Cancel(taskID uuid.UUID) error {
	state, ok := m.state(taskID)
	if !ok {
		return ErrTaskNotFound
	}

	state.mu.Lock()
	switch state.task.Status {
	case models.TaskQueued, models.TaskRunning:
		state.cancelRequested = true
	default:
		state.mu.Unlock()
		return ErrTaskNotCancellable
	}
	state.mu.Unlock()

	m.log.Info().Str("task", taskID.String()).Msg("cancellation requested")
	return nil
}

// Status returns a read-only snapshot, safe to call concurrently with an
// in-progress run.
func (m *TaskManager) Status(taskID uuid.UUID) (*models.ReconciliationTask, error) {
	state, ok := m.state(taskID)
	if !ok {
		return nil, ErrTaskNotFound
	}
	snap := state.snapshot()
	return &snap, nil
}

// Suggestions returns the ranked suggestion list, including partial results
// of failed or cancelled runs.
func (m *TaskManager) Suggestions(taskID uuid.UUID) ([]matching.Suggestion, error) {
	state, ok := m.state(taskID)
	if !ok {
		return nil, ErrTaskNotFound
	}
	state.mu.Lock()
	raw := make([]matching.Suggestion, len(state.suggestions))
	copy(raw, state.suggestions)
	state.mu.Unlock()
	return state.engine.Rank(raw), nil
}

// Suggestion resolves a single suggestion by id within a task.
func (m *TaskManager) Suggestion(taskID, suggestionID uuid.UUID) (*matching.Suggestion, error) {
	state, ok := m.state(taskID)
	if !ok {
		return nil, ErrTaskNotFound
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	for i := range state.suggestions {
		if state.suggestions[i].ID == suggestionID {
			s := state.suggestions[i]
			return &s, nil
		}
	}
	return nil, ErrSuggestionNotFound
}

// Tasks lists snapshots of all registered tasks, newest first.
func (m *TaskManager) Tasks() []models.ReconciliationTask {
	var out []models.ReconciliationTask
	m.tasks.Range(func(_, v any) bool {
		out = append(out, v.(*taskState).snapshot())
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Expire evicts terminal tasks that finished before the cutoff, releasing
// their suggestion sets. Returns the number of evicted tasks.
func (m *TaskManager) Expire(cutoff time.Time) int {
	evicted := 0
	m.tasks.Range(func(k, v any) bool {
		state := v.(*taskState)
		state.mu.Lock()
		done := state.task.Status.Terminal() && state.task.CompletedAt != nil && state.task.CompletedAt.Before(cutoff)
		state.mu.Unlock()
		if done {
			m.tasks.Delete(k)
			evicted++
		}
		return true
	})
	return evicted
}

func (m *TaskManager) state(taskID uuid.UUID) (*taskState, bool) {
	v, ok := m.tasks.Load(taskID)
	if !ok {
		return nil, false
	}
	return v.(*taskState), true
}

// run executes the collector+matcher pipeline for one task, one bank group
// per batch. Cancellation and the time budget are checked between batches;
// suggestions from completed batches are retained whatever the outcome.
func (m *TaskManager) run(state *taskState, scope Scope) {
	taskID := state.task.ID
	defer func() {
		if r := recover(); r != nil {
			state.transition(models.TaskFailed, fmt.Sprintf("matching run panicked: %v", r))
			m.persist(state)
			m.log.Error().Str("task", taskID.String()).Interface("panic", r).Msg("reconciliation run panicked")
		}
	}()

	state.mu.Lock()
	if state.cancelRequested {
		state.mu.Unlock()
		state.transition(models.TaskCancelled, "cancelled before start")
		m.persist(state)
		return
	}
	state.mu.Unlock()

	state.transition(models.TaskRunning, "")
	m.persist(state)
	deadline := time.Now().Add(m.timeBudget)

	bank, book, err := m.collector.Collect(scope)
	if err != nil {
		state.transition(models.TaskFailed, err.Error())
		m.persist(state)
		m.log.Error().Err(err).Str("task", taskID.String()).Msg("candidate collection failed")
		return
	}

	// An empty scope is not an error: the task completes with no suggestions.
	groups := state.engine.BankGroups(bank)
	for _, group := range groups {
		state.mu.Lock()
		cancelled := state.cancelRequested
		state.mu.Unlock()
		if cancelled {
			state.transition(models.TaskCancelled, ErrTaskCancelledMessage)
			m.persist(state)
			m.log.Info().Str("task", taskID.String()).Msg("reconciliation task cancelled")
			return
		}
		if time.Now().After(deadline) {
			state.transition(models.TaskFailed, ErrTaskTimeout.Error())
			m.persist(state)
			m.log.Warn().Str("task", taskID.String()).Dur("budget", m.timeBudget).Msg("reconciliation task timed out")
			return
		}

		found := state.engine.MatchGroup(group, book)

		state.mu.Lock()
		for i := range found {
			found[i].ID = uuid.New()
		}
		state.suggestions = append(state.suggestions, found...)
		state.task.GroupsEvaluated++
		state.task.SuggestionsFound = len(state.suggestions)
		flush := state.task.GroupsEvaluated%flushEvery == 0
		state.mu.Unlock()

		if flush {
			m.persist(state)
		}
	}

	state.transition(models.TaskCompleted, "")
	m.persist(state)

	snap := state.snapshot()
	m.log.Info().
		Str("task", taskID.String()).
		Int("groups", snap.GroupsEvaluated).
		Int("suggestions", snap.SuggestionsFound).
		Msg("reconciliation task completed")
}

func (m *TaskManager) persist(state *taskState) {
	snap := state.snapshot()
	if err := m.store.SaveTask(&snap); err != nil {
		m.log.Error().Err(err).Str("task", snap.ID.String()).Msg("persisting task state failed")
	}
}

func engineConfig(cfg *models.ReconciliationConfig) matching.Config {
	return matching.Config{
		DateWeight:        cfg.DateWeight,
		AmountWeight:      cfg.AmountWeight,
		CurrencyWeight:    cfg.CurrencyWeight,
		DescriptionWeight: cfg.DescriptionWeight,
		AmountTolerance:   cfg.AmountTolerance,
		DateToleranceDays: cfg.DateToleranceDays,
		MaxBankEntries:    cfg.MaxBankEntries,
		MaxBookEntries:    cfg.MaxBookEntries,
		MaxSuggestions:    cfg.MaxSuggestions,
		MinConfidence:     cfg.MinConfidence,
	}
}
