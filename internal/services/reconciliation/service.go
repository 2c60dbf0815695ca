package reconciliation

import (
	"fmt"
	"time"

	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/services/matching"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service is the entry point for the reconciliation subsystem: config store,
// task orchestration, suggestion review and finalization.
type Service struct {
	store      Store
	tasks      *TaskManager
	finalizer  *Finalizer
	similarity matching.Similarity
	log        zerolog.Logger
}

func NewService(store Store, taskTimeBudget time.Duration) *Service {
	return &Service{
		store:      store,
		tasks:      NewTaskManager(store, taskTimeBudget),
		finalizer:  NewFinalizer(store),
		similarity: matching.TokenSimilarity{},
		log:        zerolog.Nop(),
	}
}

func (s *Service) SetLogger(log zerolog.Logger) {
	s.log = log.With().Str("component", "reconciliation_service").Logger()
	s.tasks.SetLogger(log)
	s.finalizer.SetLogger(log)
}

// SetSimilarity swaps the description-similarity capability used by new
// matching runs. In-flight tasks keep the strategy they started with.
func (s *Service) SetSimilarity(sim matching.Similarity) {
	if sim != nil {
		s.similarity = sim
	}
}

func (s *Service) TaskManager() *TaskManager {
	return s.tasks
}

// StartTask resolves the config (stored or inline), validates it, and
// enqueues an asynchronous matching run over the scope.
func (s *Service) StartTask(configID *uuid.UUID, inline *models.ReconciliationConfig, scope Scope) (*models.ReconciliationTask, error) {
	var cfg *models.ReconciliationConfig
	switch {
	case configID != nil:
		stored, err := s.store.ConfigByID(*configID)
		if err != nil {
			return nil, err
		}
		cfg = stored
	case inline != nil:
		cfg = inline
	default:
		return nil, &models.ConfigurationError{Field: "config", Reason: "requires config_id or inline config"}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return s.tasks.Start(cfg, s.similarity, scope)
}

func (s *Service) TaskStatus(taskID uuid.UUID) (*models.ReconciliationTask, error) {
	return s.tasks.Status(taskID)
}

func (s *Service) CancelTask(taskID uuid.UUID) error {
	return s.tasks.Cancel(taskID)
}

func (s *Service) ListSuggestions(taskID uuid.UUID) ([]matching.Suggestion, error) {
	return s.tasks.Suggestions(taskID)
}

func (s *Service) ListTasks() []models.ReconciliationTask {
	return s.tasks.Tasks()
}

// FinalizeSuggestions materializes accepted suggestions of a task into
// Reconciliation records. Unknown or expired suggestion ids are reported as
// conflicts so the rest of the batch still commits.
func (s *Service) FinalizeSuggestions(taskID uuid.UUID, suggestionIDs []uuid.UUID) (*FinalizeResult, error) {
	task, err := s.tasks.Status(taskID)
	if err != nil {
		return nil, err
	}

	var groups []Group
	var stale []Conflict
	for _, id := range suggestionIDs {
		suggestion, err := s.tasks.Suggestion(taskID, id)
		if err != nil {
			stale = append(stale, Conflict{Reason: fmt.Sprintf("suggestion %s not found or expired", id)})
			continue
		}
		groups = append(groups, Group{BankIDs: suggestion.BankIDs, BookIDs: suggestion.BookIDs})
	}

	result, err := s.finalizer.Finalize(task.CompanyID, groups)
	if err != nil {
		return nil, err
	}
	result.Conflicts = append(result.Conflicts, stale...)
	return result, nil
}

// FinalizeManual commits explicit bank/book groupings without a prior
// suggestion.
func (s *Service) FinalizeManual(companyID uuid.UUID, groups []Group) (*FinalizeResult, error) {
	return s.finalizer.Finalize(companyID, groups)
}

// BulkDelete removes reconciliations and releases the claims on their
// members, making those records matchable again.
func (s *Service) BulkDelete(ids []uuid.UUID) (int64, error) {
	count, err := s.store.DeleteReconciliations(ids)
	if err != nil {
		return 0, fmt.Errorf("deleting reconciliations: %w", err)
	}
	s.log.Info().Int64("deleted", count).Msg("bulk delete processed")
	return count, nil
}

func (s *Service) CreateConfig(cfg *models.ReconciliationConfig) error {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.store.CreateConfig(cfg)
}

func (s *Service) GetConfig(id uuid.UUID) (*models.ReconciliationConfig, error) {
	return s.store.ConfigByID(id)
}

func (s *Service) ListConfigs() ([]models.ReconciliationConfig, error) {
	return s.store.ListConfigs()
}
