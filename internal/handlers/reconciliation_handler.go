package handler

import (
	"errors"
	"net/http"

	"bank-reconciliation-backend/internal/models"
	service "bank-reconciliation-backend/internal/services/reconciliation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReconciliationHandler struct {
	service *service.Service
}

func NewReconciliationHandler(s *service.Service) *ReconciliationHandler {
	return &ReconciliationHandler{service: s}
}

type inlineConfigPayload struct {
	Name              string  `json:"name"`
	Scope             string  `json:"scope"`
	DateWeight        float64 `json:"date_weight"`
	AmountWeight      float64 `json:"amount_weight"`
	CurrencyWeight    float64 `json:"currency_weight"`
	DescriptionWeight float64 `json:"description_weight"`
	AmountTolerance   float64 `json:"amount_tolerance"`
	DateToleranceDays int     `json:"date_tolerance_days"`
	MaxBankEntries    int     `json:"max_bank_entries"`
	MaxBookEntries    int     `json:"max_book_entries"`
	MaxSuggestions    int     `json:"max_suggestions"`
	MinConfidence     float64 `json:"min_confidence"`
}

func (p *inlineConfigPayload) toModel() *models.ReconciliationConfig {
	scope := models.ConfigScope(p.Scope)
	if p.Scope == "" {
		scope = models.ScopeGlobal
	}
	return &models.ReconciliationConfig{
		Name:              p.Name,
		Scope:             scope,
		DateWeight:        p.DateWeight,
		AmountWeight:      p.AmountWeight,
		CurrencyWeight:    p.CurrencyWeight,
		DescriptionWeight: p.DescriptionWeight,
		AmountTolerance:   p.AmountTolerance,
		DateToleranceDays: p.DateToleranceDays,
		MaxBankEntries:    p.MaxBankEntries,
		MaxBookEntries:    p.MaxBookEntries,
		MaxSuggestions:    p.MaxSuggestions,
		MinConfidence:     p.MinConfidence,
	}
}

// StartTask enqueues a matching run and returns the task id without blocking
// on the computation.
func (h *ReconciliationHandler) StartTask(c *gin.Context) {
	var payload struct {
		ConfigID *uuid.UUID           `json:"config_id"`
		Config   *inlineConfigPayload `json:"config"`
		Scope    service.Scope        `json:"scope"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if payload.Scope.CompanyID == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scope.company_id is required"})
		return
	}

	var inline *models.ReconciliationConfig
	if payload.Config != nil {
		inline = payload.Config.toModel()
	}

	task, err := h.service.StartTask(payload.ConfigID, inline, payload.Scope)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"task_id": task.ID, "status": task.Status})
}

func (h *ReconciliationHandler) GetTaskStatus(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	task, err := h.service.TaskStatus(taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, taskResponse(task))
}

func (h *ReconciliationHandler) ListTasks(c *gin.Context) {
	tasks := h.service.ListTasks()
	out := make([]gin.H, 0, len(tasks))
	for i := range tasks {
		out = append(out, taskResponse(&tasks[i]))
	}
	c.JSON(http.StatusOK, gin.H{"tasks": out})
}

func (h *ReconciliationHandler) CancelTask(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	if err := h.service.CancelTask(taskID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cancellation requested"})
}

func (h *ReconciliationHandler) ListSuggestions(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	suggestions, err := h.service.ListSuggestions(taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// Finalize accepts either suggestion ids of a task or explicit manual
// groups. Created records and conflicting groups come back side by side.
func (h *ReconciliationHandler) Finalize(c *gin.Context) {
	var payload struct {
		TaskID        *uuid.UUID      `json:"task_id"`
		SuggestionIDs []uuid.UUID     `json:"suggestion_ids"`
		CompanyID     *uuid.UUID      `json:"company_id"`
		Groups        []service.Group `json:"groups"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	var result *service.FinalizeResult
	var err error
	switch {
	case payload.TaskID != nil && len(payload.SuggestionIDs) > 0:
		result, err = h.service.FinalizeSuggestions(*payload.TaskID, payload.SuggestionIDs)
	case payload.CompanyID != nil && len(payload.Groups) > 0:
		result, err = h.service.FinalizeManual(*payload.CompanyID, payload.Groups)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "requires task_id with suggestion_ids, or company_id with groups"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	created := make([]gin.H, 0, len(result.Created))
	for i := range result.Created {
		created = append(created, reconciliationResponse(&result.Created[i]))
	}
	c.JSON(http.StatusOK, gin.H{"created": created, "conflicts": result.Conflicts})
}

func (h *ReconciliationHandler) BulkDelete(c *gin.Context) {
	var payload struct {
		ReconciliationIDs []uuid.UUID `json:"reconciliation_ids"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	count, err := h.service.BulkDelete(payload.ReconciliationIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": count})
}

func taskResponse(t *models.ReconciliationTask) gin.H {
	return gin.H{
		"task_id": t.ID,
		"status":  t.Status,
		"progress": gin.H{
			"groups_evaluated":  t.GroupsEvaluated,
			"suggestions_found": t.SuggestionsFound,
		},
		"error":        t.Error,
		"created_at":   t.CreatedAt,
		"started_at":   t.StartedAt,
		"completed_at": t.CompletedAt,
	}
}

func reconciliationResponse(r *models.Reconciliation) gin.H {
	return gin.H{
		"id":                   r.ID,
		"company_id":           r.CompanyID,
		"bank_transaction_ids": r.BankTransactionIDs,
		"journal_entry_ids":    r.JournalEntryIDs,
		"total_bank_amount":    r.TotalBankAmount,
		"total_journal_amount": r.TotalJournalAmount,
		"discrepancy":          r.Discrepancy(),
		"created_at":           r.CreatedAt,
	}
}

func respondError(c *gin.Context, err error) {
	var cfgErr *models.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": cfgErr.Error()})
	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrConfigNotFound),
		errors.Is(err, service.ErrSuggestionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrTaskNotCancellable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
