package repository

import (
	"errors"

	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/services/reconciliation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) CreateTask(task *models.ReconciliationTask) error {
	return r.db.Create(task).Error
}

// SaveTask flushes the full task row. The runner calls this between batches
// so status, progress counters and error survive in the database.
func (r *TaskRepository) SaveTask(task *models.ReconciliationTask) error {
	return r.db.Save(task).Error
}

func (r *TaskRepository) TaskByID(id uuid.UUID) (*models.ReconciliationTask, error) {
	var task models.ReconciliationTask
	if err := r.db.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reconciliation.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}
