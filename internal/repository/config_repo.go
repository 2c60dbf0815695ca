package repository

import (
	"errors"

	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/services/reconciliation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConfigRepository struct {
	db *gorm.DB
}

func NewConfigRepository(db *gorm.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

func (r *ConfigRepository) ConfigByID(id uuid.UUID) (*models.ReconciliationConfig, error) {
	var cfg models.ReconciliationConfig
	if err := r.db.First(&cfg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reconciliation.ErrConfigNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *ConfigRepository) CreateConfig(cfg *models.ReconciliationConfig) error {
	return r.db.Create(cfg).Error
}

func (r *ConfigRepository) ListConfigs() ([]models.ReconciliationConfig, error) {
	var configs []models.ReconciliationConfig
	err := r.db.Order("created_at ASC").Find(&configs).Error
	return configs, err
}
