package models

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskQueued    TaskStatus = "queued"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// Terminal reports whether the status is final. Terminal statuses are
// write-once.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

type ReconciliationTask struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConfigID         *uuid.UUID
	Status           TaskStatus `gorm:"index"`
	CompanyID        uuid.UUID  `gorm:"index"`
	AccountID        string
	EntityID         string
	DateFrom         *time.Time
	DateTo           *time.Time
	GroupsEvaluated  int
	SuggestionsFound int
	Error            string
	CreatedAt        time.Time
	StartedAt        *time.Time
	CompletedAt      *time.Time
}
