package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ConfigScope string

const (
	ScopeGlobal  ConfigScope = "global"
	ScopeCompany ConfigScope = "company"
	ScopeUser    ConfigScope = "user"
)

// ReconciliationConfig holds the weights, tolerances and limits for a
// matching run. A config is validated once when loaded and treated as
// immutable for the duration of the run.
type ReconciliationConfig struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Name      string      `gorm:"uniqueIndex"`
	Scope     ConfigScope `gorm:"index"`
	CompanyID *uuid.UUID  `gorm:"index"`

	DateWeight        float64
	AmountWeight      float64
	CurrencyWeight    float64
	DescriptionWeight float64

	AmountTolerance   float64
	DateToleranceDays int

	MaxBankEntries int
	MaxBookEntries int
	MaxSuggestions int

	MinConfidence float64

	CreatedAt time.Time
}

// ConfigurationError reports an invalid config field at load time, before
// anything reaches the matching engine.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid reconciliation config: %s %s", e.Field, e.Reason)
}

func (c *ReconciliationConfig) Validate() error {
	for field, w := range map[string]float64{
		"date_weight":        c.DateWeight,
		"amount_weight":      c.AmountWeight,
		"currency_weight":    c.CurrencyWeight,
		"description_weight": c.DescriptionWeight,
	} {
		if w < 0 {
			return &ConfigurationError{Field: field, Reason: "must be non-negative"}
		}
	}
	if c.DateWeight+c.AmountWeight+c.CurrencyWeight+c.DescriptionWeight == 0 {
		return &ConfigurationError{Field: "weights", Reason: "must not all be zero"}
	}
	if c.AmountTolerance < 0 {
		return &ConfigurationError{Field: "amount_tolerance", Reason: "must be non-negative"}
	}
	if c.DateToleranceDays < 0 {
		return &ConfigurationError{Field: "date_tolerance_days", Reason: "must be non-negative"}
	}
	if c.MaxBankEntries < 1 {
		return &ConfigurationError{Field: "max_bank_entries", Reason: "must be at least 1"}
	}
	if c.MaxBookEntries < 1 {
		return &ConfigurationError{Field: "max_book_entries", Reason: "must be at least 1"}
	}
	if c.MaxSuggestions < 1 {
		return &ConfigurationError{Field: "max_suggestions", Reason: "must be at least 1"}
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return &ConfigurationError{Field: "min_confidence", Reason: "must be within [0,1]"}
	}
	switch c.Scope {
	case ScopeGlobal, ScopeCompany, ScopeUser:
	default:
		return &ConfigurationError{Field: "scope", Reason: "must be global, company or user"}
	}
	return nil
}

// DefaultReconciliationConfig returns a permissive global config suitable as
// a starting point for tuning.
func DefaultReconciliationConfig() *ReconciliationConfig {
	return &ReconciliationConfig{
		Name:              "default",
		Scope:             ScopeGlobal,
		DateWeight:        0.3,
		AmountWeight:      0.4,
		CurrencyWeight:    0.1,
		DescriptionWeight: 0.2,
		AmountTolerance:   0.05,
		DateToleranceDays: 5,
		MaxBankEntries:    2,
		MaxBookEntries:    4,
		MaxSuggestions:    100,
		MinConfidence:     0.5,
	}
}
