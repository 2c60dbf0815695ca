package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciliationConfig_ValidateDefaults(t *testing.T) {
	assert.NoError(t, DefaultReconciliationConfig().Validate())
}

func TestReconciliationConfig_ValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		field  string
		mutate func(*ReconciliationConfig)
	}{
		{"negative weight", "amount_weight", func(c *ReconciliationConfig) { c.AmountWeight = -0.1 }},
		{"all zero weights", "weights", func(c *ReconciliationConfig) {
			c.DateWeight, c.AmountWeight, c.CurrencyWeight, c.DescriptionWeight = 0, 0, 0, 0
		}},
		{"negative amount tolerance", "amount_tolerance", func(c *ReconciliationConfig) { c.AmountTolerance = -1 }},
		{"negative date tolerance", "date_tolerance_days", func(c *ReconciliationConfig) { c.DateToleranceDays = -1 }},
		{"zero bank limit", "max_bank_entries", func(c *ReconciliationConfig) { c.MaxBankEntries = 0 }},
		{"zero book limit", "max_book_entries", func(c *ReconciliationConfig) { c.MaxBookEntries = 0 }},
		{"zero suggestion limit", "max_suggestions", func(c *ReconciliationConfig) { c.MaxSuggestions = 0 }},
		{"confidence above one", "min_confidence", func(c *ReconciliationConfig) { c.MinConfidence = 1.01 }},
		{"negative confidence", "min_confidence", func(c *ReconciliationConfig) { c.MinConfidence = -0.5 }},
		{"unknown scope", "scope", func(c *ReconciliationConfig) { c.Scope = "tenant" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultReconciliationConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestReconciliation_DiscrepancyRecomputed(t *testing.T) {
	rec := Reconciliation{TotalBankAmount: 120.50, TotalJournalAmount: 100.25}
	assert.InDelta(t, 20.25, rec.Discrepancy(), 1e-9)
}
