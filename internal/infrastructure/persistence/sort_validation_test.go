package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns DESC", "", "DESC"},
		{"lowercase asc returns ASC", "asc", "ASC"},
		{"whitespace around asc returns ASC", "  asc  ", "ASC"},
		{"desc returns DESC", "desc", "DESC"},
		{"injection attempt returns DESC", "ASC; DROP TABLE journal_entries;--", "DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty returns default", "", "created_at"},
		{"whitelisted field", "entry_date", "entry_date"},
		{"whitespace is trimmed", " reference_number ", "reference_number"},
		{"unknown field returns default", "lines", "created_at"},
		{"case sensitive", "ENTRY_DATE", "created_at"},
		{"injection attempt returns default", "entry_date; DROP TABLE journal_entries;--", "created_at"},
		{"subquery returns default", "id, (SELECT debit FROM journal_entry_lines)", "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, JournalEntrySortFields, "created_at"))
		})
	}
}

func TestSortFieldsWhitelists(t *testing.T) {
	whitelists := map[string]map[string]bool{
		"LedgerAccountSortFields":   LedgerAccountSortFields,
		"PeriodSortFields":          PeriodSortFields,
		"JournalEntrySortFields":    JournalEntrySortFields,
		"InvoiceSortFields":         InvoiceSortFields,
		"BankAccountSortFields":     BankAccountSortFields,
		"BankTransactionSortFields": BankTransactionSortFields,
	}

	for name, whitelist := range whitelists {
		t.Run(name, func(t *testing.T) {
			assert.True(t, whitelist["created_at"], "%s should allow created_at", name)
			assert.GreaterOrEqual(t, len(whitelist), 3)
		})
	}
}
