package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// LedgerAccountSortFields contains allowed sort fields for the chart of accounts
var LedgerAccountSortFields = map[string]bool{
	"created_at": true,
	"code":       true,
	"name":       true,
	"class":      true,
	"balance":    true,
}

// PeriodSortFields contains allowed sort fields for accounting periods
var PeriodSortFields = map[string]bool{
	"created_at":  true,
	"start_date":  true,
	"fiscal_year": true,
	"status":      true,
}

// JournalEntrySortFields contains allowed sort fields for journal entries
var JournalEntrySortFields = map[string]bool{
	"created_at":       true,
	"entry_date":       true,
	"reference_number": true,
	"status":           true,
	"posted_at":        true,
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"created_at": true,
	"number":     true,
	"issue_date": true,
	"due_date":   true,
	"status":     true,
	"total":      true,
	"amount_due": true,
}

// BankAccountSortFields contains allowed sort fields for bank accounts
var BankAccountSortFields = map[string]bool{
	"created_at": true,
	"name":       true,
	"bank_name":  true,
}

// BankTransactionSortFields contains allowed sort fields for bank transactions
var BankTransactionSortFields = map[string]bool{
	"created_at":       true,
	"transaction_date": true,
	"amount":           true,
	"status":           true,
}
