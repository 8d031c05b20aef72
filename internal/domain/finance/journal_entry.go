package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JournalEntryStatus represents the status of a journal entry
type JournalEntryStatus string

const (
	JournalEntryStatusDraft    JournalEntryStatus = "draft"
	JournalEntryStatusPosted   JournalEntryStatus = "posted"
	JournalEntryStatusReversed JournalEntryStatus = "reversed"
)

// IsValid checks if the status is a valid JournalEntryStatus
func (s JournalEntryStatus) IsValid() bool {
	switch s {
	case JournalEntryStatusDraft, JournalEntryStatusPosted, JournalEntryStatusReversed:
		return true
	}
	return false
}

// String returns the string representation of JournalEntryStatus
func (s JournalEntryStatus) String() string {
	return string(s)
}

// MinJournalLines is the minimum number of lines a journal entry carries
const MinJournalLines = 2

// JournalEntryLine is one debit/credit movement against a ledger account.
// Lines are owned by their entry and only change while it is a draft.
type JournalEntryLine struct {
	ID             uuid.UUID
	JournalEntryID uuid.UUID
	LineNo         int
	AccountID      uuid.UUID
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	Description    string
	Currency       valueobject.Currency
}

// JournalEntry is a double-entry accounting transaction
type JournalEntry struct {
	shared.TenantAggregateRoot
	ReferenceNumber string
	EntryDate       time.Time
	Description     string
	Status          JournalEntryStatus
	Source          string
	PeriodID        *uuid.UUID
	ReversalOfID    *uuid.UUID
	ReversedByID    *uuid.UUID
	PostedAt        *time.Time
	Lines           []JournalEntryLine
}

// NewJournalEntry creates a draft entry holding lines as given. The entry is
// not required to balance until it is posted.
func NewJournalEntry(
	tenantID uuid.UUID,
	referenceNumber string,
	entryDate time.Time,
	description string,
	lines []JournalEntryLine,
) (*JournalEntry, error) {
	referenceNumber = strings.TrimSpace(referenceNumber)
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if referenceNumber == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Reference number cannot be empty")
	}
	if len(referenceNumber) > 64 {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Reference number cannot exceed 64 characters")
	}
	if entryDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Entry date is required")
	}

	entry := &JournalEntry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ReferenceNumber:     referenceNumber,
		EntryDate:           DateOnly(entryDate),
		Description:         strings.TrimSpace(description),
		Status:              JournalEntryStatusDraft,
		Source:              "manual",
	}
	if err := entry.setLines(lines); err != nil {
		return nil, err
	}
	entry.AddDomainEvent(NewJournalEntryCreatedEvent(entry))
	return entry, nil
}

func (e *JournalEntry) setLines(lines []JournalEntryLine) error {
	if len(lines) < MinJournalLines {
		return shared.NewDomainError("INVALID_LINES", fmt.Sprintf("Journal entry requires at least %d lines", MinJournalLines))
	}
	normalized := make([]JournalEntryLine, 0, len(lines))
	for i, line := range lines {
		if line.AccountID == uuid.Nil {
			return shared.NewDomainError("INVALID_LINES", fmt.Sprintf("Line %d: account is required", i+1))
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return shared.NewDomainError("INVALID_AMOUNT", fmt.Sprintf("Line %d: debit and credit cannot be negative", i+1))
		}
		if err := checkScale(fmt.Sprintf("Line %d: amount", i+1), line.Debit, line.Credit); err != nil {
			return err
		}
		if line.Currency == "" {
			line.Currency = valueobject.DefaultCurrency
		}
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.JournalEntryID = e.ID
		line.LineNo = i + 1
		line.Description = strings.TrimSpace(line.Description)
		normalized = append(normalized, line)
	}
	e.Lines = normalized
	return nil
}

// checkScale rejects amounts that cannot be held at valueobject.Scale
// digits without rounding
func checkScale(label string, amounts ...decimal.Decimal) error {
	for _, d := range amounts {
		if !valueobject.FitsScale(d) {
			return shared.NewDomainError("INVALID_AMOUNT", fmt.Sprintf(
				"%s %s has more than %d fractional digits", label, d.String(), valueobject.Scale))
		}
	}
	return nil
}

// SetSource tags the entry with the module that produced it
func (e *JournalEntry) SetSource(source string) {
	if source = strings.TrimSpace(source); source != "" {
		e.Source = source
	}
}

// TotalDebit returns the sum of all debit amounts
func (e *JournalEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredit returns the sum of all credit amounts
func (e *JournalEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// IsBalanced reports whether total debits equal total credits exactly
func (e *JournalEntry) IsBalanced() bool {
	return e.TotalDebit().Equal(e.TotalCredit())
}

// IsDraft returns true if the entry can still be edited
func (e *JournalEntry) IsDraft() bool {
	return e.Status == JournalEntryStatusDraft
}

// IsPosted returns true if the entry is posted
func (e *JournalEntry) IsPosted() bool {
	return e.Status == JournalEntryStatusPosted
}

// AccountIDs returns the distinct accounts referenced by the lines
func (e *JournalEntry) AccountIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(e.Lines))
	ids := make([]uuid.UUID, 0, len(e.Lines))
	for _, l := range e.Lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		ids = append(ids, l.AccountID)
	}
	return ids
}

// UpdateDraft replaces the description, date and lines of a draft entry
func (e *JournalEntry) UpdateDraft(entryDate time.Time, description string, lines []JournalEntryLine) error {
	if !e.IsDraft() {
		return shared.NewDomainError("ENTRY_NOT_DRAFT", fmt.Sprintf("Cannot modify journal entry in %s status", e.Status))
	}
	if !entryDate.IsZero() {
		e.EntryDate = DateOnly(entryDate)
	}
	if err := e.setLines(lines); err != nil {
		return err
	}
	e.Description = strings.TrimSpace(description)
	e.IncrementVersion()
	e.AddDomainEvent(NewJournalEntryUpdatedEvent(e))
	return nil
}

// EnsureDeletable returns an error unless the entry is a draft
func (e *JournalEntry) EnsureDeletable() error {
	if !e.IsDraft() {
		return shared.NewDomainError("ENTRY_NOT_DRAFT", "Only draft journal entries can be deleted")
	}
	return nil
}

// Post makes the entry authoritative. period is the period covering the entry
// date, or nil when none exists. Checks run in order: draft status, balance,
// covering period, open period.
func (e *JournalEntry) Post(period *AccountingPeriod) error {
	if !e.IsDraft() {
		return shared.NewDomainError("ENTRY_NOT_DRAFT", fmt.Sprintf("Cannot post journal entry in %s status", e.Status))
	}
	debit, credit := e.TotalDebit(), e.TotalCredit()
	if !debit.Equal(credit) {
		return shared.NewDomainError("ENTRY_NOT_BALANCED", fmt.Sprintf(
			"Journal entry is not balanced: debit %s, credit %s",
			valueobject.FormatAmount(debit), valueobject.FormatAmount(credit)))
	}
	if period == nil || period.TenantID != e.TenantID || !period.Contains(e.EntryDate) {
		return shared.NewDomainError("NO_OPEN_PERIOD", fmt.Sprintf(
			"No accounting period covers %s", e.EntryDate.Format("2006-01-02")))
	}
	if !period.AcceptsPostings() {
		return shared.NewDomainError("PERIOD_CLOSED", fmt.Sprintf(
			"Cannot post into closed accounting period %s", period.Name))
	}

	now := time.Now()
	periodID := period.ID
	e.Status = JournalEntryStatusPosted
	e.PeriodID = &periodID
	e.PostedAt = &now
	e.IncrementVersion()
	e.AddDomainEvent(NewJournalEntryPostedEvent(e))
	return nil
}

// BuildReversal creates a draft entry with every line's debit and credit
// swapped, linked back to this entry. The original is not changed until
// MarkReversed is called.
func (e *JournalEntry) BuildReversal(referenceNumber string, entryDate time.Time, description string) (*JournalEntry, error) {
	if !e.IsPosted() {
		return nil, shared.NewDomainError("ENTRY_NOT_POSTED", "Only posted journal entries can be reversed")
	}
	if e.ReversedByID != nil {
		return nil, shared.NewDomainError("ENTRY_NOT_POSTED", "Journal entry has already been reversed")
	}
	if strings.TrimSpace(description) == "" {
		description = "Reversal of " + e.ReferenceNumber
	}

	lines := make([]JournalEntryLine, 0, len(e.Lines))
	for _, l := range e.Lines {
		lines = append(lines, JournalEntryLine{
			AccountID:   l.AccountID,
			Debit:       l.Credit,
			Credit:      l.Debit,
			Description: l.Description,
			Currency:    l.Currency,
		})
	}

	reversal, err := NewJournalEntry(e.TenantID, referenceNumber, entryDate, description, lines)
	if err != nil {
		return nil, err
	}
	originalID := e.ID
	reversal.ReversalOfID = &originalID
	reversal.Source = "reversal"
	return reversal, nil
}

// MarkReversed links the posted entry to its reversing entry
func (e *JournalEntry) MarkReversed(reversal *JournalEntry) error {
	if !e.IsPosted() {
		return shared.NewDomainError("ENTRY_NOT_POSTED", "Only posted journal entries can be reversed")
	}
	if reversal == nil || reversal.ReversalOfID == nil || *reversal.ReversalOfID != e.ID {
		return shared.NewDomainError("INVALID_REVERSAL", "Reversal entry does not reference this journal entry")
	}
	reversalID := reversal.ID
	e.Status = JournalEntryStatusReversed
	e.ReversedByID = &reversalID
	e.IncrementVersion()
	e.AddDomainEvent(NewJournalEntryReversedEvent(e, reversal))
	return nil
}
