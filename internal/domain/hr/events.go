// Package hr holds the event contracts raised by the payroll and expense
// modules. Monetary values travel as decimal strings.
package hr

import (
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constants
const (
	AggregateTypePayrollRun   = "PayrollRun"
	AggregateTypeExpenseClaim = "ExpenseClaim"
)

// Event type constants
const (
	EventTypePayrollRunCompleted    = "PayrollRunCompleted"
	EventTypeExpenseClaimReimbursed = "ExpenseClaimReimbursed"
)

// PayrollRunCompletedEvent is raised when a payroll run has been finalized
type PayrollRunCompletedEvent struct {
	shared.BaseDomainEvent
	PayrollRunID    uuid.UUID `json:"payroll_run_id"`
	RunNumber       string    `json:"run_number"`
	PeriodLabel     string    `json:"period_label,omitempty"`
	PayDate         time.Time `json:"pay_date"`
	Currency        string    `json:"currency,omitempty"`
	EmployeeCount   int       `json:"employee_count"`
	TotalGross      string    `json:"total_gross"`
	TotalDeductions string    `json:"total_deductions"`
	TotalNet        string    `json:"total_net"`
}

// NewPayrollRunCompletedEvent creates a new PayrollRunCompletedEvent
func NewPayrollRunCompletedEvent(tenantID, runID uuid.UUID, runNumber string, payDate time.Time, gross, deductions, net string) *PayrollRunCompletedEvent {
	return &PayrollRunCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayrollRunCompleted, AggregateTypePayrollRun, runID, tenantID),
		PayrollRunID:    runID,
		RunNumber:       runNumber,
		PayDate:         payDate,
		TotalGross:      gross,
		TotalDeductions: deductions,
		TotalNet:        net,
	}
}

// EventType returns the event type name
func (e *PayrollRunCompletedEvent) EventType() string {
	return EventTypePayrollRunCompleted
}

// ExpenseClaimReimbursedEvent is raised when an employee expense claim is paid out
type ExpenseClaimReimbursedEvent struct {
	shared.BaseDomainEvent
	ClaimID      uuid.UUID `json:"claim_id"`
	ClaimNumber  string    `json:"claim_number"`
	EmployeeID   uuid.UUID `json:"employee_id"`
	EmployeeName string    `json:"employee_name,omitempty"`
	Description  string    `json:"description,omitempty"`
	Currency     string    `json:"currency,omitempty"`
	TotalAmount  string    `json:"total_amount"`
	ReimbursedAt time.Time `json:"reimbursed_at"`
}

// NewExpenseClaimReimbursedEvent creates a new ExpenseClaimReimbursedEvent
func NewExpenseClaimReimbursedEvent(tenantID, claimID uuid.UUID, claimNumber string, employeeID uuid.UUID, totalAmount string) *ExpenseClaimReimbursedEvent {
	return &ExpenseClaimReimbursedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseClaimReimbursed, AggregateTypeExpenseClaim, claimID, tenantID),
		ClaimID:         claimID,
		ClaimNumber:     claimNumber,
		EmployeeID:      employeeID,
		TotalAmount:     totalAmount,
		ReimbursedAt:    time.Now(),
	}
}

// EventType returns the event type name
func (e *ExpenseClaimReimbursedEvent) EventType() string {
	return EventTypeExpenseClaimReimbursed
}
