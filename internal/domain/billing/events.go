// Package billing holds the event contracts raised by the subscription billing module
package billing

import (
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeSubscription = "Subscription"

// Event type constant
const EventTypeSubscriptionRenewed = "SubscriptionRenewed"

// SubscriptionRenewedEvent is raised when a customer subscription renews for a new term
type SubscriptionRenewedEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID `json:"subscription_id"`
	CustomerID     uuid.UUID `json:"customer_id"`
	PlanName       string    `json:"plan_name,omitempty"`
	Currency       string    `json:"currency,omitempty"`
	Amount         string    `json:"amount"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	RenewedAt      time.Time `json:"renewed_at"`
}

// NewSubscriptionRenewedEvent creates a new SubscriptionRenewedEvent
func NewSubscriptionRenewedEvent(tenantID, subscriptionID, customerID uuid.UUID, planName, amount string) *SubscriptionRenewedEvent {
	return &SubscriptionRenewedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionRenewed, AggregateTypeSubscription, subscriptionID, tenantID),
		SubscriptionID:  subscriptionID,
		CustomerID:      customerID,
		PlanName:        planName,
		Amount:          amount,
		RenewedAt:       time.Now(),
	}
}

// EventType returns the event type name
func (e *SubscriptionRenewedEvent) EventType() string {
	return EventTypeSubscriptionRenewed
}
