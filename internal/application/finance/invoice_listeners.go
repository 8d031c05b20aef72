package finance

import (
	"context"
	"fmt"

	"github.com/erp/accounting/internal/domain/billing"
	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/hr"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SalesOrderConfirmedListener raises a customer invoice for a confirmed sales order
type SalesOrderConfirmedListener struct {
	listenerBase
	invoices InvoiceCreator
}

// NewSalesOrderConfirmedListener creates a new SalesOrderConfirmedListener
func NewSalesOrderConfirmedListener(invoices InvoiceCreator, cfg IntegrationConfig, recorder LedgerRecorder, logger *zap.Logger) *SalesOrderConfirmedListener {
	return &SalesOrderConfirmedListener{
		listenerBase: newListenerBase("sales_order_confirmed", cfg, recorder, logger),
		invoices:     invoices,
	}
}

// EventTypes returns the event types this listener is interested in
func (l *SalesOrderConfirmedListener) EventTypes() []string {
	return []string{trade.EventTypeSalesOrderConfirmed}
}

// Handle creates one invoice line per valid order line
func (l *SalesOrderConfirmedListener) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*trade.SalesOrderConfirmedEvent)
	if !ok {
		return l.unexpected(ctx, event, trade.EventTypeSalesOrderConfirmed)
	}
	return l.run(ctx, event, func(ctx context.Context) error {
		if _, ok := positiveAmount(e.TotalAmount); !ok {
			return l.skip(ctx, event, skipNonPositive, zap.String("total_amount", e.TotalAmount))
		}
		if e.CustomerID == uuid.Nil {
			return l.skip(ctx, event, skipMissingPartner)
		}
		lines := validInvoiceLines(e.Lines)
		if len(lines) == 0 {
			return l.skip(ctx, event, skipNoValidLines, zap.Int("line_count", len(e.Lines)))
		}

		issue := orNow(e.ConfirmedAt)
		inv, err := l.invoices.CreateInvoice(ctx, e.TenantID(), CreateInvoiceRequest{
			Type:        string(finance.InvoiceTypeInvoice),
			PartnerID:   e.CustomerID,
			PartnerType: string(finance.PartnerTypeCustomer),
			IssueDate:   issue,
			DueDate:     l.dueDate(issue),
			Currency:    l.currency(e.Currency),
			Notes:       sourceNote("sales order", e.OrderNumber, e.OrderID),
			Lines:       lines,
		})
		if err != nil {
			return err
		}
		l.logger.Info("customer invoice created from sales order",
			zap.String("order_id", e.OrderID.String()),
			zap.String("invoice_id", inv.ID.String()),
			zap.String("invoice_number", inv.Number),
			zap.Int("lines", len(lines)),
			zap.Int("dropped_lines", len(e.Lines)-len(lines)),
		)
		return nil
	})
}

// GoodsReceivedListener raises a vendor bill for received goods
type GoodsReceivedListener struct {
	listenerBase
	invoices InvoiceCreator
}

// NewGoodsReceivedListener creates a new GoodsReceivedListener
func NewGoodsReceivedListener(invoices InvoiceCreator, cfg IntegrationConfig, recorder LedgerRecorder, logger *zap.Logger) *GoodsReceivedListener {
	return &GoodsReceivedListener{
		listenerBase: newListenerBase("goods_received", cfg, recorder, logger),
		invoices:     invoices,
	}
}

// EventTypes returns the event types this listener is interested in
func (l *GoodsReceivedListener) EventTypes() []string {
	return []string{trade.EventTypeGoodsReceived}
}

// Handle creates one vendor bill line per valid received line
func (l *GoodsReceivedListener) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*trade.GoodsReceivedEvent)
	if !ok {
		return l.unexpected(ctx, event, trade.EventTypeGoodsReceived)
	}
	return l.run(ctx, event, func(ctx context.Context) error {
		if _, ok := positiveAmount(e.TotalAmount); !ok {
			return l.skip(ctx, event, skipNonPositive, zap.String("total_amount", e.TotalAmount))
		}
		if e.SupplierID == uuid.Nil {
			return l.skip(ctx, event, skipMissingPartner)
		}
		lines := validInvoiceLines(e.Lines)
		if len(lines) == 0 {
			return l.skip(ctx, event, skipNoValidLines, zap.Int("line_count", len(e.Lines)))
		}

		issue := orNow(e.ReceivedAt)
		bill, err := l.invoices.CreateInvoice(ctx, e.TenantID(), CreateInvoiceRequest{
			Type:        string(finance.InvoiceTypeVendorBill),
			PartnerID:   e.SupplierID,
			PartnerType: string(finance.PartnerTypeVendor),
			IssueDate:   issue,
			DueDate:     l.dueDate(issue),
			Currency:    l.currency(e.Currency),
			Notes:       sourceNote("goods receipt", e.ReceiptNumber, e.ReceiptID),
			Lines:       lines,
		})
		if err != nil {
			return err
		}
		l.logger.Info("vendor bill created from goods receipt",
			zap.String("receipt_id", e.ReceiptID.String()),
			zap.String("bill_id", bill.ID.String()),
			zap.String("bill_number", bill.Number),
			zap.Int("lines", len(lines)),
			zap.Int("dropped_lines", len(e.Lines)-len(lines)),
		)
		return nil
	})
}

// ExpenseClaimReimbursedListener raises a vendor bill payable to the employee
type ExpenseClaimReimbursedListener struct {
	listenerBase
	invoices InvoiceCreator
}

// NewExpenseClaimReimbursedListener creates a new ExpenseClaimReimbursedListener
func NewExpenseClaimReimbursedListener(invoices InvoiceCreator, cfg IntegrationConfig, recorder LedgerRecorder, logger *zap.Logger) *ExpenseClaimReimbursedListener {
	return &ExpenseClaimReimbursedListener{
		listenerBase: newListenerBase("expense_claim_reimbursed", cfg, recorder, logger),
		invoices:     invoices,
	}
}

// EventTypes returns the event types this listener is interested in
func (l *ExpenseClaimReimbursedListener) EventTypes() []string {
	return []string{hr.EventTypeExpenseClaimReimbursed}
}

// Handle creates a single-line bill for the claim total
func (l *ExpenseClaimReimbursedListener) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*hr.ExpenseClaimReimbursedEvent)
	if !ok {
		return l.unexpected(ctx, event, hr.EventTypeExpenseClaimReimbursed)
	}
	return l.run(ctx, event, func(ctx context.Context) error {
		if _, ok := positiveAmount(e.TotalAmount); !ok {
			return l.skip(ctx, event, skipNonPositive, zap.String("total_amount", e.TotalAmount))
		}
		if e.EmployeeID == uuid.Nil {
			return l.skip(ctx, event, skipMissingPartner)
		}

		description := "Expense claim " + e.ClaimNumber
		if e.Description != "" {
			description = fmt.Sprintf("%s: %s", description, e.Description)
		}
		issue := orNow(e.ReimbursedAt)
		bill, err := l.invoices.CreateInvoice(ctx, e.TenantID(), CreateInvoiceRequest{
			Type:        string(finance.InvoiceTypeVendorBill),
			PartnerID:   e.EmployeeID,
			PartnerType: string(finance.PartnerTypeEmployee),
			IssueDate:   issue,
			DueDate:     issue,
			Currency:    l.currency(e.Currency),
			Notes:       sourceNote("expense claim", e.ClaimNumber, e.ClaimID),
			Lines: []InvoiceLineRequest{{
				Description: description,
				Quantity:    "1",
				UnitPrice:   e.TotalAmount,
			}},
		})
		if err != nil {
			return err
		}
		l.logger.Info("vendor bill created from expense claim",
			zap.String("claim_id", e.ClaimID.String()),
			zap.String("bill_id", bill.ID.String()),
			zap.String("bill_number", bill.Number),
		)
		return nil
	})
}

// SubscriptionRenewedListener raises a customer invoice for a renewal
type SubscriptionRenewedListener struct {
	listenerBase
	invoices InvoiceCreator
}

// NewSubscriptionRenewedListener creates a new SubscriptionRenewedListener
func NewSubscriptionRenewedListener(invoices InvoiceCreator, cfg IntegrationConfig, recorder LedgerRecorder, logger *zap.Logger) *SubscriptionRenewedListener {
	return &SubscriptionRenewedListener{
		listenerBase: newListenerBase("subscription_renewed", cfg, recorder, logger),
		invoices:     invoices,
	}
}

// EventTypes returns the event types this listener is interested in
func (l *SubscriptionRenewedListener) EventTypes() []string {
	return []string{billing.EventTypeSubscriptionRenewed}
}

// Handle creates a single-line invoice for the renewal amount
func (l *SubscriptionRenewedListener) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*billing.SubscriptionRenewedEvent)
	if !ok {
		return l.unexpected(ctx, event, billing.EventTypeSubscriptionRenewed)
	}
	return l.run(ctx, event, func(ctx context.Context) error {
		if _, ok := positiveAmount(e.Amount); !ok {
			return l.skip(ctx, event, skipNonPositive, zap.String("amount", e.Amount))
		}
		if e.CustomerID == uuid.Nil {
			return l.skip(ctx, event, skipMissingPartner)
		}

		description := "Subscription renewal"
		if e.PlanName != "" {
			description = fmt.Sprintf("%s: %s", description, e.PlanName)
		}
		if !e.PeriodStart.IsZero() && !e.PeriodEnd.IsZero() {
			description = fmt.Sprintf("%s (%s to %s)", description,
				e.PeriodStart.Format("2006-01-02"), e.PeriodEnd.Format("2006-01-02"))
		}
		issue := orNow(e.RenewedAt)
		inv, err := l.invoices.CreateInvoice(ctx, e.TenantID(), CreateInvoiceRequest{
			Type:        string(finance.InvoiceTypeInvoice),
			PartnerID:   e.CustomerID,
			PartnerType: string(finance.PartnerTypeCustomer),
			IssueDate:   issue,
			DueDate:     l.dueDate(issue),
			Currency:    l.currency(e.Currency),
			Notes:       sourceNote("subscription", "", e.SubscriptionID),
			Lines: []InvoiceLineRequest{{
				Description: description,
				Quantity:    "1",
				UnitPrice:   e.Amount,
			}},
		})
		if err != nil {
			return err
		}
		l.logger.Info("customer invoice created from subscription renewal",
			zap.String("subscription_id", e.SubscriptionID.String()),
			zap.String("invoice_id", inv.ID.String()),
			zap.String("invoice_number", inv.Number),
		)
		return nil
	})
}

var (
	_ shared.EventHandler = (*SalesOrderConfirmedListener)(nil)
	_ shared.EventHandler = (*GoodsReceivedListener)(nil)
	_ shared.EventHandler = (*ExpenseClaimReimbursedListener)(nil)
	_ shared.EventHandler = (*SubscriptionRenewedListener)(nil)
)
