package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvoiceService manages invoices, vendor bills, credit notes and payments
type InvoiceService struct {
	serviceBase
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(deps ServiceDeps) *InvoiceService {
	return &InvoiceService{serviceBase: newServiceBase("invoice", deps)}
}

// CreateInvoice creates a draft invoice or vendor bill numbered from the
// tenant's sequence for its type
func (s *InvoiceService) CreateInvoice(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span, principal, err := s.begin(ctx, "create", tenantID, CapInvoiceCreate)
	defer span.End()
	if err != nil {
		return nil, err
	}
	if err := ValidateRequest(req); err != nil {
		return nil, s.fail(span, err)
	}
	lines, err := toInvoiceLines(req.Lines)
	if err != nil {
		return nil, s.fail(span, err)
	}
	currency, err := parseCurrency(req.Currency)
	if err != nil {
		return nil, s.fail(span, err)
	}
	invoiceType := finance.InvoiceType(req.Type)

	var inv *finance.Invoice
	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		number, err := repos.Invoices().NextNumber(ctx, tenantID, invoiceType)
		if err != nil {
			return err
		}
		inv, err = finance.NewInvoice(tenantID, number, invoiceType, req.PartnerID,
			finance.PartnerType(req.PartnerType), req.IssueDate, req.DueDate, currency, req.Notes, lines)
		if err != nil {
			return err
		}
		inv.SetCreatedBy(actorID(principal))
		if err := repos.Invoices().Save(ctx, inv); err != nil {
			return err
		}
		events, err = collectEvents(ctx, repos, inv)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	s.commit(ctx, events)

	s.logger.Info("invoice created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("number", inv.Number),
		zap.String("type", inv.Type.String()),
		zap.String("total", inv.Total.String()),
	)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// IssueCreditNote issues a credit note against a sent or overdue invoice.
// The source invoice is locked so its status and total are read consistently.
func (s *InvoiceService) IssueCreditNote(ctx context.Context, tenantID uuid.UUID, req IssueCreditNoteRequest) (*InvoiceResponse, error) {
	ctx, span, principal, err := s.begin(ctx, "issue_credit_note", tenantID, CapCreditNoteCreate)
	defer span.End()
	if err != nil {
		return nil, err
	}
	if err := ValidateRequest(req); err != nil {
		return nil, s.fail(span, err)
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return nil, s.fail(span, err)
	}

	var note *finance.Invoice
	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		source, err := repos.Invoices().FindByIDForUpdate(ctx, tenantID, req.SourceInvoiceID)
		if err != nil {
			return err
		}
		number, err := repos.Invoices().NextNumber(ctx, tenantID, finance.InvoiceTypeCreditNote)
		if err != nil {
			return err
		}
		note, err = finance.NewCreditNote(source, number, amount, req.Reason, req.IssueDate)
		if err != nil {
			return err
		}
		note.SetCreatedBy(actorID(principal))
		if err := repos.Invoices().Save(ctx, note); err != nil {
			return err
		}
		events, err = collectEvents(ctx, repos, note)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	s.commit(ctx, events)

	s.logger.Info("credit note issued",
		zap.String("tenant_id", tenantID.String()),
		zap.String("credit_note_id", note.ID.String()),
		zap.String("source_invoice_id", req.SourceInvoiceID.String()),
		zap.String("amount", note.Total.String()),
	)
	resp := ToInvoiceResponse(note)
	return &resp, nil
}

// RecordPayment applies a payment to an invoice. The invoice row is locked
// for the whole unit of work so concurrent payments cannot overshoot the
// amount due.
func (s *InvoiceService) RecordPayment(ctx context.Context, tenantID uuid.UUID, req RecordPaymentRequest) (*PaymentResultResponse, error) {
	ctx, span, _, err := s.begin(ctx, "record_payment", tenantID, CapPaymentCreate)
	defer span.End()
	if err != nil {
		return nil, err
	}
	telemetry.SetAttribute(span, "invoice_id", req.InvoiceID.String())
	if err := ValidateRequest(req); err != nil {
		return nil, s.fail(span, err)
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return nil, s.fail(span, err)
	}
	method := finance.PaymentMethod(req.Method)
	if method == "" {
		method = finance.PaymentMethodBankTransfer
	}
	paidAt := req.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	var inv *finance.Invoice
	var payment *finance.Payment
	var events []shared.DomainEvent
	telemetry.WithProfilingLabels(ctx, telemetry.LedgerOperationLabels(telemetry.OperationRecordPayment), func(c context.Context) {
		err = s.txScope.Execute(c, func(repos TransactionalRepositories) error {
			var err error
			inv, err = repos.Invoices().FindByIDForUpdate(c, tenantID, req.InvoiceID)
			if err != nil {
				return err
			}
			payment, err = inv.ApplyPayment(amount, method, paidAt, req.Reference)
			if err != nil {
				return err
			}
			if err := repos.Payments().Create(c, payment); err != nil {
				return err
			}
			if err := repos.Invoices().Save(c, inv); err != nil {
				return err
			}
			events, err = collectEvents(c, repos, inv)
			return err
		})
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	s.commit(ctx, events)
	s.recorder.PaymentRecorded(ctx, tenantID, string(payment.Method))

	s.logger.Info("payment recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", payment.Amount.String()),
		zap.String("amount_due", inv.AmountDue.String()),
		zap.String("status", inv.Status.String()),
	)
	return &PaymentResultResponse{
		Payment: ToPaymentResponse(payment),
		Invoice: ToInvoiceResponse(inv),
	}, nil
}

// Send moves a draft invoice to sent
func (s *InvoiceService) Send(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, "send", CapInvoiceSend, tenantID, invoiceID, func(inv *finance.Invoice) error {
		return inv.Send()
	})
}

// Cancel voids an unpaid draft or sent invoice
func (s *InvoiceService) Cancel(ctx context.Context, tenantID, invoiceID uuid.UUID, req CancelInvoiceRequest) (*InvoiceResponse, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	return s.transition(ctx, "cancel", CapInvoiceCancel, tenantID, invoiceID, func(inv *finance.Invoice) error {
		return inv.Cancel(req.Reason)
	})
}

func (s *InvoiceService) transition(
	ctx context.Context,
	method string,
	capability Capability,
	tenantID, invoiceID uuid.UUID,
	apply func(*finance.Invoice) error,
) (*InvoiceResponse, error) {
	ctx, span, _, err := s.begin(ctx, method, tenantID, capability)
	defer span.End()
	if err != nil {
		return nil, err
	}

	var inv *finance.Invoice
	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		inv, err = repos.Invoices().FindByIDForUpdate(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if err := apply(inv); err != nil {
			return err
		}
		if err := repos.Invoices().Save(ctx, inv); err != nil {
			return err
		}
		events, err = collectEvents(ctx, repos, inv)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	s.commit(ctx, events)

	s.logger.Info("invoice status changed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("status", inv.Status.String()),
	)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// MarkOverdue moves every sent invoice of the tenant whose due date is
// before asOf to overdue and returns how many changed
func (s *InvoiceService) MarkOverdue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (int, error) {
	ctx, span, _, err := s.begin(ctx, "mark_overdue", tenantID, CapInvoiceSend)
	defer span.End()
	if err != nil {
		return 0, err
	}

	var events []shared.DomainEvent
	marked := 0
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		candidates, err := repos.Invoices().FindOverdueCandidates(ctx, tenantID, asOf)
		if err != nil {
			return err
		}
		for i := range candidates {
			inv := &candidates[i]
			if !inv.IsOverdueAt(asOf) {
				continue
			}
			if err := inv.MarkOverdue(asOf); err != nil {
				return err
			}
			if err := repos.Invoices().Save(ctx, inv); err != nil {
				return err
			}
			collected, err := collectEvents(ctx, repos, inv)
			if err != nil {
				return err
			}
			events = append(events, collected...)
			marked++
		}
		return nil
	})
	if err != nil {
		return 0, s.fail(span, err)
	}
	s.commit(ctx, events)

	if marked > 0 {
		s.logger.Info("invoices marked overdue",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("count", marked),
			zap.Time("as_of", asOf),
		)
	}
	return marked, nil
}

// Get returns an invoice with its lines
func (s *InvoiceService) Get(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	ctx, span, _, err := s.begin(ctx, "get", tenantID, CapInvoiceRead)
	defer span.End()
	if err != nil {
		return nil, err
	}

	var inv *finance.Invoice
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		inv, err = repos.Invoices().FindByID(ctx, tenantID, invoiceID)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// List returns invoices matching the request
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, req ListInvoicesRequest) (*shared.Paginated[InvoiceResponse], error) {
	ctx, span, _, err := s.begin(ctx, "list", tenantID, CapInvoiceRead)
	defer span.End()
	if err != nil {
		return nil, err
	}
	if err := ValidateRequest(req); err != nil {
		return nil, s.fail(span, err)
	}

	filter := finance.InvoiceFilter{
		Filter:    toFilter(req.Page, req.PageSize, req.Search),
		PartnerID: req.PartnerID,
	}
	filter.OrderBy = "issue_date"
	if req.Type != "" {
		t := finance.InvoiceType(req.Type)
		filter.Type = &t
	}
	if req.Status != "" {
		st := finance.InvoiceStatus(req.Status)
		filter.Status = &st
	}

	var invoices []finance.Invoice
	var total int64
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		invoices, total, err = repos.Invoices().FindAll(ctx, tenantID, filter)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	page := shared.NewPaginated(mapSlice(invoices, ToInvoiceResponse), total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListPayments returns the payments recorded against an invoice
func (s *InvoiceService) ListPayments(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]PaymentResponse, error) {
	ctx, span, _, err := s.begin(ctx, "list_payments", tenantID, CapInvoiceRead)
	defer span.End()
	if err != nil {
		return nil, err
	}

	var payments []finance.Payment
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Invoices().FindByID(ctx, tenantID, invoiceID); err != nil {
			return err
		}
		var err error
		payments, err = repos.Payments().FindByInvoice(ctx, tenantID, invoiceID)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	return mapSlice(payments, ToPaymentResponse), nil
}

func toInvoiceLines(reqs []InvoiceLineRequest) ([]finance.InvoiceLine, error) {
	lines := make([]finance.InvoiceLine, 0, len(reqs))
	for i, r := range reqs {
		qty, err := parseAmount(fmt.Sprintf("lines[%d].quantity", i), r.Quantity)
		if err != nil {
			return nil, err
		}
		price, err := parseAmount(fmt.Sprintf("lines[%d].unit_price", i), r.UnitPrice)
		if err != nil {
			return nil, err
		}
		rate, err := parseOptionalAmount(fmt.Sprintf("lines[%d].tax_rate", i), r.TaxRate)
		if err != nil {
			return nil, err
		}
		lines = append(lines, finance.InvoiceLine{
			ProductID:   r.ProductID,
			Description: r.Description,
			Quantity:    qty,
			UnitPrice:   price,
			TaxRate:     rate,
		})
	}
	return lines, nil
}
