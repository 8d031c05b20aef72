package finance

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BalanceProjector keeps LedgerAccount.Balance in step with posted journal
// entries. The balance is a derived read model; the journal stays the
// source of truth. Reversals post swapped lines and therefore undo their
// original's effect without special handling.
type BalanceProjector struct {
	txScope TransactionScope
	logger  *zap.Logger
}

// NewBalanceProjector creates a new BalanceProjector
func NewBalanceProjector(txScope TransactionScope, logger *zap.Logger) *BalanceProjector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceProjector{txScope: txScope, logger: logger}
}

// EventTypes returns the event types this projector is interested in
func (p *BalanceProjector) EventTypes() []string {
	return []string{finance.EventTypeJournalEntryPosted}
}

// Handle applies every line of a posted entry to its account. Failures are
// returned so the outbox relay redelivers the event.
func (p *BalanceProjector) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*finance.JournalEntryPostedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			finance.EventTypeJournalEntryPosted, event.EventType())
	}

	movements := netMovements(e.Lines)
	ids := make([]uuid.UUID, 0, len(movements))
	for id := range movements {
		ids = append(ids, id)
	}
	// Fixed lock order across concurrent projections
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })

	err := p.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		for _, id := range ids {
			account, err := repos.Accounts().FindByIDForUpdate(ctx, e.TenantID(), id)
			if err != nil {
				return err
			}
			m := movements[id]
			account.ApplyPosting(m.debit, m.credit)
			if err := repos.Accounts().Save(ctx, account); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		p.logger.Error("failed to project journal entry onto account balances",
			zap.String("journal_entry_id", e.JournalEntryID.String()),
			zap.String("tenant_id", e.TenantID().String()),
			zap.Error(err),
		)
		return fmt.Errorf("project journal entry %s: %w", e.JournalEntryID, err)
	}

	p.logger.Debug("account balances updated",
		zap.String("journal_entry_id", e.JournalEntryID.String()),
		zap.Int("accounts", len(ids)),
	)
	return nil
}

type movement struct {
	debit  decimal.Decimal
	credit decimal.Decimal
}

// netMovements groups line amounts by account
func netMovements(lines []finance.JournalLinePayload) map[uuid.UUID]movement {
	out := make(map[uuid.UUID]movement, len(lines))
	for _, l := range lines {
		m := out[l.AccountID]
		m.debit = m.debit.Add(l.Debit)
		m.credit = m.credit.Add(l.Credit)
		out[l.AccountID] = m
	}
	return out
}

var _ shared.EventHandler = (*BalanceProjector)(nil)
