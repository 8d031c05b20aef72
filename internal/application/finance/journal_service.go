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

// JournalService records and posts double-entry journal entries
type JournalService struct {
	serviceBase
}

// NewJournalService creates a new JournalService
func NewJournalService(deps ServiceDeps) *JournalService {
	return &JournalService{serviceBase: newServiceBase("journal", deps)}
}

// Create records a draft entry with its lines as given. Lines must reference
// active accounts of the tenant; the entry need not balance until posted.
func (s *JournalService) Create(ctx context.Context, tenantID uuid.UUID, req CreateJournalEntryRequest) (*JournalEntryResponse, error) {
	ctx, span, principal, err := s.begin(ctx, "create", tenantID, CapJournalCreate)
	defer span.End()
	if err != nil {
		return nil, err
	}
	if err := ValidateRequest(req); err != nil {
		return nil, s.fail(span, err)
	}
	lines, err := toJournalLines(req.Lines)
	if err != nil {
		return nil, s.fail(span, err)
	}

	entry, err := finance.NewJournalEntry(tenantID, req.ReferenceNumber, req.EntryDate, req.Description, lines)
	if err != nil {
		return nil, s.fail(span, err)
	}
	entry.SetSource(req.Source)
	entry.SetCreatedBy(actorID(principal))

	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		exists, err := repos.Journals().ExistsByReference(ctx, tenantID, entry.ReferenceNumber)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.ErrAlreadyExists.Code, fmt.Sprintf(
				"Journal entry reference %s already exists", entry.ReferenceNumber))
		}
		if err := ensureAccountsUsable(ctx, repos, tenantID, entry.AccountIDs()); err != nil {
			return err
		}
		if err := repos.Journals().Save(ctx, entry); err != nil {
			return err
		}
		events, err = collectEvents(ctx, repos, entry)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	s.commit(ctx, events)

	s.logger.Info("journal entry created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("journal_entry_id", entry.ID.String()),
		zap.String("reference", entry.ReferenceNumber),
		zap.String("source", entry.Source),
		zap.Bool("balanced", entry.IsBalanced()),
	)
	resp := ToJournalEntryResponse(entry)
	return &resp, nil
}

// Post makes a draft entry authoritative. The entry and the period covering
// its date are locked, so a concurrent close of that period either completes
// first and the post fails, or waits for the post to commit.
func (s *JournalService) Post(ctx context.Context, tenantID, entryID uuid.UUID) (*JournalEntryResponse, error) {
	ctx, span, _, err := s.begin(ctx, "post", tenantID, CapJournalPost)
	defer span.End()
	if err != nil {
		return nil, err
	}
	telemetry.SetAttribute(span, "journal_entry_id", entryID.String())

	var entry *finance.JournalEntry
	var events []shared.DomainEvent
	telemetry.WithProfilingLabels(ctx, telemetry.LedgerOperationLabels(telemetry.OperationPostJournal), func(c context.Context) {
		err = s.txScope.Execute(c, func(repos TransactionalRepositories) error {
			var err error
			entry, err = repos.Journals().FindByIDForUpdate(c, tenantID, entryID)
			if err != nil {
				return err
			}
			period, err := s.coveringPeriod(c, repos, tenantID, entry)
			if err != nil {
				return err
			}
			if err := entry.Post(period); err != nil {
				return err
			}
			if err := repos.Journals().Save(c, entry); err != nil {
				return err
			}
			events, err = collectEvents(c, repos, entry)
			return err
		})
	})
	if err != nil {
		s.logger.Info("journal entry post rejected",
			zap.String("tenant_id", tenantID.String()),
			zap.String("journal_entry_id", entryID.String()),
			zap.Error(err),
		)
		return nil, s.fail(span, err)
	}
	s.commit(ctx, events)
	s.recorder.JournalPosted(ctx, tenantID, entry.Source)

	s.logger.Info("journal entry posted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("journal_entry_id", entry.ID.String()),
		zap.String("period_id", entry.PeriodID.String()),
		zap.String("amount", entry.TotalDebit().String()),
	)
	resp := ToJournalEntryResponse(entry)
	return &resp, nil
}

// coveringPeriod locks and returns the period containing the entry date, or
// nil when none exists. Non-draft entries skip the lookup.
func (s *JournalService) coveringPeriod(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, entry *finance.JournalEntry) (*finance.AccountingPeriod, error) {
	if !entry.IsDraft() {
		return nil, nil
	}
	period, err := repos.Periods().FindCoveringForUpdate(ctx, tenantID, entry.EntryDate)
	if shared.IsNotFound(err) {
		return nil, nil
	}
	return period, err
}

// UpdateDraft replaces the date, description and lines of a draft entry
func (s *JournalService) UpdateDraft(ctx context.Context, tenantID, entryID uuid.UUID, req UpdateJournalEntryRequest) (*JournalEntryResponse, error) {
	ctx, span, _, err := s.begin(ctx, "update_draft", tenantID, CapJournalCreate)
	defer span.End()
	if err != nil {
		return nil, err
	}
	if err := ValidateRequest(req); err != nil {
		return nil, s.fail(span, err)
	}
	lines, err := toJournalLines(req.Lines)
	if err != nil {
		return nil, s.fail(span, err)
	}

	var entry *finance.JournalEntry
	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entry, err = repos.Journals().FindByIDForUpdate(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		if err := entry.UpdateDraft(req.EntryDate, req.Description, lines); err != nil {
			return err
		}
		if err := ensureAccountsUsable(ctx, repos, tenantID, entry.AccountIDs()); err != nil {
			return err
		}
		if err := repos.Journals().Save(ctx, entry); err != nil {
			return err
		}
		events, err = collectEvents(ctx, repos, entry)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	s.commit(ctx, events)
	resp := ToJournalEntryResponse(entry)
	return &resp, nil
}

// DeleteDraft removes a draft entry together with its lines
func (s *JournalService) DeleteDraft(ctx context.Context, tenantID, entryID uuid.UUID) error {
	ctx, span, _, err := s.begin(ctx, "delete_draft", tenantID, CapJournalCreate)
	defer span.End()
	if err != nil {
		return err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		entry, err := repos.Journals().FindByIDForUpdate(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		if err := entry.EnsureDeletable(); err != nil {
			return err
		}
		return repos.Journals().Delete(ctx, tenantID, entry.ID)
	})
	if err != nil {
		return s.fail(span, err)
	}
	return nil
}

// Reverse offsets a posted entry with a new posted entry whose lines have
// debit and credit swapped. Both entries are linked and the original
// becomes reversed.
func (s *JournalService) Reverse(ctx context.Context, tenantID, entryID uuid.UUID, req ReverseJournalEntryRequest) (*JournalEntryResponse, error) {
	ctx, span, principal, err := s.begin(ctx, "reverse", tenantID, CapJournalReverse)
	defer span.End()
	if err != nil {
		return nil, err
	}
	if err := ValidateRequest(req); err != nil {
		return nil, s.fail(span, err)
	}
	reversalDate := req.ReversalDate
	if reversalDate.IsZero() {
		reversalDate = time.Now()
	}

	var reversal *finance.JournalEntry
	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		original, err := repos.Journals().FindByIDForUpdate(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		reference := req.ReferenceNumber
		if reference == "" {
			reference = original.ReferenceNumber + "-REV"
		}
		reversal, err = original.BuildReversal(reference, reversalDate, req.Description)
		if err != nil {
			return err
		}
		reversal.SetCreatedBy(actorID(principal))

		period, err := s.coveringPeriod(ctx, repos, tenantID, reversal)
		if err != nil {
			return err
		}
		if err := reversal.Post(period); err != nil {
			return err
		}
		if err := original.MarkReversed(reversal); err != nil {
			return err
		}
		if err := repos.Journals().Save(ctx, reversal); err != nil {
			return err
		}
		if err := repos.Journals().Save(ctx, original); err != nil {
			return err
		}
		events, err = collectEvents(ctx, repos, reversal, original)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	s.commit(ctx, events)
	s.recorder.JournalPosted(ctx, tenantID, reversal.Source)

	s.logger.Info("journal entry reversed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("journal_entry_id", entryID.String()),
		zap.String("reversal_entry_id", reversal.ID.String()),
	)
	resp := ToJournalEntryResponse(reversal)
	return &resp, nil
}

// Get returns an entry with its lines
func (s *JournalService) Get(ctx context.Context, tenantID, entryID uuid.UUID) (*JournalEntryResponse, error) {
	ctx, span, _, err := s.begin(ctx, "get", tenantID, CapJournalRead)
	defer span.End()
	if err != nil {
		return nil, err
	}

	var entry *finance.JournalEntry
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entry, err = repos.Journals().FindByID(ctx, tenantID, entryID)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	resp := ToJournalEntryResponse(entry)
	return &resp, nil
}

// List returns entries matching the request
func (s *JournalService) List(ctx context.Context, tenantID uuid.UUID, req ListJournalEntriesRequest) (*shared.Paginated[JournalEntryResponse], error) {
	ctx, span, _, err := s.begin(ctx, "list", tenantID, CapJournalRead)
	defer span.End()
	if err != nil {
		return nil, err
	}
	if err := ValidateRequest(req); err != nil {
		return nil, s.fail(span, err)
	}

	filter := finance.JournalEntryFilter{
		Filter:    toFilter(req.Page, req.PageSize, req.Search),
		AccountID: req.AccountID,
		FromDate:  req.FromDate,
		ToDate:    req.ToDate,
	}
	filter.OrderBy = "entry_date"
	if req.Status != "" {
		status := finance.JournalEntryStatus(req.Status)
		filter.Status = &status
	}

	var entries []finance.JournalEntry
	var total int64
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entries, total, err = repos.Journals().FindAll(ctx, tenantID, filter)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	page := shared.NewPaginated(mapSlice(entries, ToJournalEntryResponse), total, filter.Page, filter.PageSize)
	return &page, nil
}

func toJournalLines(reqs []JournalLineRequest) ([]finance.JournalEntryLine, error) {
	lines := make([]finance.JournalEntryLine, 0, len(reqs))
	for i, r := range reqs {
		debit, err := parseOptionalAmount(fmt.Sprintf("lines[%d].debit", i), r.Debit)
		if err != nil {
			return nil, err
		}
		credit, err := parseOptionalAmount(fmt.Sprintf("lines[%d].credit", i), r.Credit)
		if err != nil {
			return nil, err
		}
		currency, err := parseCurrency(r.Currency)
		if err != nil {
			return nil, err
		}
		lines = append(lines, finance.JournalEntryLine{
			AccountID:   r.AccountID,
			Debit:       debit,
			Credit:      credit,
			Description: r.Description,
			Currency:    currency,
		})
	}
	return lines, nil
}

// ensureAccountsUsable checks that every account exists in the tenant and is active
func ensureAccountsUsable(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, ids []uuid.UUID) error {
	accounts, err := repos.Accounts().FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*finance.LedgerAccount, len(accounts))
	for i := range accounts {
		byID[accounts[i].ID] = &accounts[i]
	}
	for _, id := range ids {
		account, ok := byID[id]
		if !ok {
			return shared.NotFound(fmt.Sprintf("Ledger account %s", id))
		}
		if !account.IsActive {
			return shared.NewDomainError("ACCOUNT_INACTIVE", fmt.Sprintf("Ledger account %s is inactive", account.Code))
		}
	}
	return nil
}
