package finance

import (
	"context"
	"fmt"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BankService manages bank accounts and reconciles their transactions
// against journal entries
type BankService struct {
	serviceBase
}

// NewBankService creates a new BankService
func NewBankService(deps ServiceDeps) *BankService {
	return &BankService{serviceBase: newServiceBase("bank", deps)}
}

// CreateBankAccount registers a bank account, optionally linked to an asset
// account in the chart
func (s *BankService) CreateBankAccount(ctx context.Context, tenantID uuid.UUID, req CreateBankAccountRequest) (*BankAccountResponse, error) {
	ctx, span, principal, err := s.begin(ctx, "create_account", tenantID, CapBankCreate)
	defer span.End()
	if err != nil {
		return nil, err
	}
	if err := ValidateRequest(req); err != nil {
		return nil, s.fail(span, err)
	}
	currency, err := parseCurrency(req.Currency)
	if err != nil {
		return nil, s.fail(span, err)
	}

	account, err := finance.NewBankAccount(tenantID, req.Name, req.AccountNumber, req.BankName, currency)
	if err != nil {
		return nil, s.fail(span, err)
	}
	account.SetCreatedBy(actorID(principal))

	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		exists, err := repos.BankAccounts().ExistsByAccountNumber(ctx, tenantID, account.AccountNumber)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.ErrAlreadyExists.Code, fmt.Sprintf(
				"Bank account number %s already exists", account.AccountNumber))
		}
		if req.LedgerAccountID != nil {
			ledger, err := repos.Accounts().FindByID(ctx, tenantID, *req.LedgerAccountID)
			if err != nil {
				return err
			}
			if err := account.LinkLedgerAccount(ledger); err != nil {
				return err
			}
		}
		if err := repos.BankAccounts().Save(ctx, account); err != nil {
			return err
		}
		events, err = collectEvents(ctx, repos, account)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	s.commit(ctx, events)

	s.logger.Info("bank account created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("bank_account_id", account.ID.String()),
		zap.String("name", account.Name),
	)
	resp := ToBankAccountResponse(account)
	return &resp, nil
}

// DeactivateBankAccount stops new transactions from being recorded on an account
func (s *BankService) DeactivateBankAccount(ctx context.Context, tenantID, accountID uuid.UUID) (*BankAccountResponse, error) {
	ctx, span, _, err := s.begin(ctx, "deactivate_account", tenantID, CapBankCreate)
	defer span.End()
	if err != nil {
		return nil, err
	}

	var account *finance.BankAccount
	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		account, err = repos.BankAccounts().FindByID(ctx, tenantID, accountID)
		if err != nil {
			return err
		}
		if err := account.Deactivate(); err != nil {
			return err
		}
		if err := repos.BankAccounts().Save(ctx, account); err != nil {
			return err
		}
		events, err = collectEvents(ctx, repos, account)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	s.commit(ctx, events)
	resp := ToBankAccountResponse(account)
	return &resp, nil
}

// GetBankAccount returns a bank account by ID
func (s *BankService) GetBankAccount(ctx context.Context, tenantID, accountID uuid.UUID) (*BankAccountResponse, error) {
	ctx, span, _, err := s.begin(ctx, "get_account", tenantID, CapBankRead)
	defer span.End()
	if err != nil {
		return nil, err
	}

	var account *finance.BankAccount
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		account, err = repos.BankAccounts().FindByID(ctx, tenantID, accountID)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	resp := ToBankAccountResponse(account)
	return &resp, nil
}

// ListBankAccounts returns the tenant's bank accounts
func (s *BankService) ListBankAccounts(ctx context.Context, tenantID uuid.UUID, page, pageSize int, search string) (*shared.Paginated[BankAccountResponse], error) {
	ctx, span, _, err := s.begin(ctx, "list_accounts", tenantID, CapBankRead)
	defer span.End()
	if err != nil {
		return nil, err
	}

	filter := toFilter(page, pageSize, search)
	filter.OrderBy = "name"
	filter.OrderDir = "asc"

	var accounts []finance.BankAccount
	var total int64
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		accounts, total, err = repos.BankAccounts().FindAll(ctx, tenantID, filter)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	result := shared.NewPaginated(mapSlice(accounts, ToBankAccountResponse), total, filter.Page, filter.PageSize)
	return &result, nil
}

// RecordTransaction stores an unreconciled statement line on an active account
func (s *BankService) RecordTransaction(ctx context.Context, tenantID uuid.UUID, req RecordBankTransactionRequest) (*BankTransactionResponse, error) {
	ctx, span, principal, err := s.begin(ctx, "record_transaction", tenantID, CapBankRecord)
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

	var tx *finance.BankTransaction
	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		account, err := repos.BankAccounts().FindByID(ctx, tenantID, req.BankAccountID)
		if err != nil {
			return err
		}
		tx, err = finance.NewBankTransaction(account, finance.BankTransactionType(req.Type), amount,
			req.TransactionDate, req.Description, req.Reference)
		if err != nil {
			return err
		}
		tx.SetCreatedBy(actorID(principal))
		if err := repos.BankTransactions().Save(ctx, tx); err != nil {
			return err
		}
		events, err = collectEvents(ctx, repos, tx)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	s.commit(ctx, events)
	resp := ToBankTransactionResponse(tx)
	return &resp, nil
}

// Reconcile matches a transaction to a posted or reversed journal entry.
// The transaction row is locked so two reconciliations cannot both succeed.
func (s *BankService) Reconcile(ctx context.Context, tenantID, transactionID uuid.UUID, req ReconcileRequest) (*BankTransactionResponse, error) {
	ctx, span, principal, err := s.begin(ctx, "reconcile", tenantID, CapBankReconcile)
	defer span.End()
	if err != nil {
		return nil, err
	}
	if err := ValidateRequest(req); err != nil {
		return nil, s.fail(span, err)
	}

	var tx *finance.BankTransaction
	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		tx, err = repos.BankTransactions().FindByIDForUpdate(ctx, tenantID, transactionID)
		if err != nil {
			return err
		}
		entry, err := repos.Journals().FindByID(ctx, tenantID, req.JournalEntryID)
		if err != nil {
			return err
		}
		if err := tx.Reconcile(entry, actorID(principal)); err != nil {
			return err
		}
		if err := repos.BankTransactions().Save(ctx, tx); err != nil {
			return err
		}
		events, err = collectEvents(ctx, repos, tx)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	s.commit(ctx, events)

	s.logger.Info("bank transaction reconciled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("bank_transaction_id", transactionID.String()),
		zap.String("journal_entry_id", req.JournalEntryID.String()),
	)
	resp := ToBankTransactionResponse(tx)
	return &resp, nil
}

// GetTransaction returns a bank transaction by ID
func (s *BankService) GetTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) (*BankTransactionResponse, error) {
	ctx, span, _, err := s.begin(ctx, "get_transaction", tenantID, CapBankRead)
	defer span.End()
	if err != nil {
		return nil, err
	}

	var tx *finance.BankTransaction
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		tx, err = repos.BankTransactions().FindByID(ctx, tenantID, transactionID)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	resp := ToBankTransactionResponse(tx)
	return &resp, nil
}

// ListTransactions returns bank transactions matching the request
func (s *BankService) ListTransactions(ctx context.Context, tenantID uuid.UUID, req ListBankTransactionsRequest) (*shared.Paginated[BankTransactionResponse], error) {
	ctx, span, _, err := s.begin(ctx, "list_transactions", tenantID, CapBankRead)
	defer span.End()
	if err != nil {
		return nil, err
	}
	if err := ValidateRequest(req); err != nil {
		return nil, s.fail(span, err)
	}

	filter := finance.BankTransactionFilter{
		Filter:        toFilter(req.Page, req.PageSize, ""),
		BankAccountID: req.BankAccountID,
		FromDate:      req.FromDate,
		ToDate:        req.ToDate,
	}
	filter.OrderBy = "transaction_date"
	if req.Status != "" {
		st := finance.BankTransactionStatus(req.Status)
		filter.Status = &st
	}

	var txs []finance.BankTransaction
	var total int64
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		txs, total, err = repos.BankTransactions().FindAll(ctx, tenantID, filter)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	page := shared.NewPaginated(mapSlice(txs, ToBankTransactionResponse), total, filter.Page, filter.PageSize)
	return &page, nil
}
