package finance

import (
	"context"
	"fmt"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccountService manages the chart of accounts
type AccountService struct {
	serviceBase
}

// NewAccountService creates a new AccountService
func NewAccountService(deps ServiceDeps) *AccountService {
	return &AccountService{serviceBase: newServiceBase("account", deps)}
}

// Create adds an account. Codes are unique per tenant and a parent must
// belong to the tenant and share the class.
func (s *AccountService) Create(ctx context.Context, tenantID uuid.UUID, req CreateAccountRequest) (*AccountResponse, error) {
	ctx, span, principal, err := s.begin(ctx, "create", tenantID, CapAccountCreate)
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

	account, err := finance.NewLedgerAccount(tenantID, req.Code, req.Name, finance.AccountClass(req.Class), req.Subtype, currency)
	if err != nil {
		return nil, s.fail(span, err)
	}
	account.Description = req.Description
	account.SetCreatedBy(actorID(principal))

	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		exists, err := repos.Accounts().ExistsByCode(ctx, tenantID, account.Code)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError("ACCOUNT_CODE_EXISTS", fmt.Sprintf("Account code %s already exists", account.Code))
		}
		if req.ParentID != nil {
			parent, err := repos.Accounts().FindByID(ctx, tenantID, *req.ParentID)
			if err != nil {
				return err
			}
			if err := account.AttachTo(parent); err != nil {
				return err
			}
		}
		if err := repos.Accounts().Save(ctx, account); err != nil {
			return err
		}
		events, err = collectEvents(ctx, repos, account)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	s.commit(ctx, events)

	s.logger.Info("ledger account created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("account_id", account.ID.String()),
		zap.String("code", account.Code),
	)
	resp := ToAccountResponse(account)
	return &resp, nil
}

// Update changes the descriptive fields and the parent of an account
func (s *AccountService) Update(ctx context.Context, tenantID, accountID uuid.UUID, req UpdateAccountRequest) (*AccountResponse, error) {
	ctx, span, _, err := s.begin(ctx, "update", tenantID, CapAccountUpdate)
	defer span.End()
	if err != nil {
		return nil, err
	}
	if err := ValidateRequest(req); err != nil {
		return nil, s.fail(span, err)
	}

	var account *finance.LedgerAccount
	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		account, err = repos.Accounts().FindByIDForUpdate(ctx, tenantID, accountID)
		if err != nil {
			return err
		}
		var parent *finance.LedgerAccount
		if req.ParentID != nil {
			if parent, err = repos.Accounts().FindByID(ctx, tenantID, *req.ParentID); err != nil {
				return err
			}
		}
		if err := account.AttachTo(parent); err != nil {
			return err
		}
		if err := account.Update(req.Name, req.Subtype, req.Description); err != nil {
			return err
		}
		if err := repos.Accounts().Save(ctx, account); err != nil {
			return err
		}
		events, err = collectEvents(ctx, repos, account)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	s.commit(ctx, events)
	resp := ToAccountResponse(account)
	return &resp, nil
}

// Deactivate hides an account from new journal lines
func (s *AccountService) Deactivate(ctx context.Context, tenantID, accountID uuid.UUID) (*AccountResponse, error) {
	return s.setActive(ctx, "deactivate", tenantID, accountID, false)
}

// Activate re-enables an account
func (s *AccountService) Activate(ctx context.Context, tenantID, accountID uuid.UUID) (*AccountResponse, error) {
	return s.setActive(ctx, "activate", tenantID, accountID, true)
}

func (s *AccountService) setActive(ctx context.Context, method string, tenantID, accountID uuid.UUID, active bool) (*AccountResponse, error) {
	ctx, span, _, err := s.begin(ctx, method, tenantID, CapAccountUpdate)
	defer span.End()
	if err != nil {
		return nil, err
	}

	var account *finance.LedgerAccount
	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		account, err = repos.Accounts().FindByIDForUpdate(ctx, tenantID, accountID)
		if err != nil {
			return err
		}
		if active {
			err = account.Activate()
		} else {
			err = account.Deactivate()
		}
		if err != nil {
			return err
		}
		if err := repos.Accounts().Save(ctx, account); err != nil {
			return err
		}
		events, err = collectEvents(ctx, repos, account)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	s.commit(ctx, events)
	resp := ToAccountResponse(account)
	return &resp, nil
}

// Delete removes an account that no journal line references and that has
// no children. Referenced accounts must be deactivated instead.
func (s *AccountService) Delete(ctx context.Context, tenantID, accountID uuid.UUID) error {
	ctx, span, _, err := s.begin(ctx, "delete", tenantID, CapAccountDelete)
	defer span.End()
	if err != nil {
		return err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		account, err := repos.Accounts().FindByIDForUpdate(ctx, tenantID, accountID)
		if err != nil {
			return err
		}
		referenced, err := repos.Accounts().IsReferenced(ctx, tenantID, account.ID)
		if err != nil {
			return err
		}
		if referenced {
			return shared.NewDomainError("ACCOUNT_IN_USE", fmt.Sprintf(
				"Account %s is referenced by journal lines and can only be deactivated", account.Code))
		}
		hasChildren, err := repos.Accounts().HasChildren(ctx, tenantID, account.ID)
		if err != nil {
			return err
		}
		if hasChildren {
			return shared.NewDomainError("ACCOUNT_IN_USE", fmt.Sprintf("Account %s has child accounts", account.Code))
		}
		return repos.Accounts().Delete(ctx, tenantID, account.ID)
	})
	if err != nil {
		return s.fail(span, err)
	}
	s.logger.Info("ledger account deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("account_id", accountID.String()),
	)
	return nil
}

// Get returns an account by ID
func (s *AccountService) Get(ctx context.Context, tenantID, accountID uuid.UUID) (*AccountResponse, error) {
	ctx, span, _, err := s.begin(ctx, "get", tenantID, CapAccountRead)
	defer span.End()
	if err != nil {
		return nil, err
	}

	var account *finance.LedgerAccount
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		account, err = repos.Accounts().FindByID(ctx, tenantID, accountID)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	resp := ToAccountResponse(account)
	return &resp, nil
}

// List returns accounts matching the request
func (s *AccountService) List(ctx context.Context, tenantID uuid.UUID, req ListAccountsRequest) (*shared.Paginated[AccountResponse], error) {
	ctx, span, _, err := s.begin(ctx, "list", tenantID, CapAccountRead)
	defer span.End()
	if err != nil {
		return nil, err
	}
	if err := ValidateRequest(req); err != nil {
		return nil, s.fail(span, err)
	}

	filter := finance.LedgerAccountFilter{
		Filter:   toFilter(req.Page, req.PageSize, req.Search),
		IsActive: req.IsActive,
		ParentID: req.ParentID,
	}
	filter.OrderBy = "code"
	filter.OrderDir = "asc"
	if req.Class != "" {
		class := finance.AccountClass(req.Class)
		filter.Class = &class
	}

	var accounts []finance.LedgerAccount
	var total int64
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		accounts, total, err = repos.Accounts().FindAll(ctx, tenantID, filter)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	page := shared.NewPaginated(mapSlice(accounts, ToAccountResponse), total, filter.Page, filter.PageSize)
	return &page, nil
}

// Tree returns the chart of accounts as a forest ordered by code
func (s *AccountService) Tree(ctx context.Context, tenantID uuid.UUID) ([]*AccountTreeNode, error) {
	ctx, span, _, err := s.begin(ctx, "tree", tenantID, CapAccountRead)
	defer span.End()
	if err != nil {
		return nil, err
	}

	var accounts []finance.LedgerAccount
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		accounts, err = repos.Accounts().FindAllOrdered(ctx, tenantID)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	return BuildAccountTree(accounts), nil
}

// BuildAccountTree arranges accounts under their parents, keeping input order.
// Accounts whose parent is missing become roots.
func BuildAccountTree(accounts []finance.LedgerAccount) []*AccountTreeNode {
	nodes := make(map[uuid.UUID]*AccountTreeNode, len(accounts))
	for i := range accounts {
		nodes[accounts[i].ID] = &AccountTreeNode{AccountResponse: ToAccountResponse(&accounts[i])}
	}
	roots := make([]*AccountTreeNode, 0)
	for i := range accounts {
		node := nodes[accounts[i].ID]
		if pid := accounts[i].ParentID; pid != nil {
			if parent, ok := nodes[*pid]; ok && *pid != accounts[i].ID {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// ResolveCodes maps account codes to IDs. Every code must name an active
// account of the tenant.
func (s *AccountService) ResolveCodes(ctx context.Context, tenantID uuid.UUID, codes ...string) (map[string]uuid.UUID, error) {
	ctx, span, _, err := s.begin(ctx, "resolve_codes", tenantID, CapAccountRead)
	defer span.End()
	if err != nil {
		return nil, err
	}

	ids := make(map[string]uuid.UUID, len(codes))
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		for _, code := range codes {
			account, err := repos.Accounts().FindByCode(ctx, tenantID, code)
			if shared.IsNotFound(err) {
				return shared.NotFound(fmt.Sprintf("Ledger account with code %s", code))
			}
			if err != nil {
				return err
			}
			if !account.IsActive {
				return shared.NewDomainError("ACCOUNT_INACTIVE", fmt.Sprintf("Ledger account %s is inactive", code))
			}
			ids[code] = account.ID
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	return ids, nil
}
