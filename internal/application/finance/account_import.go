package finance

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxImportRows bounds a single chart of accounts import
const MaxImportRows = 2000

// Row error codes reported by an account import
const (
	ImportErrRequired        = "REQUIRED"
	ImportErrInvalidValue    = "INVALID_VALUE"
	ImportErrDuplicateInFile = "DUPLICATE_IN_FILE"
	ImportErrDuplicateInDB   = "DUPLICATE_IN_DB"
	ImportErrParentNotFound  = "PARENT_NOT_FOUND"
	ImportErrParentCycle     = "PARENT_CYCLE"
	ImportErrInvalidParent   = "INVALID_PARENT"
)

// ImportAccountRow is one account of an import, with the source line it came from
type ImportAccountRow struct {
	Line        int    `json:"line"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Class       string `json:"class"`
	Subtype     string `json:"subtype"`
	Description string `json:"description"`
	ParentCode  string `json:"parent_code"`
	Currency    string `json:"currency"`
}

// ImportAccountsRequest carries the rows of a chart of accounts import
type ImportAccountsRequest struct {
	Rows   []ImportAccountRow `json:"rows"`
	DryRun bool               `json:"dry_run"`
}

// ImportRowError describes why one row was rejected
type ImportRowError struct {
	Line    int    `json:"line"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportAccountsResponse reports the outcome of an import. Rows are
// all-or-nothing: when Errors is non-empty nothing was created.
type ImportAccountsResponse struct {
	Total    int               `json:"total"`
	Created  int               `json:"created"`
	DryRun   bool              `json:"dry_run"`
	Errors   []ImportRowError  `json:"errors"`
	Accounts []AccountResponse `json:"accounts"`
}

// Valid reports whether every row passed validation
func (r *ImportAccountsResponse) Valid() bool {
	return len(r.Errors) == 0
}

type importCandidate struct {
	row     ImportAccountRow
	account *finance.LedgerAccount
}

// Import creates a batch of accounts in one transaction. Parents are
// referenced by code and may be existing accounts or rows of the same
// batch in any order. A dry run validates without writing.
func (s *AccountService) Import(ctx context.Context, tenantID uuid.UUID, req ImportAccountsRequest) (*ImportAccountsResponse, error) {
	ctx, span, principal, err := s.begin(ctx, "import", tenantID, CapAccountCreate)
	defer span.End()
	if err != nil {
		return nil, err
	}
	if len(req.Rows) == 0 {
		return nil, s.fail(span, shared.NewDomainError(shared.ErrValidationFailed.Code, "Import contains no rows"))
	}
	if len(req.Rows) > MaxImportRows {
		return nil, s.fail(span, shared.NewDomainError(shared.ErrValidationFailed.Code,
			fmt.Sprintf("Import cannot exceed %d rows", MaxImportRows)))
	}

	result := &ImportAccountsResponse{Total: len(req.Rows), DryRun: req.DryRun, Errors: []ImportRowError{}, Accounts: []AccountResponse{}}
	candidates := s.buildCandidates(tenantID, actorID(principal), req.Rows, result)

	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := s.checkExisting(ctx, repos, tenantID, candidates, result)
		if err != nil {
			return err
		}
		ordered := orderByParent(candidates, existing, result)
		if !result.Valid() || req.DryRun {
			return nil
		}

		sources := make([]eventSource, 0, len(ordered))
		for _, c := range ordered {
			if err := repos.Accounts().Save(ctx, c.account); err != nil {
				return err
			}
			sources = append(sources, c.account)
		}
		events, err = collectEvents(ctx, repos, sources...)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	sort.SliceStable(result.Errors, func(i, j int) bool { return result.Errors[i].Line < result.Errors[j].Line })
	if !result.Valid() || req.DryRun {
		return result, nil
	}
	s.commit(ctx, events)

	for _, c := range candidates {
		result.Accounts = append(result.Accounts, ToAccountResponse(c.account))
	}
	result.Created = len(result.Accounts)
	s.logger.Info("chart of accounts imported",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("created", result.Created),
	)
	return result, nil
}

// buildCandidates validates each row on its own and against the rest of the batch
func (s *AccountService) buildCandidates(tenantID, actor uuid.UUID, rows []ImportAccountRow, result *ImportAccountsResponse) []*importCandidate {
	candidates := make([]*importCandidate, 0, len(rows))
	seen := make(map[string]int, len(rows))
	for _, row := range rows {
		row.Code = strings.TrimSpace(row.Code)
		row.ParentCode = strings.TrimSpace(row.ParentCode)
		row.Class = strings.ToLower(strings.TrimSpace(row.Class))

		if first, dup := seen[row.Code]; dup && row.Code != "" {
			result.addError(row.Line, "code", ImportErrDuplicateInFile,
				fmt.Sprintf("Account code %s already appears on line %d", row.Code, first))
			continue
		}
		seen[row.Code] = row.Line

		account, ok := newImportedAccount(tenantID, row, result)
		if !ok {
			continue
		}
		account.SetCreatedBy(actor)
		candidates = append(candidates, &importCandidate{row: row, account: account})
	}
	return candidates
}

func newImportedAccount(tenantID uuid.UUID, row ImportAccountRow, result *ImportAccountsResponse) (*finance.LedgerAccount, bool) {
	required := []struct{ column, value string }{{"code", row.Code}, {"name", row.Name}, {"class", row.Class}}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			result.addError(row.Line, f.column, ImportErrRequired, f.column+" is required")
			return nil, false
		}
	}
	if len(row.Subtype) > 100 || len(row.Description) > 500 || len(row.Name) > 200 {
		result.addError(row.Line, "", ImportErrInvalidValue, "name, subtype or description is too long")
		return nil, false
	}
	currency, err := parseCurrency(row.Currency)
	if err != nil {
		result.addError(row.Line, "currency", ImportErrInvalidValue, errorMessage(err))
		return nil, false
	}
	account, err := finance.NewLedgerAccount(tenantID, row.Code, row.Name, finance.AccountClass(row.Class), row.Subtype, currency)
	if err != nil {
		result.addError(row.Line, columnFor(err), ImportErrInvalidValue, errorMessage(err))
		return nil, false
	}
	account.Description = row.Description
	return account, true
}

// checkExisting rejects codes already in the ledger and loads the existing
// parents the batch refers to
func (s *AccountService) checkExisting(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, candidates []*importCandidate, result *ImportAccountsResponse) (map[string]*finance.LedgerAccount, error) {
	inBatch := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		inBatch[c.account.Code] = true
	}

	existing := make(map[string]*finance.LedgerAccount)
	for _, c := range candidates {
		exists, err := repos.Accounts().ExistsByCode(ctx, tenantID, c.account.Code)
		if err != nil {
			return nil, err
		}
		if exists {
			result.addError(c.row.Line, "code", ImportErrDuplicateInDB,
				fmt.Sprintf("Account code %s already exists", c.account.Code))
		}

		parentCode := c.row.ParentCode
		if parentCode == "" || inBatch[parentCode] {
			continue
		}
		if _, loaded := existing[parentCode]; loaded {
			continue
		}
		parent, err := repos.Accounts().FindByCode(ctx, tenantID, parentCode)
		if shared.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		existing[parentCode] = parent
	}
	return existing, nil
}

// orderByParent attaches every candidate to its parent and returns the
// candidates with each parent ahead of its children
func orderByParent(candidates []*importCandidate, existing map[string]*finance.LedgerAccount, result *ImportAccountsResponse) []*importCandidate {
	byCode := make(map[string]*importCandidate, len(candidates))
	for _, c := range candidates {
		byCode[c.account.Code] = c
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(candidates))
	ordered := make([]*importCandidate, 0, len(candidates))

	var visit func(c *importCandidate) bool
	visit = func(c *importCandidate) bool {
		code := c.account.Code
		switch state[code] {
		case done:
			return true
		case visiting:
			result.addError(c.row.Line, "parent_code", ImportErrParentCycle,
				fmt.Sprintf("Account %s is its own ancestor", code))
			return false
		}
		state[code] = visiting
		defer func() { state[code] = done }()

		parentCode := c.row.ParentCode
		if parentCode == "" {
			ordered = append(ordered, c)
			return true
		}
		var parent *finance.LedgerAccount
		if pc, ok := byCode[parentCode]; ok {
			if !visit(pc) {
				return false
			}
			parent = pc.account
		} else if p, ok := existing[parentCode]; ok {
			parent = p
		} else {
			result.addError(c.row.Line, "parent_code", ImportErrParentNotFound,
				fmt.Sprintf("Parent account %s not found", parentCode))
			return false
		}
		if err := c.account.AttachTo(parent); err != nil {
			result.addError(c.row.Line, "parent_code", ImportErrInvalidParent, errorMessage(err))
			return false
		}
		ordered = append(ordered, c)
		return true
	}

	for _, c := range candidates {
		visit(c)
	}
	return ordered
}

func (r *ImportAccountsResponse) addError(line int, column, code, message string) {
	r.Errors = append(r.Errors, ImportRowError{Line: line, Column: column, Code: code, Message: message})
}

func errorMessage(err error) string {
	if de, ok := shared.AsDomainError(err); ok {
		return de.Message
	}
	return err.Error()
}

func columnFor(err error) string {
	de, ok := shared.AsDomainError(err)
	if !ok {
		return ""
	}
	switch de.Code {
	case "INVALID_ACCOUNT_CODE":
		return "code"
	case "INVALID_ACCOUNT_NAME":
		return "name"
	case "INVALID_ACCOUNT_CLASS":
		return "class"
	}
	return ""
}
