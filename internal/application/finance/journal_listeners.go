package finance

import (
	"context"
	"fmt"

	"github.com/erp/accounting/internal/domain/asset"
	"github.com/erp/accounting/internal/domain/hr"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Journal sources recorded on listener-produced entries
const (
	JournalSourcePayroll      = "payroll"
	JournalSourceDepreciation = "asset_depreciation"
)

// PayrollRunCompletedListener books a completed payroll run as a draft
// journal entry: salary expense against salary and deductions payable
type PayrollRunCompletedListener struct {
	listenerBase
	journals JournalCreator
	accounts AccountResolver
}

// NewPayrollRunCompletedListener creates a new PayrollRunCompletedListener
func NewPayrollRunCompletedListener(journals JournalCreator, accounts AccountResolver, cfg IntegrationConfig, recorder LedgerRecorder, logger *zap.Logger) *PayrollRunCompletedListener {
	return &PayrollRunCompletedListener{
		listenerBase: newListenerBase("payroll_run_completed", cfg, recorder, logger),
		journals:     journals,
		accounts:     accounts,
	}
}

// EventTypes returns the event types this listener is interested in
func (l *PayrollRunCompletedListener) EventTypes() []string {
	return []string{hr.EventTypePayrollRunCompleted}
}

// Handle debits gross pay to salary expense, credits net pay to salary
// payable and, when present, credits deductions to deductions payable
func (l *PayrollRunCompletedListener) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*hr.PayrollRunCompletedEvent)
	if !ok {
		return l.unexpected(ctx, event, hr.EventTypePayrollRunCompleted)
	}
	return l.run(ctx, event, func(ctx context.Context) error {
		gross, ok := positiveAmount(e.TotalGross)
		if !ok {
			return l.skip(ctx, event, skipNonPositive, zap.String("total_gross", e.TotalGross))
		}
		deductions, err := optionalAmount(e.TotalDeductions)
		if err != nil {
			return shared.NewDomainError("INVALID_AMOUNT", fmt.Sprintf("total_deductions: %v", err))
		}
		net := gross.Sub(deductions)
		if e.TotalNet != "" {
			if net, err = valueobject.ParseAmount(e.TotalNet); err != nil {
				return shared.NewDomainError("INVALID_AMOUNT", fmt.Sprintf("total_net: %v", err))
			}
		}

		codes := l.cfg.Accounts
		ids, err := l.accounts.ResolveCodes(ctx, e.TenantID(), codes.SalaryExpense, codes.SalaryPayable, codes.DeductionsPayable)
		if err != nil {
			return err
		}
		currency := l.currency(e.Currency)
		label := e.RunNumber
		if e.PeriodLabel != "" {
			label = fmt.Sprintf("%s %s", e.RunNumber, e.PeriodLabel)
		}

		lines := []JournalLineRequest{
			{AccountID: ids[codes.SalaryExpense], Debit: valueobject.FormatAmount(gross), Description: "Gross salaries", Currency: currency},
			{AccountID: ids[codes.SalaryPayable], Credit: valueobject.FormatAmount(net), Description: "Net salaries payable", Currency: currency},
		}
		if deductions.IsPositive() {
			lines = append(lines, JournalLineRequest{
				AccountID: ids[codes.DeductionsPayable], Credit: valueobject.FormatAmount(deductions),
				Description: "Payroll deductions payable", Currency: currency,
			})
		}
		if debit, credit := balanceOf(lines); !debit.Equal(credit) {
			l.logger.Warn("payroll totals do not balance, entry kept as draft for review",
				zap.String("payroll_run_id", e.PayrollRunID.String()),
				zap.String("debit", debit.String()),
				zap.String("credit", credit.String()),
			)
		}

		entry, err := l.journals.Create(ctx, e.TenantID(), CreateJournalEntryRequest{
			ReferenceNumber: reference("PAYROLL", e.RunNumber, e.PayrollRunID.String()),
			EntryDate:       orNow(e.PayDate),
			Description:     "Payroll run " + label + " | " + sourceNote("payroll run", e.RunNumber, e.PayrollRunID),
			Source:          JournalSourcePayroll,
			Lines:           lines,
		})
		if err != nil {
			return err
		}
		l.logger.Info("journal entry created from payroll run",
			zap.String("payroll_run_id", e.PayrollRunID.String()),
			zap.String("journal_entry_id", entry.ID.String()),
			zap.String("total_gross", gross.String()),
		)
		return nil
	})
}

// AssetDepreciatedListener books a depreciation charge as a draft journal entry
type AssetDepreciatedListener struct {
	listenerBase
	journals JournalCreator
	accounts AccountResolver
}

// NewAssetDepreciatedListener creates a new AssetDepreciatedListener
func NewAssetDepreciatedListener(journals JournalCreator, accounts AccountResolver, cfg IntegrationConfig, recorder LedgerRecorder, logger *zap.Logger) *AssetDepreciatedListener {
	return &AssetDepreciatedListener{
		listenerBase: newListenerBase("asset_depreciated", cfg, recorder, logger),
		journals:     journals,
		accounts:     accounts,
	}
}

// EventTypes returns the event types this listener is interested in
func (l *AssetDepreciatedListener) EventTypes() []string {
	return []string{asset.EventTypeAssetDepreciated}
}

// Handle debits depreciation expense and credits accumulated depreciation
func (l *AssetDepreciatedListener) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*asset.AssetDepreciatedEvent)
	if !ok {
		return l.unexpected(ctx, event, asset.EventTypeAssetDepreciated)
	}
	return l.run(ctx, event, func(ctx context.Context) error {
		amount, ok := positiveAmount(e.DepreciationAmount)
		if !ok {
			return l.skip(ctx, event, skipNonPositive, zap.String("depreciation_amount", e.DepreciationAmount))
		}

		codes := l.cfg.Accounts
		ids, err := l.accounts.ResolveCodes(ctx, e.TenantID(), codes.DepreciationExpense, codes.AccumulatedDepreciation)
		if err != nil {
			return err
		}
		currency := l.currency(e.Currency)
		date := orNow(e.DepreciationDate)
		formatted := valueobject.FormatAmount(amount)
		name := e.AssetCode
		if e.AssetName != "" {
			name = fmt.Sprintf("%s %s", e.AssetCode, e.AssetName)
		}

		number := ""
		if e.AssetCode != "" {
			number = e.AssetCode + "-" + date.Format("20060102")
		}
		entry, err := l.journals.Create(ctx, e.TenantID(), CreateJournalEntryRequest{
			ReferenceNumber: reference("DEP", number, e.AssetID.String()+"-"+date.Format("20060102")),
			EntryDate:       date,
			Description:     "Depreciation of " + name + " | " + sourceNote("asset", e.AssetCode, e.AssetID),
			Source:          JournalSourceDepreciation,
			Lines: []JournalLineRequest{
				{AccountID: ids[codes.DepreciationExpense], Debit: formatted, Description: "Depreciation expense", Currency: currency},
				{AccountID: ids[codes.AccumulatedDepreciation], Credit: formatted, Description: "Accumulated depreciation", Currency: currency},
			},
		})
		if err != nil {
			return err
		}
		l.logger.Info("journal entry created from asset depreciation",
			zap.String("asset_id", e.AssetID.String()),
			zap.String("journal_entry_id", entry.ID.String()),
			zap.String("amount", amount.String()),
		)
		return nil
	})
}

// reference builds a journal reference from the source number, falling back
// to the source id, within the reference length limit
func reference(prefix, number, fallback string) string {
	if number == "" {
		number = fallback
	}
	ref := prefix + "-" + number
	if len(ref) > 64 {
		ref = ref[:64]
	}
	return ref
}

// balanceOf sums the debit and credit columns of request lines
func balanceOf(lines []JournalLineRequest) (debit, credit decimal.Decimal) {
	for _, l := range lines {
		debit = debit.Add(valueobject.ParseAmountOrZero(l.Debit))
		credit = credit.Add(valueobject.ParseAmountOrZero(l.Credit))
	}
	return debit, credit
}

var (
	_ shared.EventHandler = (*PayrollRunCompletedListener)(nil)
	_ shared.EventHandler = (*AssetDepreciatedListener)(nil)
)
