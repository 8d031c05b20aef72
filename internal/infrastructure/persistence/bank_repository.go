package persistence

import (
	"context"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBankAccountRepository implements BankAccountRepository using GORM
type GormBankAccountRepository struct {
	db *gorm.DB
}

// NewGormBankAccountRepository creates a new GormBankAccountRepository
func NewGormBankAccountRepository(db *gorm.DB) *GormBankAccountRepository {
	return &GormBankAccountRepository{db: db}
}

// FindByID finds a bank account by ID
func (r *GormBankAccountRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.BankAccount, error) {
	var model models.BankAccountModel
	if err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err, "Bank account")
	}
	return model.ToDomain(), nil
}

// FindAll lists bank accounts and returns the total match count
func (r *GormBankAccountRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]finance.BankAccount, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BankAccountModel{}).
		Scopes(tenantScope(tenantID), searchScope(filter.Search, "name", "account_number", "bank_name"))

	var rows []models.BankAccountModel
	total, err := countAndFind(query, paginate(filter, BankAccountSortFields, "name"), &rows)
	if err != nil {
		return nil, 0, err
	}
	accounts := make([]finance.BankAccount, len(rows))
	for i := range rows {
		accounts[i] = *rows[i].ToDomain()
	}
	return accounts, total, nil
}

// ExistsByAccountNumber checks if an account number is already registered in the tenant
func (r *GormBankAccountRepository) ExistsByAccountNumber(ctx context.Context, tenantID uuid.UUID, accountNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.BankAccountModel{}).
		Scopes(tenantScope(tenantID)).
		Where("account_number = ?", accountNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a bank account
func (r *GormBankAccountRepository) Save(ctx context.Context, account *finance.BankAccount) error {
	_, err := saveVersioned(r.db.WithContext(ctx), account,
		func() any { return models.BankAccountModelFromDomain(account) }, errBankAccountTaken)
	return err
}

// GormBankTransactionRepository implements BankTransactionRepository using GORM
type GormBankTransactionRepository struct {
	db *gorm.DB
}

// NewGormBankTransactionRepository creates a new GormBankTransactionRepository
func NewGormBankTransactionRepository(db *gorm.DB) *GormBankTransactionRepository {
	return &GormBankTransactionRepository{db: db}
}

// FindByID finds a transaction by ID
func (r *GormBankTransactionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.BankTransaction, error) {
	return r.findByID(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate finds a transaction by ID and locks the row
func (r *GormBankTransactionRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.BankTransaction, error) {
	return r.findByID(forUpdate(r.db.WithContext(ctx)), tenantID, id)
}

func (r *GormBankTransactionRepository) findByID(db *gorm.DB, tenantID, id uuid.UUID) (*finance.BankTransaction, error) {
	var model models.BankTransactionModel
	if err := db.Scopes(tenantScope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err, "Bank transaction")
	}
	return model.ToDomain(), nil
}

// FindAll lists transactions with filtering and returns the total match count
func (r *GormBankTransactionRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter finance.BankTransactionFilter) ([]finance.BankTransaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BankTransactionModel{}).
		Scopes(tenantScope(tenantID), searchScope(filter.Search, "description", "reference"))
	if filter.BankAccountID != nil {
		query = query.Where("bank_account_id = ?", *filter.BankAccountID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("transaction_date >= ?", finance.DateOnly(*filter.FromDate))
	}
	if filter.ToDate != nil {
		query = query.Where("transaction_date <= ?", finance.DateOnly(*filter.ToDate))
	}

	var rows []models.BankTransactionModel
	total, err := countAndFind(query, paginate(filter.Filter, BankTransactionSortFields, "transaction_date"), &rows)
	if err != nil {
		return nil, 0, err
	}
	txs := make([]finance.BankTransaction, len(rows))
	for i := range rows {
		txs[i] = *rows[i].ToDomain()
	}
	return txs, total, nil
}

// Save creates or updates a transaction
func (r *GormBankTransactionRepository) Save(ctx context.Context, tx *finance.BankTransaction) error {
	_, err := saveVersioned(r.db.WithContext(ctx), tx,
		func() any { return models.BankTransactionModelFromDomain(tx) }, nil)
	return err
}

var (
	_ finance.BankAccountRepository     = (*GormBankAccountRepository)(nil)
	_ finance.BankTransactionRepository = (*GormBankTransactionRepository)(nil)
)
