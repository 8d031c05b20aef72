package persistence

import (
	"context"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLedgerAccountRepository implements LedgerAccountRepository using GORM
type GormLedgerAccountRepository struct {
	db *gorm.DB
}

// NewGormLedgerAccountRepository creates a new GormLedgerAccountRepository
func NewGormLedgerAccountRepository(db *gorm.DB) *GormLedgerAccountRepository {
	return &GormLedgerAccountRepository{db: db}
}

// FindByID finds an account by ID
func (r *GormLedgerAccountRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.LedgerAccount, error) {
	return r.findOne(r.db.WithContext(ctx), tenantID, "id = ?", id)
}

// FindByIDForUpdate finds an account by ID and locks the row
func (r *GormLedgerAccountRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.LedgerAccount, error) {
	return r.findOne(forUpdate(r.db.WithContext(ctx)), tenantID, "id = ?", id)
}

// FindByCode finds an account by its code
func (r *GormLedgerAccountRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*finance.LedgerAccount, error) {
	return r.findOne(r.db.WithContext(ctx), tenantID, "code = ?", code)
}

func (r *GormLedgerAccountRepository) findOne(db *gorm.DB, tenantID uuid.UUID, query string, arg any) (*finance.LedgerAccount, error) {
	var model models.LedgerAccountModel
	if err := db.Scopes(tenantScope(tenantID)).Where(query, arg).First(&model).Error; err != nil {
		return nil, translateNotFound(err, "Ledger account")
	}
	return model.ToDomain(), nil
}

// FindByIDs finds the accounts with the given IDs. Missing IDs are omitted.
func (r *GormLedgerAccountRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]finance.LedgerAccount, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.LedgerAccountModel
	if err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLedgerAccounts(rows), nil
}

// FindAll lists accounts with filtering and returns the total match count
func (r *GormLedgerAccountRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter finance.LedgerAccountFilter) ([]finance.LedgerAccount, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.LedgerAccountModel{}).
		Scopes(tenantScope(tenantID), searchScope(filter.Search, "code", "name"))
	if filter.Class != nil {
		query = query.Where("class = ?", *filter.Class)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.ParentID != nil {
		query = query.Where("parent_id = ?", *filter.ParentID)
	}

	var rows []models.LedgerAccountModel
	total, err := countAndFind(query, paginate(filter.Filter, LedgerAccountSortFields, "code"), &rows)
	if err != nil {
		return nil, 0, err
	}
	return toLedgerAccounts(rows), total, nil
}

// FindAllOrdered returns every account of the tenant ordered by code
func (r *GormLedgerAccountRepository) FindAllOrdered(ctx context.Context, tenantID uuid.UUID) ([]finance.LedgerAccount, error) {
	var rows []models.LedgerAccountModel
	if err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Order("code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLedgerAccounts(rows), nil
}

// ExistsByCode checks if an account code is already used in the tenant
func (r *GormLedgerAccountRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	return r.exists(ctx, &models.LedgerAccountModel{}, tenantID, "code = ?", code)
}

// HasChildren checks if any account has id as its parent
func (r *GormLedgerAccountRepository) HasChildren(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.LedgerAccountModel{}, tenantID, "parent_id = ?", id)
}

// IsReferenced checks if any journal line references the account
func (r *GormLedgerAccountRepository) IsReferenced(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.JournalEntryLineModel{}, tenantID, "account_id = ?", id)
}

func (r *GormLedgerAccountRepository) exists(ctx context.Context, model any, tenantID uuid.UUID, query string, arg any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(model).
		Scopes(tenantScope(tenantID)).
		Where(query, arg).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates an account
func (r *GormLedgerAccountRepository) Save(ctx context.Context, account *finance.LedgerAccount) error {
	_, err := saveVersioned(r.db.WithContext(ctx), account,
		func() any { return models.LedgerAccountModelFromDomain(account) }, errAccountCodeTaken)
	return err
}

// Delete removes an account
func (r *GormLedgerAccountRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Delete(&models.LedgerAccountModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translateNotFound(gorm.ErrRecordNotFound, "Ledger account")
	}
	return nil
}

func toLedgerAccounts(rows []models.LedgerAccountModel) []finance.LedgerAccount {
	accounts := make([]finance.LedgerAccount, len(rows))
	for i := range rows {
		accounts[i] = *rows[i].ToDomain()
	}
	return accounts
}

var _ finance.LedgerAccountRepository = (*GormLedgerAccountRepository)(nil)
