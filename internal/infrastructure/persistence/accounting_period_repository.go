package persistence

import (
	"context"
	"time"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAccountingPeriodRepository implements AccountingPeriodRepository using GORM
type GormAccountingPeriodRepository struct {
	db *gorm.DB
}

// NewGormAccountingPeriodRepository creates a new GormAccountingPeriodRepository
func NewGormAccountingPeriodRepository(db *gorm.DB) *GormAccountingPeriodRepository {
	return &GormAccountingPeriodRepository{db: db}
}

// FindByID finds a period by ID
func (r *GormAccountingPeriodRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.AccountingPeriod, error) {
	return r.first(r.db.WithContext(ctx), tenantID, "id = ?", id)
}

// FindByIDForUpdate finds a period by ID and locks the row
func (r *GormAccountingPeriodRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.AccountingPeriod, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)), tenantID, "id = ?", id)
}

// FindCovering returns the period whose range contains date
func (r *GormAccountingPeriodRepository) FindCovering(ctx context.Context, tenantID uuid.UUID, date time.Time) (*finance.AccountingPeriod, error) {
	d := finance.DateOnly(date)
	return r.first(r.db.WithContext(ctx), tenantID, "start_date <= ? AND end_date > ?", d, d)
}

// FindCoveringForUpdate returns the period containing date and locks the row.
// Posting holds this lock so a concurrent close waits for the post to commit.
func (r *GormAccountingPeriodRepository) FindCoveringForUpdate(ctx context.Context, tenantID uuid.UUID, date time.Time) (*finance.AccountingPeriod, error) {
	d := finance.DateOnly(date)
	return r.first(forUpdate(r.db.WithContext(ctx)), tenantID, "start_date <= ? AND end_date > ?", d, d)
}

func (r *GormAccountingPeriodRepository) first(db *gorm.DB, tenantID uuid.UUID, query string, args ...any) (*finance.AccountingPeriod, error) {
	var model models.AccountingPeriodModel
	if err := db.Scopes(tenantScope(tenantID)).
		Where(query, args...).
		Order("start_date ASC").
		First(&model).Error; err != nil {
		return nil, translateNotFound(err, "Accounting period")
	}
	return model.ToDomain(), nil
}

// FindOverlapping returns the periods intersecting [start, end), locking them
func (r *GormAccountingPeriodRepository) FindOverlapping(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]finance.AccountingPeriod, error) {
	var rows []models.AccountingPeriodModel
	if err := forUpdate(r.db.WithContext(ctx)).
		Scopes(tenantScope(tenantID)).
		Where("start_date < ? AND end_date > ?", finance.DateOnly(end), finance.DateOnly(start)).
		Order("start_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toAccountingPeriods(rows), nil
}

// FindAll lists periods with filtering and returns the total match count
func (r *GormAccountingPeriodRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter finance.AccountingPeriodFilter) ([]finance.AccountingPeriod, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AccountingPeriodModel{}).
		Scopes(tenantScope(tenantID), searchScope(filter.Search, "name"))
	if filter.FiscalYear != nil {
		query = query.Where("fiscal_year = ?", *filter.FiscalYear)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var rows []models.AccountingPeriodModel
	total, err := countAndFind(query, paginate(filter.Filter, PeriodSortFields, "start_date"), &rows)
	if err != nil {
		return nil, 0, err
	}
	return toAccountingPeriods(rows), total, nil
}

// Save creates or updates a period. A concurrent insert of an overlapping
// period is rejected by the exclusion constraint and reported as PERIOD_OVERLAP.
func (r *GormAccountingPeriodRepository) Save(ctx context.Context, period *finance.AccountingPeriod) error {
	_, err := saveVersioned(r.db.WithContext(ctx), period,
		func() any { return models.AccountingPeriodModelFromDomain(period) }, errPeriodOverlap)
	return err
}

func toAccountingPeriods(rows []models.AccountingPeriodModel) []finance.AccountingPeriod {
	periods := make([]finance.AccountingPeriod, len(rows))
	for i := range rows {
		periods[i] = *rows[i].ToDomain()
	}
	return periods
}

var _ finance.AccountingPeriodRepository = (*GormAccountingPeriodRepository)(nil)
