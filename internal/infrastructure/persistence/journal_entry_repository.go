package persistence

import (
	"context"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormJournalEntryRepository implements JournalEntryRepository using GORM
type GormJournalEntryRepository struct {
	db *gorm.DB
}

// NewGormJournalEntryRepository creates a new GormJournalEntryRepository
func NewGormJournalEntryRepository(db *gorm.DB) *GormJournalEntryRepository {
	return &GormJournalEntryRepository{db: db}
}

func preloadJournalLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("line_no ASC")
	})
}

// FindByID finds an entry by ID
func (r *GormJournalEntryRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.JournalEntry, error) {
	return r.findByID(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate finds an entry by ID and locks the header row.
// Lines are owned by the header, so the header lock covers them.
func (r *GormJournalEntryRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.JournalEntry, error) {
	return r.findByID(forUpdate(r.db.WithContext(ctx)), tenantID, id)
}

func (r *GormJournalEntryRepository) findByID(db *gorm.DB, tenantID, id uuid.UUID) (*finance.JournalEntry, error) {
	var model models.JournalEntryModel
	if err := db.Scopes(tenantScope(tenantID), preloadJournalLines).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err, "Journal entry")
	}
	return model.ToDomain(), nil
}

// FindAll lists entries with filtering and returns the total match count
func (r *GormJournalEntryRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter finance.JournalEntryFilter) ([]finance.JournalEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.JournalEntryModel{}).
		Scopes(tenantScope(tenantID), searchScope(filter.Search, "reference_number", "description"))
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.AccountID != nil {
		query = query.Where("id IN (?)", r.db.Model(&models.JournalEntryLineModel{}).
			Select("journal_entry_id").
			Where("tenant_id = ? AND account_id = ?", tenantID, *filter.AccountID))
	}
	if filter.FromDate != nil {
		query = query.Where("entry_date >= ?", finance.DateOnly(*filter.FromDate))
	}
	if filter.ToDate != nil {
		query = query.Where("entry_date <= ?", finance.DateOnly(*filter.ToDate))
	}

	var rows []models.JournalEntryModel
	page := func(db *gorm.DB) *gorm.DB {
		return db.Scopes(paginate(filter.Filter, JournalEntrySortFields, "entry_date"), preloadJournalLines)
	}
	total, err := countAndFind(query, page, &rows)
	if err != nil {
		return nil, 0, err
	}
	entries := make([]finance.JournalEntry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, total, nil
}

// ExistsByReference checks if a reference number is already used in the tenant
func (r *GormJournalEntryRepository) ExistsByReference(ctx context.Context, tenantID uuid.UUID, reference string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.JournalEntryModel{}).
		Scopes(tenantScope(tenantID)).
		Where("reference_number = ?", reference).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates an entry. Lines are written on insert and replaced
// only while the entry is a draft; posted and reversed lines are never touched.
func (r *GormJournalEntryRepository) Save(ctx context.Context, entry *finance.JournalEntry) error {
	db := r.db.WithContext(ctx)
	var model *models.JournalEntryModel
	inserted, err := saveVersioned(db, entry, func() any {
		model = models.JournalEntryModelFromDomain(entry)
		return model
	}, errReferenceTaken)
	if err != nil {
		return err
	}
	if !inserted {
		if !entry.IsDraft() {
			return nil
		}
		if err := db.Where("journal_entry_id = ?", entry.ID).Delete(&models.JournalEntryLineModel{}).Error; err != nil {
			return err
		}
	}
	if len(model.Lines) == 0 {
		return nil
	}
	return db.Create(&model.Lines).Error
}

// Delete removes an entry and its lines
func (r *GormJournalEntryRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Scopes(tenantScope(tenantID)).
		Where("journal_entry_id = ?", id).
		Delete(&models.JournalEntryLineModel{}).Error; err != nil {
		return err
	}
	result := db.Scopes(tenantScope(tenantID)).Delete(&models.JournalEntryModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translateNotFound(gorm.ErrRecordNotFound, "Journal entry")
	}
	return nil
}

var _ finance.JournalEntryRepository = (*GormJournalEntryRepository)(nil)
