package persistence

import (
	"github.com/erp/accounting/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// versioned is an aggregate carrying an optimistic locking version
type versioned interface {
	GetVersion() int
	IncrementVersion()
	PersistedVersion() int
	MarkPersisted()
}

// saveVersioned inserts an aggregate that was never persisted. Otherwise it
// updates the stored row only while the row still has the version the
// aggregate was loaded at, and a writer that lost the race gets
// CONCURRENCY_CONFLICT. The returned flag reports an insert.
func saveVersioned(db *gorm.DB, agg versioned, toModel func() any, conflict *shared.DomainError) (bool, error) {
	expected := agg.PersistedVersion()
	if expected == 0 {
		if err := db.Omit(clause.Associations).Create(toModel()).Error; err != nil {
			return false, translateWriteError(err, conflict)
		}
		agg.MarkPersisted()
		return true, nil
	}

	if agg.GetVersion() == expected {
		agg.IncrementVersion()
	}
	model := toModel()
	result := db.Model(model).
		Select("*").
		Omit("tenant_id", "created_by", "created_at", clause.Associations).
		Where("version = ?", expected).
		Updates(model)
	if result.Error != nil {
		return false, translateWriteError(result.Error, conflict)
	}
	if result.RowsAffected == 0 {
		return false, shared.ErrConcurrencyConflict
	}
	agg.MarkPersisted()
	return false, nil
}
