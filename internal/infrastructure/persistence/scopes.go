package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// tenantScope restricts a query to the rows of one tenant. Every finance
// query goes through it, so a row of another tenant reads as not found.
func tenantScope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

// forUpdate takes a row lock held until the surrounding transaction ends.
// SQLite ignores the clause, which is fine for single-connection tests.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
}

// paginate orders by a whitelisted column and applies the page window
func paginate(filter shared.Filter, allowed map[string]bool, defaultField string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		f := filter.Normalize()
		field := ValidateSortField(f.OrderBy, allowed, defaultField)
		db = db.Order(fmt.Sprintf("%s %s", field, ValidateSortOrder(f.OrderDir)))
		if field != "id" {
			db = db.Order("id ASC")
		}
		return db.Offset(f.Offset()).Limit(f.PageSize)
	}
}

// searchScope matches the term case-insensitively against any of the columns
func searchScope(term string, columns ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" || len(columns) == 0 {
			return db
		}
		like := "%" + strings.ToLower(term) + "%"
		conds := make([]string, len(columns))
		args := make([]any, len(columns))
		for i, c := range columns {
			conds[i] = fmt.Sprintf("LOWER(%s) LIKE ?", c)
			args[i] = like
		}
		return db.Where(strings.Join(conds, " OR "), args...)
	}
}

// countAndFind counts the rows matched by query and loads one page of them into dest
func countAndFind(query *gorm.DB, page func(db *gorm.DB) *gorm.DB, dest any) (int64, error) {
	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	if err := query.Scopes(page).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// translateNotFound maps a missing row to a NOT_FOUND domain error naming the resource
func translateNotFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NotFound(resource)
	}
	return err
}
