package persistence

import (
	"context"
	"time"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func preloadInvoiceLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("line_no ASC")
	})
}

// FindByID finds an invoice by ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.Invoice, error) {
	return r.findByID(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate finds an invoice by ID and locks the row. Payments are
// applied under this lock so two payments never both see the old amount due.
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.Invoice, error) {
	return r.findByID(forUpdate(r.db.WithContext(ctx)), tenantID, id)
}

func (r *GormInvoiceRepository) findByID(db *gorm.DB, tenantID, id uuid.UUID) (*finance.Invoice, error) {
	var model models.InvoiceModel
	if err := db.Scopes(tenantScope(tenantID), preloadInvoiceLines).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err, "Invoice")
	}
	return model.ToDomain(), nil
}

// FindAll lists invoices with filtering and returns the total match count
func (r *GormInvoiceRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter finance.InvoiceFilter) ([]finance.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Scopes(tenantScope(tenantID), searchScope(filter.Search, "number", "notes"))
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PartnerID != nil {
		query = query.Where("partner_id = ?", *filter.PartnerID)
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date < ?", finance.DateOnly(*filter.DueBefore))
	}

	var rows []models.InvoiceModel
	page := func(db *gorm.DB) *gorm.DB {
		return db.Scopes(paginate(filter.Filter, InvoiceSortFields, "issue_date"), preloadInvoiceLines)
	}
	total, err := countAndFind(query, page, &rows)
	if err != nil {
		return nil, 0, err
	}
	return toInvoices(rows), total, nil
}

// FindOverdueCandidates returns sent invoices due strictly before asOf, locking them
func (r *GormInvoiceRepository) FindOverdueCandidates(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]finance.Invoice, error) {
	var rows []models.InvoiceModel
	if err := forUpdate(r.db.WithContext(ctx)).
		Scopes(tenantScope(tenantID), preloadInvoiceLines).
		Where("status = ? AND due_date < ?", finance.InvoiceStatusSent, finance.DateOnly(asOf)).
		Order("due_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInvoices(rows), nil
}

// NextNumber allocates the next sequential document number for the type.
// The sequence row stays locked until the caller's transaction ends, so
// concurrent allocations queue instead of drawing the same value.
func (r *GormInvoiceRepository) NextNumber(ctx context.Context, tenantID uuid.UUID, invoiceType finance.InvoiceType) (string, error) {
	db := r.db.WithContext(ctx)
	seq := models.InvoiceSequenceModel{TenantID: tenantID, Type: invoiceType}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
		return "", err
	}
	if err := forUpdate(db).
		Where("tenant_id = ? AND type = ?", tenantID, invoiceType).
		First(&seq).Error; err != nil {
		return "", err
	}
	seq.LastValue++
	if err := db.Model(&models.InvoiceSequenceModel{}).
		Where("tenant_id = ? AND type = ?", tenantID, invoiceType).
		Update("last_value", seq.LastValue).Error; err != nil {
		return "", err
	}
	return finance.FormatInvoiceNumber(invoiceType, seq.LastValue), nil
}

// Save creates or updates an invoice. Lines are replaced only while it is a draft.
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *finance.Invoice) error {
	db := r.db.WithContext(ctx)
	var model *models.InvoiceModel
	inserted, err := saveVersioned(db, invoice, func() any {
		model = models.InvoiceModelFromDomain(invoice)
		return model
	}, errInvoiceNumber)
	if err != nil {
		return err
	}
	if !inserted {
		if invoice.Status != finance.InvoiceStatusDraft {
			return nil
		}
		if err := db.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceLineModel{}).Error; err != nil {
			return err
		}
	}
	if len(model.Lines) == 0 {
		return nil
	}
	return db.Create(&model.Lines).Error
}

func toInvoices(rows []models.InvoiceModel) []finance.Invoice {
	invoices := make([]finance.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices
}

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create stores a new payment
func (r *GormPaymentRepository) Create(ctx context.Context, payment *finance.Payment) error {
	return r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(payment)).Error
}

// FindByInvoice lists the payments of an invoice ordered by paid_at
func (r *GormPaymentRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]finance.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("invoice_id = ?", invoiceID).
		Order("paid_at ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	payments := make([]finance.Payment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments, nil
}

var (
	_ finance.InvoiceRepository = (*GormInvoiceRepository)(nil)
	_ finance.PaymentRepository = (*GormPaymentRepository)(nil)
)

// TenantIDsWithSentInvoices lists tenants holding at least one sent
// invoice due before asOf. The overdue sweep visits only these.
func (r *GormInvoiceRepository) TenantIDsWithSentInvoices(ctx context.Context, asOf time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Distinct("tenant_id").
		Where("status = ? AND due_date < ?", finance.InvoiceStatusSent, finance.DateOnly(asOf)).
		Order("tenant_id").
		Pluck("tenant_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
