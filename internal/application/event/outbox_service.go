package event

import (
	"context"
	"time"

	appfin "github.com/erp/accounting/internal/application/finance"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultOutboxPageSize = 20
	maxOutboxPageSize     = 100
	retryAllBatchSize     = 100
	// retryAllMaxBatches bounds RetryAllDeadEntries when updates keep failing
	retryAllMaxBatches = 1000
)

// OutboxService administers the transactional outbox: dead letter listing,
// manual retry and delivery statistics. Outbox rows of every tenant are
// visible, so each method requires the platform-level outbox capability.
type OutboxService struct {
	repo   shared.OutboxRepository
	logger *zap.Logger
}

// NewOutboxService creates a new outbox service
func NewOutboxService(repo shared.OutboxRepository, logger *zap.Logger) *OutboxService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboxService{
		repo:   repo,
		logger: logger.Named("outbox_admin"),
	}
}

// OutboxEntryDTO is the admin view of an outbox entry. The payload is left out.
type OutboxEntryDTO struct {
	ID            uuid.UUID  `json:"id"`
	TenantID      uuid.UUID  `json:"tenant_id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// OutboxFilter pages the dead letter list
type OutboxFilter struct {
	Page     int `form:"page,omitempty" binding:"omitempty,min=1"`
	PageSize int `form:"page_size,omitempty" binding:"omitempty,min=1,max=100"`
}

func (f OutboxFilter) normalize() (page, pageSize int) {
	page, pageSize = f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultOutboxPageSize
	}
	if pageSize > maxOutboxPageSize {
		pageSize = maxOutboxPageSize
	}
	return page, pageSize
}

// OutboxStatsDTO counts outbox entries by status
type OutboxStatsDTO struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

func (s *OutboxService) begin(ctx context.Context, method string) (context.Context, func(error), error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "outbox", method)
	end := func(err error) {
		telemetry.RecordError(span, err)
		span.End()
	}
	if _, err := appfin.RequireCapability(ctx, appfin.CapOutboxAdminister); err != nil {
		end(err)
		return ctx, nil, err
	}
	return ctx, end, nil
}

// ListDeadLetters returns dead letter entries, oldest first
func (s *OutboxService) ListDeadLetters(ctx context.Context, filter OutboxFilter) (result shared.Paginated[OutboxEntryDTO], err error) {
	ctx, end, err := s.begin(ctx, "list_dead_letters")
	if err != nil {
		return result, err
	}
	defer func() { end(err) }()

	page, pageSize := filter.normalize()
	entries, total, err := s.repo.FindDead(ctx, page, pageSize)
	if err != nil {
		s.logger.Error("Failed to find dead letter entries", zap.Error(err))
		return result, err
	}

	dtos := make([]OutboxEntryDTO, len(entries))
	for i, entry := range entries {
		dtos[i] = toOutboxEntryDTO(entry)
	}
	return shared.NewPaginated(dtos, total, page, pageSize), nil
}

// GetEntry returns a single outbox entry
func (s *OutboxService) GetEntry(ctx context.Context, id uuid.UUID) (_ *OutboxEntryDTO, err error) {
	ctx, end, err := s.begin(ctx, "get_entry")
	if err != nil {
		return nil, err
	}
	defer func() { end(err) }()

	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toOutboxEntryDTO(entry)
	return &dto, nil
}

// RetryDeadEntry moves a dead letter entry back to pending so the relay
// picks it up on its next poll
func (s *OutboxService) RetryDeadEntry(ctx context.Context, id uuid.UUID) (_ *OutboxEntryDTO, err error) {
	ctx, end, err := s.begin(ctx, "retry_dead_entry")
	if err != nil {
		return nil, err
	}
	defer func() { end(err) }()

	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entry.ResetForRetry(); err != nil {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code, err.Error())
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		s.logger.Error("Failed to update outbox entry", zap.Error(err), zap.String("id", id.String()))
		return nil, err
	}

	s.logger.Info("Dead letter entry reset for retry",
		zap.String("id", id.String()),
		zap.String("event_type", entry.EventType),
		zap.String("tenant_id", entry.TenantID.String()),
	)
	dto := toOutboxEntryDTO(entry)
	return &dto, nil
}

// RetryAllDeadEntries resets every dead letter entry and returns how many
// were reset. Reset entries leave the dead set, so the first page is read
// again until it comes back empty.
func (s *OutboxService) RetryAllDeadEntries(ctx context.Context) (count int64, err error) {
	ctx, end, err := s.begin(ctx, "retry_all_dead_entries")
	if err != nil {
		return 0, err
	}
	defer func() { end(err) }()

	for range retryAllMaxBatches {
		entries, _, err := s.repo.FindDead(ctx, 1, retryAllBatchSize)
		if err != nil {
			s.logger.Error("Failed to find dead letter entries", zap.Error(err))
			return count, err
		}
		if len(entries) == 0 {
			break
		}

		reset := 0
		for _, entry := range entries {
			if entry.ResetForRetry() != nil {
				continue
			}
			if err := s.repo.Update(ctx, entry); err != nil {
				s.logger.Error("Failed to update outbox entry", zap.Error(err), zap.String("id", entry.ID.String()))
				continue
			}
			reset++
		}
		count += int64(reset)
		if reset == 0 {
			// Nothing on this page could be reset; reading it again would loop.
			break
		}
	}

	s.logger.Info("Retried dead letter entries", zap.Int64("count", count))
	return count, nil
}

// GetStats counts outbox entries by status
func (s *OutboxService) GetStats(ctx context.Context) (_ *OutboxStatsDTO, err error) {
	ctx, end, err := s.begin(ctx, "get_stats")
	if err != nil {
		return nil, err
	}
	defer func() { end(err) }()

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("Failed to get outbox stats", zap.Error(err))
		return nil, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	return &OutboxStatsDTO{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
		Total:      total,
	}, nil
}

func toOutboxEntryDTO(entry *shared.OutboxEntry) OutboxEntryDTO {
	return OutboxEntryDTO{
		ID:            entry.ID,
		TenantID:      entry.TenantID,
		EventID:       entry.EventID,
		EventType:     entry.EventType,
		AggregateID:   entry.AggregateID,
		AggregateType: entry.AggregateType,
		Status:        string(entry.Status),
		RetryCount:    entry.RetryCount,
		MaxRetries:    entry.MaxRetries,
		LastError:     entry.LastError,
		NextRetryAt:   entry.NextRetryAt,
		ProcessedAt:   entry.ProcessedAt,
		CreatedAt:     entry.CreatedAt,
		UpdatedAt:     entry.UpdatedAt,
	}
}
