package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/accounting/internal/domain/finance"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PeriodService manages the accounting period lifecycle
type PeriodService struct {
	serviceBase
}

// NewPeriodService creates a new PeriodService
func NewPeriodService(deps ServiceDeps) *PeriodService {
	return &PeriodService{serviceBase: newServiceBase("period", deps)}
}

// Create opens a new period. The range must not overlap any existing period
// of the tenant; the candidate rows are locked while the check runs.
func (s *PeriodService) Create(ctx context.Context, tenantID uuid.UUID, req CreatePeriodRequest) (*PeriodResponse, error) {
	ctx, span, principal, err := s.begin(ctx, "create", tenantID, CapPeriodCreate)
	defer span.End()
	if err != nil {
		return nil, err
	}
	if err := ValidateRequest(req); err != nil {
		return nil, s.fail(span, err)
	}

	period, err := finance.NewAccountingPeriod(tenantID, req.Name, req.StartDate, req.EndDate, req.FiscalYear)
	if err != nil {
		return nil, s.fail(span, err)
	}
	period.SetCreatedBy(actorID(principal))

	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		overlapping, err := repos.Periods().FindOverlapping(ctx, tenantID, period.StartDate, period.EndDate)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return shared.NewDomainError("PERIOD_OVERLAP", fmt.Sprintf(
				"Period overlaps existing period %s (%s to %s)",
				overlapping[0].Name,
				overlapping[0].StartDate.Format(time.DateOnly),
				overlapping[0].EndDate.Format(time.DateOnly)))
		}
		if err := repos.Periods().Save(ctx, period); err != nil {
			return err
		}
		events, err = collectEvents(ctx, repos, period)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	s.commit(ctx, events)

	s.logger.Info("accounting period created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("period_id", period.ID.String()),
		zap.String("name", period.Name),
	)
	resp := ToPeriodResponse(period)
	return &resp, nil
}

// Close stops the period from accepting postings
func (s *PeriodService) Close(ctx context.Context, tenantID, periodID uuid.UUID) (*PeriodResponse, error) {
	return s.transition(ctx, "close", CapPeriodClose, tenantID, periodID, func(p *finance.AccountingPeriod, by uuid.UUID) error {
		return p.Close(by)
	})
}

// Lock makes a closed period permanent
func (s *PeriodService) Lock(ctx context.Context, tenantID, periodID uuid.UUID) (*PeriodResponse, error) {
	return s.transition(ctx, "lock", CapPeriodLock, tenantID, periodID, func(p *finance.AccountingPeriod, by uuid.UUID) error {
		return p.Lock(by)
	})
}

func (s *PeriodService) transition(
	ctx context.Context,
	method string,
	capability Capability,
	tenantID, periodID uuid.UUID,
	apply func(*finance.AccountingPeriod, uuid.UUID) error,
) (*PeriodResponse, error) {
	ctx, span, principal, err := s.begin(ctx, method, tenantID, capability)
	defer span.End()
	if err != nil {
		return nil, err
	}

	var period *finance.AccountingPeriod
	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		period, err = repos.Periods().FindByIDForUpdate(ctx, tenantID, periodID)
		if err != nil {
			return err
		}
		if err := apply(period, actorID(principal)); err != nil {
			return err
		}
		if err := repos.Periods().Save(ctx, period); err != nil {
			return err
		}
		events, err = collectEvents(ctx, repos, period)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	s.commit(ctx, events)

	s.logger.Info("accounting period status changed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("period_id", periodID.String()),
		zap.String("status", period.Status.String()),
	)
	resp := ToPeriodResponse(period)
	return &resp, nil
}

// Get returns a period by ID
func (s *PeriodService) Get(ctx context.Context, tenantID, periodID uuid.UUID) (*PeriodResponse, error) {
	ctx, span, _, err := s.begin(ctx, "get", tenantID, CapPeriodRead)
	defer span.End()
	if err != nil {
		return nil, err
	}

	var period *finance.AccountingPeriod
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		period, err = repos.Periods().FindByID(ctx, tenantID, periodID)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	resp := ToPeriodResponse(period)
	return &resp, nil
}

// FindForDate returns the period covering date
func (s *PeriodService) FindForDate(ctx context.Context, tenantID uuid.UUID, date time.Time) (*PeriodResponse, error) {
	ctx, span, _, err := s.begin(ctx, "find_for_date", tenantID, CapPeriodRead)
	defer span.End()
	if err != nil {
		return nil, err
	}

	var period *finance.AccountingPeriod
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		period, err = repos.Periods().FindCovering(ctx, tenantID, date)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	resp := ToPeriodResponse(period)
	return &resp, nil
}

// List returns periods matching the request
func (s *PeriodService) List(ctx context.Context, tenantID uuid.UUID, req ListPeriodsRequest) (*shared.Paginated[PeriodResponse], error) {
	ctx, span, _, err := s.begin(ctx, "list", tenantID, CapPeriodRead)
	defer span.End()
	if err != nil {
		return nil, err
	}
	if err := ValidateRequest(req); err != nil {
		return nil, s.fail(span, err)
	}

	filter := finance.AccountingPeriodFilter{
		Filter:     toFilter(req.Page, req.PageSize, ""),
		FiscalYear: req.FiscalYear,
	}
	filter.OrderBy = "start_date"
	if req.Status != "" {
		status := finance.PeriodStatus(req.Status)
		filter.Status = &status
	}

	var periods []finance.AccountingPeriod
	var total int64
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		periods, total, err = repos.Periods().FindAll(ctx, tenantID, filter)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	page := shared.NewPaginated(mapSlice(periods, ToPeriodResponse), total, filter.Page, filter.PageSize)
	return &page, nil
}
