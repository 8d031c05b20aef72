package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appfin "github.com/erp/accounting/internal/application/finance"
	"github.com/erp/accounting/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// JobStatus represents the status of a per-tenant sweep job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is one tenant's share of an overdue sweep
type Job struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	AsOf        time.Time
	Status      JobStatus
	Marked      int
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// NewJob creates a pending job
func NewJob(tenantID uuid.UUID, asOf time.Time) *Job {
	return &Job{
		ID:       uuid.New(),
		TenantID: tenantID,
		AsOf:     asOf,
		Status:   JobStatusPending,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete(marked int) {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.Marked = marked
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// TenantProvider lists the tenants the sweep should visit
type TenantProvider interface {
	TenantIDsWithSentInvoices(ctx context.Context, asOf time.Time) ([]uuid.UUID, error)
}

// OverdueMarker marks a tenant's past-due invoices overdue
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (int, error)
}

// Config holds overdue sweep configuration
type Config struct {
	Enabled bool

	// Hour and Minute are the UTC time of day of the daily sweep
	Hour   int
	Minute int

	// CheckInterval is how often the loop checks whether it is time to run
	CheckInterval time.Duration

	// JobTimeout bounds a single tenant's sweep
	JobTimeout time.Duration

	MaxConcurrentJobs int
}

// DefaultConfig returns the default sweep configuration
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		Hour:              1,
		Minute:            0,
		CheckInterval:     time.Minute,
		JobTimeout:        5 * time.Minute,
		MaxConcurrentJobs: 4,
	}
}

// ConfigFrom converts the application scheduler settings
func ConfigFrom(cfg config.SchedulerConfig) (Config, error) {
	c := DefaultConfig()
	c.Enabled = cfg.Enabled
	if cfg.OverdueCheckTime != "" {
		at, err := time.Parse("15:04", cfg.OverdueCheckTime)
		if err != nil {
			return Config{}, fmt.Errorf("%w: overdue check time %q", ErrInvalidConfig, cfg.OverdueCheckTime)
		}
		c.Hour, c.Minute = at.Hour(), at.Minute()
	}
	if cfg.JobTimeout > 0 {
		c.JobTimeout = cfg.JobTimeout
	}
	return c, nil
}

// SweepResult summarizes one run over every tenant
type SweepResult struct {
	AsOf   time.Time
	Jobs   []*Job
	Marked int
	Failed int
}

// OverdueScheduler runs the daily overdue invoice sweep. Each tenant is
// swept under its own system principal and timeout, so a slow or failing
// tenant never blocks the others.
type OverdueScheduler struct {
	config  Config
	tenants TenantProvider
	marker  OverdueMarker
	logger  *zap.Logger
	now     func() time.Time

	mu          sync.Mutex
	lastRunDate string
}

// NewOverdueScheduler creates a new overdue scheduler
func NewOverdueScheduler(cfg Config, tenants TenantProvider, marker OverdueMarker, logger *zap.Logger) *OverdueScheduler {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Minute
	}
	if cfg.MaxConcurrentJobs <= 0 {
		cfg.MaxConcurrentJobs = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverdueScheduler{
		config:  cfg,
		tenants: tenants,
		marker:  marker,
		logger:  logger.Named("overdue_scheduler"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run checks the clock every CheckInterval and sweeps once per UTC day at
// the configured time. It blocks until ctx is cancelled.
func (s *OverdueScheduler) Run(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Overdue scheduler disabled")
		return nil
	}

	s.logger.Info("Overdue scheduler started",
		zap.Int("hour", s.config.Hour),
		zap.Int("minute", s.config.Minute),
		zap.Duration("check_interval", s.config.CheckInterval),
	)

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Overdue scheduler stopped")
			return nil
		case <-ticker.C:
			s.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger sweeps when the current minute matches and today has not run yet
func (s *OverdueScheduler) checkAndTrigger(ctx context.Context) bool {
	now := s.now()
	today := now.Format("2006-01-02")

	s.mu.Lock()
	if s.lastRunDate == today || now.Hour() != s.config.Hour || now.Minute() != s.config.Minute {
		s.mu.Unlock()
		return false
	}
	s.lastRunDate = today
	s.mu.Unlock()

	if _, err := s.RunOnce(ctx, now); err != nil {
		s.logger.Error("Overdue sweep failed", zap.Error(err))
	}
	return true
}

// RunOnce sweeps every tenant with sent invoices due before asOf.
// Per-tenant failures are recorded on their job; only a failure to list
// tenants is returned.
func (s *OverdueScheduler) RunOnce(ctx context.Context, asOf time.Time) (*SweepResult, error) {
	tenantIDs, err := s.tenants.TenantIDsWithSentInvoices(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}

	result := &SweepResult{AsOf: asOf, Jobs: make([]*Job, len(tenantIDs))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrentJobs)
	for i, tenantID := range tenantIDs {
		job := NewJob(tenantID, asOf)
		result.Jobs[i] = job
		g.Go(func() error {
			s.execute(gctx, job)
			return nil
		})
	}
	_ = g.Wait()

	for _, job := range result.Jobs {
		if job.Status == JobStatusFailed {
			result.Failed++
			continue
		}
		result.Marked += job.Marked
	}

	s.logger.Info("Overdue sweep completed",
		zap.Time("as_of", asOf),
		zap.Int("tenants", len(tenantIDs)),
		zap.Int("marked", result.Marked),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *OverdueScheduler) execute(ctx context.Context, job *Job) {
	job.Start()

	ctx = appfin.ContextWithPrincipal(ctx, appfin.SystemPrincipal(job.TenantID))
	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()
	}

	marked, err := s.marker.MarkOverdue(ctx, job.TenantID, job.AsOf)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", ErrSweepTimeout, err)
		}
		job.Fail(err.Error())
		s.logger.Warn("Overdue sweep failed for tenant",
			zap.String("tenant_id", job.TenantID.String()),
			zap.Error(err),
		)
		return
	}
	job.Complete(marked)
}
