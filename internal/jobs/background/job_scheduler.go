package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stockpilot/internal/analytics"
	"stockpilot/internal/repositories"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	dashboardWarmupInterval = 15 * time.Minute
	maxConcurrentWarmups    = 5
)

// AlertSweeper runs the tenant-wide reorder alert sweep.
// jobs.ReorderAlertService satisfies it.
type AlertSweeper interface {
	SweepAllTenants(ctx context.Context) error
}

// JobScheduler owns the recurring background work: the reorder alert sweep
// and a dashboard cache warmup. Both are singleton jobs so a slow run is
// rescheduled rather than stacked.
type JobScheduler struct {
	scheduler     gocron.Scheduler
	sweeper       AlertSweeper
	dashboards    analytics.DashboardService
	tenantRepo    repositories.TenantRepository
	sweepInterval time.Duration
	log           *logrus.Logger
	jobs          map[string]gocron.Job
	mu            sync.RWMutex
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(sweeper AlertSweeper, dashboards analytics.DashboardService, tenantRepo repositories.TenantRepository, sweepInterval time.Duration, log *logrus.Logger) (*JobScheduler, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler:     scheduler,
		sweeper:       sweeper,
		dashboards:    dashboards,
		tenantRepo:    tenantRepo,
		sweepInterval: sweepInterval,
		log:           log,
		jobs:          make(map[string]gocron.Job),
	}

	if err := js.registerJobs(); err != nil {
		return nil, err
	}

	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	js.log.WithField("jobs", len(js.jobs)).Info("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler and waits for running jobs
func (js *JobScheduler) Stop() error {
	js.log.Info("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() error {
	js.mu.Lock()
	defer js.mu.Unlock()

	sweepJob, err := js.scheduler.NewJob(
		gocron.DurationJob(js.sweepInterval),
		gocron.NewTask(js.runAlertSweep),
		gocron.WithName("reorder-alert-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("create reorder alert sweep job: %w", err)
	}
	js.jobs["reorder-alert-sweep"] = sweepJob

	warmupJob, err := js.scheduler.NewJob(
		gocron.DurationJob(dashboardWarmupInterval),
		gocron.NewTask(js.warmDashboards),
		gocron.WithName("dashboard-warmup"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("create dashboard warmup job: %w", err)
	}
	js.jobs["dashboard-warmup"] = warmupJob

	return nil
}

func (js *JobScheduler) runAlertSweep() {
	ctx := context.Background()

	js.log.Debug("Running reorder alert sweep")
	if err := js.sweeper.SweepAllTenants(ctx); err != nil {
		js.log.WithError(err).Warn("Reorder alert sweep failed")
	}
}

// warmDashboards recomputes each active tenant's dashboard so the first
// request after a cache expiry does not pay the aggregation cost.
func (js *JobScheduler) warmDashboards() {
	ctx := context.Background()

	tenants, err := js.tenantRepo.ListActive(ctx)
	if err != nil {
		js.log.WithError(err).Warn("Dashboard warmup could not list tenants")
		return
	}

	semaphore := make(chan struct{}, maxConcurrentWarmups)
	var wg sync.WaitGroup

	for _, tenant := range tenants {
		wg.Add(1)
		go func(tenantID uuid.UUID) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if _, err := js.dashboards.Metrics(ctx, tenantID, 0); err != nil {
				js.log.WithError(err).WithField("tenant_id", tenantID).Warn("Dashboard warmup failed for tenant")
			}
		}(tenant.ID)
	}

	wg.Wait()
	js.log.WithField("tenants", len(tenants)).Debug("Dashboard warmup completed")
}
