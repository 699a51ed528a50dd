package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tailtown/internal/jobs"
	"tailtown/internal/metrics"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const (
	JobExpirePending      = "expire-pending-reservations"
	JobCompleteCheckedOut = "complete-checked-out-reservations"
	JobWarmTenantCache    = "warm-tenant-cache"
)

// Intervals controls how often each maintenance job runs. Zero disables a job.
type Intervals struct {
	ExpirePending      time.Duration
	CompleteCheckedOut time.Duration
	WarmTenantCache    time.Duration
}

// DefaultIntervals are used by the server binary.
var DefaultIntervals = Intervals{
	ExpirePending:      15 * time.Minute,
	CompleteCheckedOut: time.Hour,
	WarmTenantCache:    4 * time.Minute,
}

// JobScheduler manages background jobs for distributed environment
type JobScheduler struct {
	scheduler   gocron.Scheduler
	maintenance *jobs.Maintenance
	log         *zap.Logger
	jobs        map[string]gocron.Job
	mu          sync.RWMutex
}

// NewJobScheduler creates a new job scheduler and registers the maintenance jobs.
func NewJobScheduler(maintenance *jobs.Maintenance, intervals Intervals, log *zap.Logger) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler:   scheduler,
		maintenance: maintenance,
		log:         log,
		jobs:        make(map[string]gocron.Job),
	}

	if err := js.registerJobs(intervals); err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	js.log.Info("starting background job scheduler", zap.Int("jobs", len(js.jobs)))
	js.scheduler.Start()
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	js.log.Info("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs(intervals Intervals) error {
	specs := []struct {
		name     string
		interval time.Duration
		run      func(context.Context) (*jobs.SweepResult, error)
	}{
		{JobExpirePending, intervals.ExpirePending, js.maintenance.ExpirePendingReservations},
		{JobCompleteCheckedOut, intervals.CompleteCheckedOut, js.maintenance.CompleteCheckedOutReservations},
		{JobWarmTenantCache, intervals.WarmTenantCache, js.maintenance.WarmTenantCache},
	}

	for _, spec := range specs {
		if spec.interval <= 0 {
			continue
		}
		if err := js.AddJob(spec.name, spec.interval, js.wrap(spec.name, spec.interval, spec.run)); err != nil {
			return fmt.Errorf("failed to create %s job: %w", spec.name, err)
		}
	}
	return nil
}

// wrap bounds each run by its interval and records its duration.
func (js *JobScheduler) wrap(name string, interval time.Duration, run func(context.Context) (*jobs.SweepResult, error)) func() {
	return func() {
		defer metrics.TrackJob(name)(time.Now())
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()
		if _, err := run(ctx); err != nil {
			js.log.Error("background job failed", zap.String("job", name), zap.Error(err))
		}
	}
}

// AddJob adds a job to the scheduler. Runs of the same job never overlap.
func (js *JobScheduler) AddJob(name string, interval time.Duration, task func()) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}
	js.jobs[name] = job
	return nil
}

// RemoveJob removes a job from the scheduler
func (js *JobScheduler) RemoveJob(name string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobs[name]; exists {
		err := js.scheduler.RemoveJob(job.ID())
		delete(js.jobs, name)
		return err
	}
	return nil
}

// JobNames lists the registered jobs.
func (js *JobScheduler) JobNames() []string {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	return names
}
