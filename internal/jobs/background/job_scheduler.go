package background

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"bizmanager/internal/jobs"
	"bizmanager/internal/observability/metrics"

	"github.com/go-co-op/gocron/v2"
)

const (
	ReorderCheckJob = "reorder-check"
	ExpiryCheckJob  = "expiry-check"
)

type Config struct {
	ReorderCheckInterval time.Duration
	ExpiryCheckInterval  time.Duration
	ExpiryWindow         time.Duration
}

// JobScheduler runs the periodic inventory sweeps. Every job runs in
// singleton mode so a slow sweep is never overlapped by the next one.
type JobScheduler struct {
	scheduler gocron.Scheduler
	alerts    *jobs.InventoryAlertService
	logger    *slog.Logger
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewJobScheduler(alerts *jobs.InventoryAlertService, cfg Config, logger *slog.Logger) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	js := &JobScheduler{
		ctx:       ctx,
		cancel:    cancel,
		scheduler: scheduler,
		alerts:    alerts,
		logger:    logger.With("component", "scheduler"),
		jobs:      make(map[string]gocron.Job),
	}

	if err := js.AddJob(ReorderCheckJob, cfg.ReorderCheckInterval, alerts.RunReorderCheck); err != nil {
		cancel()
		return nil, err
	}
	window := cfg.ExpiryWindow
	if err := js.AddJob(ExpiryCheckJob, cfg.ExpiryCheckInterval, func(ctx context.Context) error {
		return alerts.RunExpiryCheck(ctx, window)
	}); err != nil {
		cancel()
		return nil, err
	}

	js.logger.Info("registered background jobs", "count", len(js.jobs))
	return js, nil
}

func (js *JobScheduler) Start() {
	js.logger.Info("starting background job scheduler")
	js.scheduler.Start()
}

// Shutdown waits for running jobs to finish.
func (js *JobScheduler) Shutdown() error {
	js.logger.Info("stopping background job scheduler")
	js.cancel()
	return js.scheduler.Shutdown()
}

// AddJob schedules fn every interval under name. The context handed to fn
// is cancelled when the scheduler shuts down.
func (js *JobScheduler) AddJob(name string, interval time.Duration, fn func(ctx context.Context) error) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	js.mu.Lock()
	defer js.mu.Unlock()

	if _, exists := js.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(js.instrument(name, fn), js.ctx),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", name, err)
	}
	js.jobs[name] = job
	return nil
}

func (js *JobScheduler) instrument(name string, fn func(ctx context.Context) error) func(ctx context.Context) {
	return func(ctx context.Context) {
		start := time.Now()
		if err := fn(ctx); err != nil {
			metrics.ObserveJobRun(name, "error")
			js.logger.ErrorContext(ctx, "job failed", "job", name, "duration", time.Since(start), "error", err)
			return
		}
		metrics.ObserveJobRun(name, "success")
		js.logger.DebugContext(ctx, "job completed", "job", name, "duration", time.Since(start))
	}
}

func (js *JobScheduler) RemoveJob(name string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, exists := js.jobs[name]
	if !exists {
		return nil
	}
	delete(js.jobs, name)
	return js.scheduler.RemoveJob(job.ID())
}

// RunNow triggers an immediate run of a registered job.
func (js *JobScheduler) RunNow(name string) error {
	js.mu.RLock()
	job, exists := js.jobs[name]
	js.mu.RUnlock()
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}
	return job.RunNow()
}

type JobStatus struct {
	Name    string    `json:"name"`
	LastRun time.Time `json:"last_run,omitzero"`
	NextRun time.Time `json:"next_run,omitzero"`
}

// GetJobStatus returns the registered jobs sorted by name.
func (js *JobScheduler) GetJobStatus() []JobStatus {
	js.mu.RLock()
	defer js.mu.RUnlock()

	statuses := make([]JobStatus, 0, len(js.jobs))
	for name, job := range js.jobs {
		s := JobStatus{Name: name}
		if t, err := job.LastRun(); err == nil {
			s.LastRun = t
		}
		if t, err := job.NextRun(); err == nil {
			s.NextRun = t
		}
		statuses = append(statuses, s)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}
