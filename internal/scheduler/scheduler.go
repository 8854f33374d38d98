package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"contact-triage-go/internal/config"
	"contact-triage-go/internal/metrics"
)

// Job is a unit of periodic work
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Scheduler runs the registered jobs every configured interval
type Scheduler struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	config    *config.SchedulerConfig
	jobs      []Job
	metrics   *metrics.Metrics
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.RWMutex
	runMu     sync.Mutex
}

// NewScheduler creates a new scheduler
func NewScheduler(cfg *config.SchedulerConfig, m *metrics.Metrics, jobs ...Job) *Scheduler {
	return &Scheduler{
		config:  cfg,
		jobs:    jobs,
		metrics: m,
	}
}

// Start starts the scheduler. A stopped scheduler can be started again.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron = cron.New(cron.WithSeconds())

	schedule := fmt.Sprintf("0 */%d * * * *", s.config.IntervalMinutes)
	entryID, err := s.cron.AddFunc(schedule, s.runJobs)
	if err != nil {
		s.cancel()
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	logrus.Infof("Scheduler started with interval: %d minutes", s.config.IntervalMinutes)
	return nil
}

// Stop stops the scheduler and waits up to 30 seconds for a running cycle
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.cancel()
	ctx := s.cron.Stop()
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		logrus.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Scheduler stop timeout, forcing shutdown")
	}
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *Scheduler) runJobs() {
	s.mu.RLock()
	if !s.isRunning {
		s.mu.RUnlock()
		logrus.Info("Scheduler not running, skipping cycle")
		return
	}
	ctx := s.ctx
	s.mu.RUnlock()

	s.runAll(ctx)
}

// runAll executes every job in order. Cycles never overlap.
func (s *Scheduler) runAll(ctx context.Context) error {
	s.wg.Add(1)
	defer s.wg.Done()
	s.runMu.Lock()
	defer s.runMu.Unlock()

	var firstErr error
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		start := time.Now()
		log := logrus.WithField("job", job.Name)
		log.Info("Starting scheduled job")

		if err := job.Run(ctx); err != nil {
			s.metrics.SchedulerRuns.WithLabelValues(job.Name, "failure").Inc()
			log.WithError(err).Error("Scheduled job failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("job %s: %w", job.Name, err)
			}
			continue
		}

		s.metrics.SchedulerRuns.WithLabelValues(job.Name, "success").Inc()
		log.Infof("Scheduled job completed in %v", time.Since(start))
	}
	return firstErr
}

// RunOnce runs every job immediately
func (s *Scheduler) RunOnce(ctx context.Context) error {
	logrus.Info("Running scheduled jobs once")
	return s.runAll(ctx)
}

// GetNextRun returns the time of the next scheduled run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// GetLastRun returns the time of the last scheduled run
func (s *Scheduler) GetLastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Prev
}

// Wait waits for in-flight job cycles to finish
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
