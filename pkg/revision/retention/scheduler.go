package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled evaluation: load the input, evaluate it and report.
type Job func(ctx context.Context) (*Result, error)

// Scheduler re-runs a Job on a cron schedule (e.g., hourly).
// Every run starts from scratch; nothing is carried between runs.
type Scheduler struct {
	schedule string
	job      Job
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
	lastErr  error
}

// NewScheduler creates a scheduler for job. An empty schedule makes Start a no-op.
func NewScheduler(schedule string, job Job) *Scheduler {
	return &Scheduler{
		schedule: schedule,
		job:      job,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "revision.scheduler"),
	}
}

// Start registers the job with the cron expression and starts the scheduler.
//
// Common cron expressions:
//   - "0 * * * *"    - Hourly
//   - "0 3 * * *"    - Daily at 3 AM
//   - "0 0 * * 0"    - Weekly on Sunday at midnight
//
// The scheduler stops by itself when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.RunNow(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule evaluation: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("retention scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunNow executes the job immediately and logs its outcome.
func (s *Scheduler) RunNow(ctx context.Context) {
	s.logger.Info("starting scheduled retention evaluation")

	res, err := s.job(ctx)

	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled evaluation failed", "error", err)
		return
	}

	if res != nil && res.Decision.Len() > 0 {
		s.logger.Info("scheduled evaluation completed",
			"evaluated", res.Evaluated(),
			"removed", res.Decision.Len(),
		)
	} else {
		s.logger.Debug("scheduled evaluation completed, nothing to remove")
	}
}

// Stop stops the scheduler and waits for a running job to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	// RunNow takes s.mu, so wait for the job outside the lock.
	<-s.cron.Stop().Done()
	s.logger.Info("retention scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// LastError returns the error of the most recent run, if any.
func (s *Scheduler) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastErr
}

// NextRun returns the next scheduled evaluation time.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
