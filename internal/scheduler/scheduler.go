// Package scheduler runs analysis batches on cron expressions.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/set-point/internal/config"
)

// RunFunc executes one scheduled analysis batch
type RunFunc func(ctx context.Context) error

// Scheduler manages scheduled batch runs
type Scheduler struct {
	cron   *cron.Cron
	run    RunFunc
	logger *logrus.Logger

	mu        sync.RWMutex
	isRunning bool
	jobIDs    []cron.EntryID
	// batchTimeout bounds one scheduled run; overlapping fires are skipped
	batchTimeout time.Duration
	inFlight     bool
}

// NewScheduler creates a scheduler that invokes run on each cron fire
func NewScheduler(run RunFunc, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:         cron.New(cron.WithLocation(time.UTC)),
		run:          run,
		logger:       logger,
		jobIDs:       make([]cron.EntryID, 0),
		batchTimeout: 2 * time.Hour,
	}
}

// ScheduleFromConfig registers every cron expression from configuration
func (s *Scheduler) ScheduleFromConfig(cfg *config.SchedulerConfig) error {
	for _, expr := range cfg.RunCrons {
		if err := s.ScheduleRun(expr); err != nil {
			return err
		}
	}
	return nil
}

// ScheduleRun registers one batch run on a cron expression
func (s *Scheduler) ScheduleRun(cronExpression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	jobFunc := func() {
		if !s.beginRun() {
			s.logger.Warn("Previous scheduled batch still running, skipping this fire")
			return
		}
		defer s.endRun()

		ctx, cancel := context.WithTimeout(context.Background(), s.batchTimeout)
		defer cancel()

		s.logger.WithField("cron", cronExpression).Info("Starting scheduled batch run")
		if err := s.run(ctx); err != nil {
			s.logger.WithField("error", err.Error()).Error("Scheduled batch run failed")
			return
		}
		s.logger.Info("Scheduled batch run completed")
	}

	entryID, err := s.cron.AddFunc(cronExpression, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron", cronExpression).Info("Scheduled batch run")
	return nil
}

func (s *Scheduler) beginRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return false
	}
	s.inFlight = true
	return true
}

func (s *Scheduler) endRun() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running batch
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")
	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled batch run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}
	return nextRun
}
