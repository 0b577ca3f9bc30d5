package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"NewsScanner/internal/domain"
	"NewsScanner/internal/ports"
)

// Runner is the pipeline surface the scheduler and the manual trigger drive.
type Runner interface {
	Run(ctx context.Context) (domain.RunReport, error)
}

// Scheduler wires the cron driver with the pipeline use case. Runs never
// overlap: a trigger that arrives while a run is in progress is dropped.
type Scheduler struct {
	driver ports.Scheduler
	runner Runner
	logger *zap.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, runner Runner, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{driver: driver, runner: runner, logger: logger}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.runner == nil {
		return nil
	}

	return s.driver.Start(ctx, func(trigger time.Time) {
		_, err := s.RunOnce(ctx)
		switch {
		case errors.Is(err, ErrRunInProgress):
			s.logger.Info("scheduled run skipped, previous run still in progress", zap.Time("trigger", trigger))
		case err != nil:
			s.logger.Error("scheduled run failed", zap.Time("trigger", trigger), zap.Error(err))
		}
	})
}

// RunOnce executes a single run unless one is already in progress, in which
// case it returns ErrRunInProgress.
func (s *Scheduler) RunOnce(ctx context.Context) (domain.RunReport, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return domain.RunReport{}, ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	return s.runner.Run(ctx)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
