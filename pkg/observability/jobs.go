package observability

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Scheduler runs periodic maintenance jobs on a cron schedule
type Scheduler struct {
	cron   *cron.Cron
	logger *Logger
}

// NewScheduler creates a scheduler. Schedules use the standard five-field
// cron syntax plus descriptors such as "@every 1m".
func NewScheduler(logger *Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// Add registers a named job. A panicking job is logged and does not stop
// the scheduler.
func (s *Scheduler) Add(schedule, name string, job func()) error {
	_, err := s.cron.AddFunc(schedule, func() {
		defer RecoverPanic(s.logger, "scheduled job "+name)
		s.logger.WithField("job", name).Debug("Running scheduled job")
		job()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	return nil
}

// Len returns the number of registered jobs
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Infof("Scheduler started with %d jobs", s.Len())
}

// Stop stops scheduling and waits for running jobs or ctx, whichever is first
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
