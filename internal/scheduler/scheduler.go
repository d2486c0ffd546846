// Package scheduler runs the current-season refresh on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler triggers a Job on a cron expression in a fixed timezone.
type Scheduler struct {
	cron       *gocron.Scheduler
	spec       string
	job        Job
	runOnStart bool
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Scheduler. The job is not registered until Start.
func New(spec string, loc *time.Location, runOnStart bool, job Job, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	cron := gocron.NewScheduler(loc)
	cron.SingletonModeAll()
	return &Scheduler{
		cron:       cron,
		spec:       spec,
		job:        job,
		runOnStart: runOnStart,
		logger:     logger.With("component", "scheduler"),
	}
}

// Start registers the job and begins scheduling. Jobs receive a context
// derived from ctx that is cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	if _, err := s.cron.Cron(s.spec).Do(s.run, "scheduled"); err != nil {
		s.cancel()
		return fmt.Errorf("schedule %q: %w", s.spec, err)
	}
	s.cron.StartAsync()
	s.logger.Info("scheduler started", "schedule", s.spec, "next_run", s.NextRun())

	if s.runOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.run("startup")
		}()
	}
	return nil
}

func (s *Scheduler) run(trigger string) {
	if s.ctx.Err() != nil {
		return
	}
	started := time.Now()
	s.logger.Info("job started", "trigger", trigger)
	err := s.job(s.ctx)
	switch {
	case err == nil:
		s.logger.Info("job finished", "trigger", trigger, "duration", time.Since(started))
	case errors.Is(err, context.Canceled):
		s.logger.Info("job cancelled", "trigger", trigger)
	default:
		s.logger.Error("job failed", "trigger", trigger, "duration", time.Since(started), "error", err)
	}
}

// NextRun reports when the job fires next.
func (s *Scheduler) NextRun() time.Time {
	_, next := s.cron.NextRun()
	return next
}

// Stop cancels running jobs, stops scheduling and waits for a startup run to return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.cron.Stop()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}
