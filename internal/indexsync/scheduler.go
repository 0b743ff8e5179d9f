package indexsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs a full sync every half hour.
const DefaultSchedule = "@every 30m"

// Scheduler triggers full syncs on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	job       *Job
	schedule  string
	onStartup bool
	logger    *slog.Logger
}

// NewScheduler creates a scheduler for job. When onStartup is set, one sync
// also runs as soon as the scheduler starts.
func NewScheduler(job *Job, schedule string, onStartup bool, logger *slog.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Scheduler{
		cron:      cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger))),
		job:       job,
		schedule:  schedule,
		onStartup: onStartup,
		logger:    logger,
	}
}

// Start registers the sync and starts the cron loop. It does not block.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("schedule index sync %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("index sync scheduler started", slog.String("schedule", s.schedule))

	if s.onStartup {
		go s.run(ctx)
	}
	return nil
}

// Stop halts the cron loop and waits for a running sync to finish or ctx to
// expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.logger.Info("index sync scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	if _, err := s.job.Run(ctx); errors.Is(err, ErrSyncInProgress) {
		s.logger.InfoContext(ctx, "scheduled index sync skipped, a sync is already running")
	}
}
