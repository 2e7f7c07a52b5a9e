// Package monitorsched runs the SLA monitor sweep on a cron schedule.
package monitorsched

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/caredesk/slaflow/pkg/sla"
)

// DefaultSchedule sweeps every minute, matching the timer math's
// minute granularity.
const DefaultSchedule = "@every 1m"

// Scheduler drives Monitor.Sweep on a cron expression. Overlapping
// sweeps are harmless (the sweep is idempotent) but DelayIfStillRunning
// keeps them sequential so a slow store does not stack goroutines.
type Scheduler struct {
	monitor  *sla.Monitor
	cron     *cron.Cron
	schedule string
	logger   *slog.Logger
}

func NewScheduler(monitor *sla.Monitor, schedule string, logger *slog.Logger) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule: %w", err)
	}

	return &Scheduler{
		monitor:  monitor,
		schedule: schedule,
		logger:   logger.With("module", "monitor_scheduler", "schedule", schedule),
	}, nil
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.cron != nil {
		return errors.New("scheduler already started")
	}

	s.cron = cron.New(cron.WithChain(
		cron.DelayIfStillRunning(cron.DiscardLogger),
	))

	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.monitor.Sweep(ctx); err != nil {
			s.logger.ErrorContext(ctx, "Sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "Monitor scheduler started")

	return nil
}

// Stop halts scheduling and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}

	stopCtx := s.cron.Stop()

	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}

	s.logger.InfoContext(ctx, "Monitor scheduler stopped")
}
