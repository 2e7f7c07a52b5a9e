package sla

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/otelhelper"
	"github.com/caredesk/slaflow/pkg/persistence"
	"github.com/caredesk/slaflow/pkg/protocol"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TickHandler receives one callback per running timer each sweep, with
// the percentage of target time still remaining. The dispatcher uses it
// to fire time_scheduler workflows.
type TickHandler interface {
	OnTimerTick(ctx context.Context, timer *models.SLATimer, percentRemaining float64)
}

// MonitorDeps bundles the monitor's collaborators.
type MonitorDeps struct {
	Manager     *Manager
	Timers      persistence.TimerRepository
	Policies    persistence.PolicyRepository
	Breaches    persistence.BreachRepository
	Escalations persistence.EscalationRepository
	Tickets     protocol.TicketStore
	Notifier    protocol.NotificationSink
	Ticks       TickHandler                      // optional
	Tracer      trace.Tracer                     // optional
}

// Monitor periodically sweeps running timers, firing threshold
// escalations and recording breaches. Sweeps are idempotent: the
// Level1/Level2 stamps and the breached status guard against duplicate
// notifications and duplicate breach rows, so the sweep is safe to run
// on a fixed interval and to retry after transient store failures.
type Monitor struct {
	manager     *Manager
	timers      persistence.TimerRepository
	policies    persistence.PolicyRepository
	breaches    persistence.BreachRepository
	escalations persistence.EscalationRepository
	tickets     protocol.TicketStore
	notifier    protocol.NotificationSink
	ticks       TickHandler
	tracer      trace.Tracer
	logger      *slog.Logger
	now         func() time.Time
}

// NewMonitor creates an SLA monitor.
func NewMonitor(deps MonitorDeps, logger *slog.Logger) *Monitor {
	return &Monitor{
		manager:     deps.Manager,
		timers:      deps.Timers,
		policies:    deps.Policies,
		breaches:    deps.Breaches,
		escalations: deps.Escalations,
		tickets:     deps.Tickets,
		notifier:    deps.Notifier,
		ticks:       deps.Ticks,
		tracer:      deps.Tracer,
		logger:      logger.With("module", "sla_monitor"),
		now:         time.Now,
	}
}

// WithTicks sets the per-timer sweep callback. The monitor and the
// dispatcher reference each other, so the tick handler is attached
// after construction.
func (mo *Monitor) WithTicks(ticks TickHandler) *Monitor {
	mo.ticks = ticks

	return mo
}

// Sweep checks every running timer once. Per-timer failures are logged
// and skipped; the next sweep retries them.
func (mo *Monitor) Sweep(ctx context.Context) error {
	if mo.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, mo.tracer, "sla.sweep")
		defer span.End()
	}

	running, err := mo.timers.Running(ctx)
	if err != nil {
		return fmt.Errorf("failed to load running timers: %w", err)
	}

	mo.logger.DebugContext(ctx, "Sweeping running SLA timers", "timers", len(running))

	for _, timer := range running {
		if err := mo.sweepTimer(ctx, timer.ID, timer.TicketID); err != nil {
			mo.logger.ErrorContext(ctx, "Failed to sweep timer",
				"timer_id", timer.ID, "ticket_id", timer.TicketID, "error", err)
		}
	}

	return nil
}

// sweepTimer applies one monitoring cycle to a single timer under the
// ticket's lock, reloading it first so a concurrent workflow action
// cannot be overwritten.
func (mo *Monitor) sweepTimer(ctx context.Context, timerID, ticketID string) error {
	return mo.manager.Locked(ticketID, func() error {
		timer, err := mo.timers.ByID(ctx, timerID)
		if err != nil {
			return err
		}

		if timer.Status != models.TimerStatusRunning {
			return nil
		}

		now := mo.now()

		pol := mo.policyFor(ctx, timer)
		if pol != nil && pol.PauseOffHours && pol.UseBusinessHours &&
			!pol.BusinessHours.InBusinessHours(now) {
			// Outside the working calendar this cycle does not accrue.
			return nil
		}

		elapsed := timer.Elapsed(now)
		pct := timer.Percentage(now)

		if pct >= 100 {
			// Breach supersedes escalation.
			return mo.handleBreach(ctx, timer, elapsed)
		}

		level1, level2 := thresholds(pol)

		switch {
		case pct >= level2 && timer.Level2NotifiedAt == nil:
			mo.escalate(ctx, timer, models.EscalationLevelTwo, pct, now)
		case pct >= level1 && timer.Level1NotifiedAt == nil:
			mo.escalate(ctx, timer, models.EscalationLevelOne, pct, now)
		}

		timer.ElapsedMinutes = elapsed
		timer.RemainingMinutes = timer.Remaining(now)
		timer.UpdatedAt = now

		if err := mo.timers.Save(ctx, timer); err != nil {
			return fmt.Errorf("failed to persist timer progress: %w", err)
		}

		if mo.ticks != nil {
			mo.ticks.OnTimerTick(ctx, timer, 100-pct)
		}

		return nil
	})
}

// BreachTicket forces breach handling for every running timer of the
// ticket that has reached its target. Used by the sla_breach workflow
// node. Returns the number of timers breached.
func (mo *Monitor) BreachTicket(ctx context.Context, ticketID string) (int, error) {
	breached := 0

	err := mo.manager.Locked(ticketID, func() error {
		active, err := mo.timers.ActiveByTicket(ctx, ticketID)
		if err != nil {
			return err
		}

		now := mo.now()

		for _, timer := range active {
			if timer.Status != models.TimerStatusRunning {
				continue
			}

			if timer.Percentage(now) < 100 {
				continue
			}

			if err := mo.handleBreach(ctx, timer, timer.Elapsed(now)); err != nil {
				return err
			}

			breached++
		}

		return nil
	})

	return breached, err
}

// handleBreach performs the breach transition as one logical unit: the
// breach row and level-3 escalation are written before the timer is
// marked breached, so a partial failure leaves the timer running and
// the next sweep retries. Re-sweeping an already breached timer never
// creates a second breach row.
func (mo *Monitor) handleBreach(ctx context.Context, timer *models.SLATimer, actualElapsed int) error {
	if timer.Status == models.TimerStatusBreached {
		return nil
	}

	now := mo.now()

	breach := &models.SLABreach{
		ID:             uuid.New().String(),
		TimerID:        timer.ID,
		TicketID:       timer.TicketID,
		Type:           timer.Type,
		TargetMinutes:  timer.TargetMinutes,
		ElapsedMinutes: actualElapsed,
		OverageMinutes: actualElapsed - timer.TargetMinutes,
		Ticket:         mo.snapshot(ctx, timer),
		CreatedAt:      now,
	}

	if err := mo.breaches.Save(ctx, breach); err != nil {
		return fmt.Errorf("failed to record breach for timer %s: %w", timer.ID, err)
	}

	escalation := &models.SLAEscalation{
		ID:       uuid.New().String(),
		TicketID: timer.TicketID,
		TimerID:  timer.ID,
		Level:    models.EscalationLevelBreach,
		Reason: fmt.Sprintf("%s SLA breached: %d of %d minutes used (%d over)",
			timer.Type, actualElapsed, timer.TargetMinutes, breach.OverageMinutes),
		CreatedAt: now,
	}
	if err := mo.escalations.Append(ctx, escalation); err != nil {
		return fmt.Errorf("failed to record breach escalation for timer %s: %w", timer.ID, err)
	}

	mo.notify(ctx, timer, "SLA breached", escalation.Reason)

	breachedAt := now
	timer.Status = models.TimerStatusBreached
	timer.BreachedAt = &breachedAt
	timer.ElapsedMinutes = actualElapsed
	timer.RemainingMinutes = timer.TargetMinutes - actualElapsed
	timer.UpdatedAt = now

	if err := mo.timers.Save(ctx, timer); err != nil {
		return fmt.Errorf("failed to mark timer %s breached: %w", timer.ID, err)
	}

	mo.logger.WarnContext(ctx, "SLA timer breached",
		"timer_id", timer.ID,
		"ticket_id", timer.TicketID,
		"type", timer.Type,
		"overage_minutes", breach.OverageMinutes)

	if mo.tracer != nil {
		_, span := otelhelper.StartSpan(ctx, mo.tracer, "sla.breach",
			attribute.String(otelhelper.TicketIDKey, timer.TicketID),
			attribute.String(otelhelper.TimerIDKey, timer.ID))
		span.End()
	}

	return nil
}

// escalate sends the threshold notification and, only once it went out,
// stamps the de-duplication field and records the escalation row. A
// failed send is retried by the next sweep because the stamp stays
// unset.
func (mo *Monitor) escalate(ctx context.Context, timer *models.SLATimer, level int, pct float64, now time.Time) {
	reason := fmt.Sprintf("%s SLA at %.1f%% of target (level %d escalation)", timer.Type, pct, level)

	if err := mo.notify(ctx, timer, fmt.Sprintf("SLA escalation level %d", level), reason); err != nil {
		mo.logger.ErrorContext(ctx, "Failed to send escalation notification",
			"timer_id", timer.ID, "level", level, "error", err)

		return
	}

	stamp := now

	switch level {
	case models.EscalationLevelOne:
		timer.Level1NotifiedAt = &stamp
	case models.EscalationLevelTwo:
		timer.Level2NotifiedAt = &stamp
	}

	escalation := &models.SLAEscalation{
		ID:        uuid.New().String(),
		TicketID:  timer.TicketID,
		TimerID:   timer.ID,
		Level:     level,
		Reason:    reason,
		CreatedAt: now,
	}
	if err := mo.escalations.Append(ctx, escalation); err != nil {
		mo.logger.ErrorContext(ctx, "Failed to append escalation row",
			"timer_id", timer.ID, "level", level, "error", err)
	}

	mo.logger.InfoContext(ctx, "SLA escalation fired",
		"timer_id", timer.ID, "ticket_id", timer.TicketID, "level", level, "percentage", pct)
}

func (mo *Monitor) notify(ctx context.Context, timer *models.SLATimer, subject, body string) error {
	recipient := "sla-escalations"

	if ticket, err := mo.tickets.Ticket(ctx, timer.TicketID); err == nil && ticket.AssigneeID != "" {
		recipient = ticket.AssigneeID
	}

	return mo.notifier.Send(ctx, models.Notification{
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Priority:  timer.Priority,
	})
}

func (mo *Monitor) snapshot(ctx context.Context, timer *models.SLATimer) models.TicketSnapshot {
	ticket, err := mo.tickets.Ticket(ctx, timer.TicketID)
	if err != nil {
		mo.logger.DebugContext(ctx, "Ticket snapshot unavailable at breach",
			"ticket_id", timer.TicketID, "error", err)

		return models.TicketSnapshot{Priority: timer.Priority}
	}

	return ticket.Snapshot()
}

func (mo *Monitor) policyFor(ctx context.Context, timer *models.SLATimer) *models.SLAPolicy {
	if timer.PolicyID == "" {
		return nil
	}

	pol, err := mo.policies.ByID(ctx, timer.PolicyID)
	if err != nil {
		return nil
	}

	return pol
}

// thresholds returns the escalation percentages, defaulting when the
// timer has no resolvable policy (custom-duration timers).
func thresholds(pol *models.SLAPolicy) (float64, float64) {
	if pol == nil {
		return models.DefaultEscalationLevel1, models.DefaultEscalationLevel2
	}

	return pol.Level1Threshold(), pol.Level2Threshold()
}
