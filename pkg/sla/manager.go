// Package sla implements the SLA timer state machine and the periodic
// breach/escalation monitor.
package sla

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/persistence"
	"github.com/caredesk/slaflow/pkg/policy"
	"github.com/google/uuid"
)

// Manager owns the per-timer state machine:
// running -> paused -> running -> {stopped | breached}.
// All mutations for a ticket are serialized through a per-ticket lock.
type Manager struct {
	timers   persistence.TimerRepository
	resolver *policy.Resolver
	locks    *keyedLocks
	logger   *slog.Logger
	now      func() time.Time
}

// NewManager creates a timer lifecycle manager.
func NewManager(timers persistence.TimerRepository, resolver *policy.Resolver, logger *slog.Logger) *Manager {
	return &Manager{
		timers:   timers,
		resolver: resolver,
		locks:    newKeyedLocks(),
		logger:   logger.With("module", "sla_manager"),
		now:      time.Now,
	}
}

// StartRequest describes the timers to create for a ticket.
type StartRequest struct {
	TicketID     string
	Priority     string
	DepartmentID string
	CategoryID   string

	// PolicyID skips scope resolution and uses the named policy.
	PolicyID string

	// CustomTargets bypasses policy lookup entirely (workflow nodes
	// configured with literal durations).
	CustomTargets *models.PriorityTargets
}

// StartResult reports whether timers were created and why not if they
// were not. A configuration problem is an explicit not-started result,
// never a silent no-op.
type StartResult struct {
	Started bool
	Reason  string
	Timers  []*models.SLATimer
}

// Start atomically creates the response and resolution timers for a
// ticket. Idempotent per ticket: if an active timer already exists the
// call returns a not-started result instead of creating duplicates.
func (m *Manager) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	if req.TicketID == "" {
		return &StartResult{Reason: "ticket id is required"}, nil
	}

	unlock := m.locks.lock(req.TicketID)
	defer unlock()

	active, err := m.timers.ActiveByTicket(ctx, req.TicketID)
	if err != nil {
		return nil, fmt.Errorf("failed to load timers for ticket %s: %w", req.TicketID, err)
	}

	if len(active) > 0 {
		return &StartResult{Reason: "active SLA timers already exist for ticket"}, nil
	}

	targets, policyID, reason, err := m.resolveTargets(ctx, req)
	if err != nil {
		return nil, err
	}

	if reason != "" {
		m.logger.InfoContext(ctx, "SLA timers not started",
			"ticket_id", req.TicketID, "reason", reason)

		return &StartResult{Reason: reason}, nil
	}

	now := m.now()
	result := &StartResult{Started: true}

	for timerType, minutes := range map[models.TimerType]int{
		models.TimerTypeResponse:   targets.ResponseMinutes,
		models.TimerTypeResolution: targets.ResolutionMinutes,
	} {
		if minutes <= 0 {
			continue
		}

		timer := &models.SLATimer{
			ID:               uuid.New().String(),
			TicketID:         req.TicketID,
			PolicyID:         policyID,
			Type:             timerType,
			TargetMinutes:    minutes,
			RemainingMinutes: minutes,
			Status:           models.TimerStatusRunning,
			Priority:         req.Priority,
			StartedAt:        now,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		if err := m.timers.Save(ctx, timer); err != nil {
			return nil, fmt.Errorf("failed to save %s timer for ticket %s: %w", timerType, req.TicketID, err)
		}

		result.Timers = append(result.Timers, timer)
	}

	m.logger.InfoContext(ctx, "Started SLA timers",
		"ticket_id", req.TicketID,
		"priority", req.Priority,
		"policy_id", policyID,
		"timers", len(result.Timers))

	return result, nil
}

// resolveTargets determines the minute targets for a start request.
// A non-empty reason means the request is a configuration no-op.
func (m *Manager) resolveTargets(ctx context.Context, req StartRequest) (models.PriorityTargets, string, string, error) {
	if req.CustomTargets != nil {
		if req.CustomTargets.ResponseMinutes <= 0 && req.CustomTargets.ResolutionMinutes <= 0 {
			return models.PriorityTargets{}, "", "custom durations must be positive", nil
		}

		return *req.CustomTargets, req.PolicyID, "", nil
	}

	var (
		pol *models.SLAPolicy
		err error
	)

	if req.PolicyID != "" {
		pol, err = m.resolver.ByID(ctx, req.PolicyID)
	} else {
		pol, err = m.resolver.Resolve(ctx, req.DepartmentID, req.CategoryID)
	}

	if err != nil {
		if errors.Is(err, policy.ErrNoApplicablePolicy) || persistence.IsNotFound(err) {
			return models.PriorityTargets{}, "", "no applicable SLA policy", nil
		}

		return models.PriorityTargets{}, "", "", err
	}

	targets, ok := pol.TargetsFor(req.Priority)
	if !ok {
		return models.PriorityTargets{}, "",
			fmt.Sprintf("policy %s has no targets for priority %q", pol.ID, req.Priority), nil
	}

	return targets, pol.ID, "", nil
}

// Pause transitions every running timer for the ticket to paused.
// Returns the number of timers affected; zero is a valid no-op.
func (m *Manager) Pause(ctx context.Context, ticketID, reason string) (int, error) {
	unlock := m.locks.lock(ticketID)
	defer unlock()

	active, err := m.timers.ActiveByTicket(ctx, ticketID)
	if err != nil {
		return 0, fmt.Errorf("failed to load timers for ticket %s: %w", ticketID, err)
	}

	now := m.now()
	paused := 0

	for _, timer := range active {
		if timer.Status != models.TimerStatusRunning {
			continue
		}

		pausedAt := now
		timer.Status = models.TimerStatusPaused
		timer.PausedAt = &pausedAt
		timer.PauseReason = reason
		timer.UpdatedAt = now

		if err := m.timers.Save(ctx, timer); err != nil {
			return paused, fmt.Errorf("failed to pause timer %s: %w", timer.ID, err)
		}

		paused++
	}

	if paused > 0 {
		m.logger.InfoContext(ctx, "Paused SLA timers",
			"ticket_id", ticketID, "reason", reason, "timers", paused)
	}

	return paused, nil
}

// Resume transitions every paused timer for the ticket back to running
// and folds the pause duration into the timer's accumulated paused
// time, using whole-minute flooring.
func (m *Manager) Resume(ctx context.Context, ticketID string) (int, error) {
	unlock := m.locks.lock(ticketID)
	defer unlock()

	active, err := m.timers.ActiveByTicket(ctx, ticketID)
	if err != nil {
		return 0, fmt.Errorf("failed to load timers for ticket %s: %w", ticketID, err)
	}

	now := m.now()
	resumed := 0

	for _, timer := range active {
		if timer.Status != models.TimerStatusPaused {
			continue
		}

		if timer.PausedAt != nil {
			timer.TotalPausedMin += int(now.Sub(*timer.PausedAt).Minutes())
		}

		resumedAt := now
		timer.Status = models.TimerStatusRunning
		timer.ResumedAt = &resumedAt
		timer.UpdatedAt = now

		if err := m.timers.Save(ctx, timer); err != nil {
			return resumed, fmt.Errorf("failed to resume timer %s: %w", timer.ID, err)
		}

		resumed++
	}

	if resumed > 0 {
		m.logger.InfoContext(ctx, "Resumed SLA timers", "ticket_id", ticketID, "timers", resumed)
	}

	return resumed, nil
}

// Stop transitions active timers to stopped, optionally filtered by
// timer type. Stopped is terminal; a stopped timer is never
// reactivated.
func (m *Manager) Stop(ctx context.Context, ticketID string, types ...models.TimerType) (int, error) {
	unlock := m.locks.lock(ticketID)
	defer unlock()

	active, err := m.timers.ActiveByTicket(ctx, ticketID)
	if err != nil {
		return 0, fmt.Errorf("failed to load timers for ticket %s: %w", ticketID, err)
	}

	now := m.now()
	stopped := 0

	for _, timer := range active {
		if len(types) > 0 && !timerTypeIn(timer.Type, types) {
			continue
		}

		// Fold an open pause into the total so the final elapsed
		// figure excludes it.
		if timer.Status == models.TimerStatusPaused && timer.PausedAt != nil {
			timer.TotalPausedMin += int(now.Sub(*timer.PausedAt).Minutes())
		}

		completedAt := now
		timer.Status = models.TimerStatusStopped
		timer.CompletedAt = &completedAt
		timer.ElapsedMinutes = timer.Elapsed(now)
		timer.RemainingMinutes = timer.Remaining(now)
		timer.UpdatedAt = now

		if err := m.timers.Save(ctx, timer); err != nil {
			return stopped, fmt.Errorf("failed to stop timer %s: %w", timer.ID, err)
		}

		stopped++
	}

	if stopped > 0 {
		m.logger.InfoContext(ctx, "Stopped SLA timers", "ticket_id", ticketID, "timers", stopped)
	}

	return stopped, nil
}

// Locked runs fn while holding the ticket's lock. The monitor sweep and
// timer-action nodes go through the same serialization point as the
// lifecycle operations above.
func (m *Manager) Locked(ticketID string, fn func() error) error {
	unlock := m.locks.lock(ticketID)
	defer unlock()

	return fn()
}

func timerTypeIn(t models.TimerType, types []models.TimerType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}

	return false
}
