package models

import (
	"time"
)

// TimerType distinguishes the two budgets tracked per ticket.
type TimerType string

const (
	TimerTypeResponse   TimerType = "response"
	TimerTypeResolution TimerType = "resolution"
)

// TimerStatus represents the lifecycle state of an SLA timer.
type TimerStatus string

const (
	TimerStatusRunning  TimerStatus = "running"
	TimerStatusPaused   TimerStatus = "paused"
	TimerStatusBreached TimerStatus = "breached"
	TimerStatusStopped  TimerStatus = "stopped"
)

// SLATimer tracks one countdown (response or resolution) for one
// ticket against one policy. All durations are whole minutes.
type SLATimer struct {
	ID       string    `json:"id"`
	TicketID string    `json:"ticket_id" validate:"required"`
	PolicyID string    `json:"policy_id,omitempty"`
	Type     TimerType `json:"type"      validate:"required"`

	TargetMinutes    int `json:"target_minutes"`
	RemainingMinutes int `json:"remaining_minutes"`
	ElapsedMinutes   int `json:"elapsed_minutes"`
	TotalPausedMin   int `json:"total_paused_minutes"`

	Status      TimerStatus `json:"status"`
	PauseReason string      `json:"pause_reason,omitempty"`

	// Priority is snapshotted at creation; later ticket edits do not
	// retarget a running timer.
	Priority string `json:"priority"`

	StartedAt   time.Time  `json:"started_at"`
	PausedAt    *time.Time `json:"paused_at,omitempty"`
	ResumedAt   *time.Time `json:"resumed_at,omitempty"`
	BreachedAt  *time.Time `json:"breached_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Escalation de-duplication stamps. Each level fires at most once.
	Level1NotifiedAt *time.Time `json:"level1_notified_at,omitempty"`
	Level2NotifiedAt *time.Time `json:"level2_notified_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Active reports whether the timer still counts toward the per-ticket
// one-active-timer-per-type invariant.
func (t *SLATimer) Active() bool {
	return t.Status == TimerStatusRunning || t.Status == TimerStatusPaused
}

// Elapsed returns whole minutes of tracked time at now, excluding
// accumulated paused time. Pure function of stored state and the clock.
func (t *SLATimer) Elapsed(now time.Time) int {
	elapsed := int(now.Sub(t.StartedAt).Minutes()) - t.TotalPausedMin
	if elapsed < 0 {
		return 0
	}

	return elapsed
}

// Percentage returns elapsed time as a percentage of the target at now.
func (t *SLATimer) Percentage(now time.Time) float64 {
	if t.TargetMinutes <= 0 {
		return 0
	}

	return float64(t.Elapsed(now)) / float64(t.TargetMinutes) * 100
}

// Remaining returns target minus elapsed minutes at now. Negative once
// the target has been exceeded.
func (t *SLATimer) Remaining(now time.Time) int {
	return t.TargetMinutes - t.Elapsed(now)
}

// TicketSnapshot captures the ticket fields recorded on a breach row.
type TicketSnapshot struct {
	Priority     string `json:"priority"`
	Status       string `json:"status"`
	AssigneeID   string `json:"assignee_id,omitempty"`
	DepartmentID string `json:"department_id,omitempty"`
}

// SLABreach is the immutable record written exactly once when a timer
// transitions into breached.
type SLABreach struct {
	ID             string         `json:"id"`
	TimerID        string         `json:"timer_id"`
	TicketID       string         `json:"ticket_id"`
	Type           TimerType      `json:"type"`
	TargetMinutes  int            `json:"target_minutes"`
	ElapsedMinutes int            `json:"elapsed_minutes"`
	OverageMinutes int            `json:"overage_minutes"`
	Ticket         TicketSnapshot `json:"ticket"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Escalation levels. Level 3 is reserved for breaches.
const (
	EscalationLevelOne    = 1
	EscalationLevelTwo    = 2
	EscalationLevelBreach = 3
)

// SLAEscalation is an append-only log entry for a single escalation
// event; rows are never mutated.
type SLAEscalation struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	TimerID   string    `json:"timer_id,omitempty"`
	Level     int       `json:"level"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
