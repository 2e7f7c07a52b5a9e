// Package persistence provides the data storage abstraction for
// policies, timers, breaches, escalations and workflow definitions.
package persistence

import (
	"context"

	"github.com/caredesk/slaflow/pkg/models"
)

// Persistence bundles the entity repositories behind one connection.
type Persistence interface {
	Policies() PolicyRepository
	Timers() TimerRepository
	Breaches() BreachRepository
	Escalations() EscalationRepository
	Workflows() WorkflowRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// PolicyRepository stores SLA policies. Listing order must be stable
// (creation order) so policy resolution is reproducible.
type PolicyRepository interface {
	All(ctx context.Context) ([]*models.SLAPolicy, error)
	Active(ctx context.Context) ([]*models.SLAPolicy, error)
	ByID(ctx context.Context, id string) (*models.SLAPolicy, error)
	Save(ctx context.Context, policy *models.SLAPolicy) error
	Delete(ctx context.Context, id string) error
}

// TimerRepository stores SLA timers.
type TimerRepository interface {
	ByID(ctx context.Context, id string) (*models.SLATimer, error)
	ByTicket(ctx context.Context, ticketID string) ([]*models.SLATimer, error)

	// ActiveByTicket returns timers in running or paused state.
	ActiveByTicket(ctx context.Context, ticketID string) ([]*models.SLATimer, error)

	// Running returns every running timer, for the monitor sweep.
	Running(ctx context.Context) ([]*models.SLATimer, error)

	Save(ctx context.Context, timer *models.SLATimer) error
}

// BreachRepository stores immutable breach records.
type BreachRepository interface {
	Save(ctx context.Context, breach *models.SLABreach) error
	ByTicket(ctx context.Context, ticketID string) ([]*models.SLABreach, error)
	ByTimer(ctx context.Context, timerID string) ([]*models.SLABreach, error)
}

// EscalationRepository stores the append-only escalation log.
type EscalationRepository interface {
	Append(ctx context.Context, escalation *models.SLAEscalation) error
	ByTicket(ctx context.Context, ticketID string) ([]*models.SLAEscalation, error)
}

// WorkflowRepository stores workflow definitions.
type WorkflowRepository interface {
	All(ctx context.Context) ([]*models.Workflow, error)

	// Executable returns workflows with isActive set and isDraft clear.
	Executable(ctx context.Context) ([]*models.Workflow, error)

	ByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}
