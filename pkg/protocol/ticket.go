package protocol

import (
	"context"

	"github.com/caredesk/slaflow/pkg/models"
)

// TicketStore is the engine's view of the ticket system of record.
// Implementations are external; pkg/mocks carries an in-memory fake and
// pkg/ticketstore a Redis-backed bridge.
type TicketStore interface {
	// Ticket reads a ticket by id.
	Ticket(ctx context.Context, id string) (*models.Ticket, error)

	// UpdateField writes a single field mutation (priority, status,
	// category, tags, ...).
	UpdateField(ctx context.Context, id, field, value string) error

	// Assign sets the ticket assignee.
	Assign(ctx context.Context, id, agentID string) error

	// AddNote appends a note; internal notes are agent-only.
	AddNote(ctx context.Context, id, note string, internal bool) error

	// Agents lists agents with current load counts for round-robin
	// assignment.
	Agents(ctx context.Context) ([]*models.Agent, error)
}

// NotificationSink delivers escalation, breach and action-node
// notifications. Delivery is fire-and-forget from the engine's
// perspective; the sink owns retries.
type NotificationSink interface {
	Send(ctx context.Context, notification models.Notification) error
}
