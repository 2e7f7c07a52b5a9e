// Package events defines the event types flowing between the ticket
// system, the dispatcher and the monitor.
package events

import (
	"time"

	"github.com/caredesk/slaflow/pkg/models"
)

type EventType string

// Bus topics.
const Topic = "slaflow.events"                               // ticket lifecycle events
const WorkflowExecutionTopic = "slaflow.workflow.executions" // workflow execution outcomes

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Ticket lifecycle events published by the ticket system bridge.
	TicketCreatedEvent EventType = "ticket.created"
	TicketUpdatedEvent EventType = "ticket.updated"

	// Workflow execution events published by the dispatcher.
	WorkflowExecutedEvent EventType = "workflow.executed"
	WorkflowFailedEvent   EventType = "workflow.failed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// TicketCreated announces a new ticket.
type TicketCreated struct {
	BaseEvent

	Ticket models.Ticket `json:"ticket"`
}

func (e TicketCreated) GetType() EventType {
	return TicketCreatedEvent
}

// TicketUpdated announces a ticket mutation. ChangedFields names the
// fields that differ from the previous revision.
type TicketUpdated struct {
	BaseEvent

	Ticket        models.Ticket `json:"ticket"`
	ChangedFields []string      `json:"changed_fields"`
}

func (e TicketUpdated) GetType() EventType {
	return TicketUpdatedEvent
}

// WorkflowExecuted reports a finished execution with its per-node
// outcomes.
type WorkflowExecuted struct {
	BaseEvent

	WorkflowID  string              `json:"workflow_id"`
	ExecutionID string              `json:"execution_id"`
	TicketID    string              `json:"ticket_id,omitempty"`
	Results     []models.NodeResult `json:"results"`
}

func (e WorkflowExecuted) GetType() EventType {
	return WorkflowExecutedEvent
}

// WorkflowFailed reports an execution the dispatcher could not run.
type WorkflowFailed struct {
	BaseEvent

	WorkflowID  string `json:"workflow_id"`
	ExecutionID string `json:"execution_id"`
	Error       string `json:"error"`
}

func (e WorkflowFailed) GetType() EventType {
	return WorkflowFailedEvent
}
