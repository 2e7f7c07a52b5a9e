package trigger

import (
	"context"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/protocol"
)

// Factory creates trigger nodes of one kind. The Config filters
// (department, priorities, category, watchFields) are read by the
// dispatcher, not by the node itself.
type Factory struct {
	kind        models.NodeType
	name        string
	description string
	schema      map[string]any
}

func (f *Factory) Create(_ context.Context, id string, _ map[string]any) (protocol.Node, error) {
	return NewTriggerNode(id, f.kind), nil
}

func (f *Factory) ID() models.NodeType { return f.kind }
func (f *Factory) Name() string        { return f.name }
func (f *Factory) Description() string { return f.description }

func (f *Factory) Schema() map[string]any { return f.schema }

// NewTicketCreatedFactory creates the factory for ticket_created
// trigger nodes.
func NewTicketCreatedFactory() protocol.NodeFactory {
	return &Factory{
		kind:        models.NodeTypeTicketCreated,
		name:        "Ticket Created",
		description: "Starts the workflow when a ticket is created. Optional filters restrict matching tickets.",
		schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"department": map[string]any{
					"type":        "string",
					"description": "Only match tickets in this department",
				},
				"priorities": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Only match tickets with one of these priorities",
				},
				"category": map[string]any{
					"type":        "string",
					"description": "Only match tickets in this category",
				},
			},
		},
	}
}

// NewTicketUpdatedFactory creates the factory for ticket_updated
// trigger nodes.
func NewTicketUpdatedFactory() protocol.NodeFactory {
	return &Factory{
		kind:        models.NodeTypeTicketUpdated,
		name:        "Ticket Updated",
		description: "Starts the workflow when a watched ticket field changes. An empty watch list matches any update.",
		schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"watchFields": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Field names that must be among the changed fields",
				},
			},
		},
	}
}

// NewTimeSchedulerFactory creates the factory for time_scheduler
// trigger nodes, fired per running timer by the periodic monitor.
func NewTimeSchedulerFactory() protocol.NodeFactory {
	return &Factory{
		kind:        models.NodeTypeTimeScheduler,
		name:        "Time Scheduler",
		description: "Starts the workflow on the periodic monitor tick, once per running SLA timer.",
		schema:      map[string]any{"type": "object", "properties": map[string]any{}},
	}
}
