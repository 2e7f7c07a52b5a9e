// Package updatefield implements the update_field action node.
package updatefield

import (
	"context"
	"fmt"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/protocol"
	"github.com/caredesk/slaflow/pkg/template"
)

// UpdateFieldNode writes one field mutation to the ticket system of
// record. The value may contain {{placeholder}} tokens.
type UpdateFieldNode struct {
	id      string
	field   string
	value   string
	tickets protocol.TicketStore
}

func NewUpdateFieldNode(id string, config map[string]any, tickets protocol.TicketStore) (*UpdateFieldNode, error) {
	field, _ := config["field"].(string)
	if field == "" {
		return nil, fmt.Errorf("field is required")
	}

	value, _ := config["value"].(string)

	return &UpdateFieldNode{id: id, field: field, value: value, tickets: tickets}, nil
}

func (n *UpdateFieldNode) ID() string            { return n.id }
func (n *UpdateFieldNode) Type() models.NodeType { return models.NodeTypeUpdateField }

func (n *UpdateFieldNode) Execute(ctx context.Context, ectx models.ExecutionContext) (models.NodeResult, error) {
	value := template.Render(n.value, ectx)

	if err := n.tickets.UpdateField(ctx, ectx.TicketID(), n.field, value); err != nil {
		return models.NodeResult{}, err
	}

	return models.NodeResult{
		NodeID:  n.id,
		Type:    models.NodeTypeUpdateField,
		Success: true,
		Output: map[string]any{
			"updatedField": n.field,
			"updatedValue": value,
			n.field:        value,
		},
	}, nil
}

// Factory creates UpdateFieldNode instances.
type Factory struct {
	tickets protocol.TicketStore
}

func (f *Factory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewUpdateFieldNode(id, config, f.tickets)
}

func (f *Factory) ID() models.NodeType { return models.NodeTypeUpdateField }
func (f *Factory) Name() string        { return "Update Field" }

func (f *Factory) Description() string {
	return "Writes one ticket field, with template support in the value."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"field"},
		"properties": map[string]any{
			"field": map[string]any{"type": "string"},
			"value": map[string]any{"type": "string"},
		},
	}
}

func NewFactory(tickets protocol.TicketStore) protocol.NodeFactory {
	return &Factory{tickets: tickets}
}
