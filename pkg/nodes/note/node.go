// Package note implements the add_note action node.
package note

import (
	"context"
	"fmt"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/protocol"
	"github.com/caredesk/slaflow/pkg/template"
)

// NoteNode appends a note to the ticket. Notes default to internal
// (agent-only) visibility.
type NoteNode struct {
	id       string
	text     string
	internal bool
	tickets  protocol.TicketStore
}

func NewNoteNode(id string, config map[string]any, tickets protocol.TicketStore) (*NoteNode, error) {
	text, _ := config["text"].(string)
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}

	internal := true
	if v, ok := config["internal"].(bool); ok {
		internal = v
	}

	return &NoteNode{id: id, text: text, internal: internal, tickets: tickets}, nil
}

func (n *NoteNode) ID() string            { return n.id }
func (n *NoteNode) Type() models.NodeType { return models.NodeTypeAddNote }

func (n *NoteNode) Execute(ctx context.Context, ectx models.ExecutionContext) (models.NodeResult, error) {
	text := template.Render(n.text, ectx)

	if err := n.tickets.AddNote(ctx, ectx.TicketID(), text, n.internal); err != nil {
		return models.NodeResult{}, err
	}

	return models.NodeResult{
		NodeID:  n.id,
		Type:    models.NodeTypeAddNote,
		Success: true,
		Output: map[string]any{
			"noteAdded":    true,
			"noteInternal": n.internal,
		},
	}, nil
}

// Factory creates NoteNode instances.
type Factory struct {
	tickets protocol.TicketStore
}

func (f *Factory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewNoteNode(id, config, f.tickets)
}

func (f *Factory) ID() models.NodeType { return models.NodeTypeAddNote }
func (f *Factory) Name() string        { return "Add Note" }

func (f *Factory) Description() string {
	return "Appends a templated note to the ticket."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"text"},
		"properties": map[string]any{
			"text":     map[string]any{"type": "string"},
			"internal": map[string]any{"type": "boolean", "default": true},
		},
	}
}

func NewFactory(tickets protocol.TicketStore) protocol.NodeFactory {
	return &Factory{tickets: tickets}
}
