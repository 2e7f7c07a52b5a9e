// Package assign implements the assign_ticket action node.
package assign

import (
	"context"
	"fmt"
	"sort"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/protocol"
)

// AssignNode sets the ticket assignee. With an explicit assigneeId the
// ticket goes to that agent; without one the node picks the active
// agent with the fewest open tickets, breaking ties by agent id so
// repeated runs against the same load distribution pick the same agent.
type AssignNode struct {
	id         string
	assigneeID string
	tickets    protocol.TicketStore
}

func NewAssignNode(id string, config map[string]any, tickets protocol.TicketStore) *AssignNode {
	assigneeID, _ := config["assigneeId"].(string)

	return &AssignNode{id: id, assigneeID: assigneeID, tickets: tickets}
}

func (n *AssignNode) ID() string            { return n.id }
func (n *AssignNode) Type() models.NodeType { return models.NodeTypeAssignTicket }

func (n *AssignNode) Execute(ctx context.Context, ectx models.ExecutionContext) (models.NodeResult, error) {
	assigneeID := n.assigneeID

	if assigneeID == "" {
		picked, err := n.pickAgent(ctx)
		if err != nil {
			return models.NodeResult{}, err
		}

		assigneeID = picked
	}

	if err := n.tickets.Assign(ctx, ectx.TicketID(), assigneeID); err != nil {
		return models.NodeResult{}, err
	}

	return models.NodeResult{
		NodeID:  n.id,
		Type:    models.NodeTypeAssignTicket,
		Success: true,
		Output: map[string]any{
			"assigneeId": assigneeID,
		},
	}, nil
}

func (n *AssignNode) pickAgent(ctx context.Context) (string, error) {
	agents, err := n.tickets.Agents(ctx)
	if err != nil {
		return "", err
	}

	active := make([]*models.Agent, 0, len(agents))

	for _, agent := range agents {
		if agent.Active {
			active = append(active, agent)
		}
	}

	if len(active) == 0 {
		return "", fmt.Errorf("no active agents available for assignment")
	}

	sort.Slice(active, func(i, j int) bool {
		if active[i].OpenTickets != active[j].OpenTickets {
			return active[i].OpenTickets < active[j].OpenTickets
		}

		return active[i].ID < active[j].ID
	})

	return active[0].ID, nil
}

// Factory creates AssignNode instances.
type Factory struct {
	tickets protocol.TicketStore
}

func (f *Factory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewAssignNode(id, config, f.tickets), nil
}

func (f *Factory) ID() models.NodeType { return models.NodeTypeAssignTicket }
func (f *Factory) Name() string        { return "Assign Ticket" }

func (f *Factory) Description() string {
	return "Assigns the ticket to a named agent or to the least-loaded active agent."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"assigneeId": map[string]any{
				"type":        "string",
				"description": "Explicit agent id; omitted means round-robin",
			},
		},
	}
}

func NewFactory(tickets protocol.TicketStore) protocol.NodeFactory {
	return &Factory{tickets: tickets}
}
