// Package escalate implements the escalation action node.
package escalate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/persistence"
	"github.com/caredesk/slaflow/pkg/protocol"
	"github.com/caredesk/slaflow/pkg/template"
)

// EscalateNode appends an escalation log row for the execution's
// ticket. The row is workflow-originated; it carries no timer id.
type EscalateNode struct {
	id          string
	level       int
	reason      string
	escalations persistence.EscalationRepository
	now         func() time.Time
}

func NewEscalateNode(id string, config map[string]any, escalations persistence.EscalationRepository) (*EscalateNode, error) {
	level := models.EscalationLevelOne

	switch v := config["level"].(type) {
	case int:
		level = v
	case float64:
		level = int(v)
	}

	if level < models.EscalationLevelOne || level > models.EscalationLevelBreach {
		return nil, fmt.Errorf("escalation level %d out of range", level)
	}

	reason, _ := config["reason"].(string)
	if reason == "" {
		reason = "escalated by workflow"
	}

	return &EscalateNode{
		id:          id,
		level:       level,
		reason:      reason,
		escalations: escalations,
		now:         time.Now,
	}, nil
}

func (n *EscalateNode) ID() string            { return n.id }
func (n *EscalateNode) Type() models.NodeType { return models.NodeTypeEscalation }

func (n *EscalateNode) Execute(ctx context.Context, ectx models.ExecutionContext) (models.NodeResult, error) {
	escalation := &models.SLAEscalation{
		ID:        uuid.New().String(),
		TicketID:  ectx.TicketID(),
		Level:     n.level,
		Reason:    template.Render(n.reason, ectx),
		CreatedAt: n.now(),
	}

	if err := n.escalations.Append(ctx, escalation); err != nil {
		return models.NodeResult{}, err
	}

	return models.NodeResult{
		NodeID:  n.id,
		Type:    models.NodeTypeEscalation,
		Success: true,
		Output: map[string]any{
			"escalationId":    escalation.ID,
			"escalationLevel": n.level,
		},
	}, nil
}

// Factory creates EscalateNode instances.
type Factory struct {
	escalations persistence.EscalationRepository
}

func (f *Factory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewEscalateNode(id, config, f.escalations)
}

func (f *Factory) ID() models.NodeType { return models.NodeTypeEscalation }
func (f *Factory) Name() string        { return "Escalate" }

func (f *Factory) Description() string {
	return "Appends an escalation log entry at the configured level."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"level":  map[string]any{"type": "integer", "minimum": 1, "maximum": 3, "default": 1},
			"reason": map[string]any{"type": "string"},
		},
	}
}

func NewFactory(escalations persistence.EscalationRepository) protocol.NodeFactory {
	return &Factory{escalations: escalations}
}
