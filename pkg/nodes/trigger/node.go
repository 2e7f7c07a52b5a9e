// Package trigger provides the workflow entry-point nodes. Trigger
// nodes are pass-through at execution time: event filtering has already
// been applied by the dispatcher before the executor runs.
package trigger

import (
	"context"

	"github.com/caredesk/slaflow/pkg/models"
)

type TriggerNode struct {
	id   string
	kind models.NodeType
}

func NewTriggerNode(id string, kind models.NodeType) *TriggerNode {
	return &TriggerNode{id: id, kind: kind}
}

func (n *TriggerNode) ID() string            { return n.id }
func (n *TriggerNode) Type() models.NodeType { return n.kind }

func (n *TriggerNode) Execute(_ context.Context, _ models.ExecutionContext) (models.NodeResult, error) {
	return models.NodeResult{
		NodeID:  n.id,
		Type:    n.kind,
		Success: true,
	}, nil
}
