// Package merge implements the merge node, the join point for branches
// fanned out earlier in the graph. Execution is a pass-through; each
// inbound branch traverses the merge node independently and continues
// with its own context.
package merge

import (
	"context"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/protocol"
)

type MergeNode struct {
	id string
}

func NewMergeNode(id string) *MergeNode {
	return &MergeNode{id: id}
}

func (n *MergeNode) ID() string            { return n.id }
func (n *MergeNode) Type() models.NodeType { return models.NodeTypeMerge }

func (n *MergeNode) Execute(_ context.Context, _ models.ExecutionContext) (models.NodeResult, error) {
	return models.NodeResult{
		NodeID:  n.id,
		Type:    models.NodeTypeMerge,
		Success: true,
	}, nil
}

// Factory creates MergeNode instances.
type Factory struct{}

func (f *Factory) Create(_ context.Context, id string, _ map[string]any) (protocol.Node, error) {
	return NewMergeNode(id), nil
}

func (f *Factory) ID() models.NodeType { return models.NodeTypeMerge }
func (f *Factory) Name() string        { return "Merge" }

func (f *Factory) Description() string {
	return "Joins branch paths; execution passes through unchanged."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func NewFactory() protocol.NodeFactory {
	return &Factory{}
}
