// Package protocol defines the interfaces and contracts between the
// engine and its pluggable node types and external collaborators.
package protocol

import (
	"context"

	"github.com/caredesk/slaflow/pkg/models"
)

// Node is a single executable workflow graph node.
type Node interface {
	// ID returns the node instance id inside its workflow.
	ID() string

	// Type returns the node type.
	Type() models.NodeType

	// Execute runs the node against the execution context. The result's
	// Output map is merged into the context seen by downstream nodes.
	// Errors are converted into failed results at the node boundary by
	// the executor; they never abort sibling branches.
	Execute(ctx context.Context, ectx models.ExecutionContext) (models.NodeResult, error)
}

// NodeFactory creates node instances and provides metadata about the
// node type.
type NodeFactory interface {
	// Create creates a new node instance with the given configuration.
	Create(ctx context.Context, id string, config map[string]any) (Node, error)

	// ID returns the node type this factory produces.
	ID() models.NodeType

	// Name returns the human-readable name for this node type.
	Name() string

	// Description returns a description of what this node does.
	Description() string

	// Schema returns the JSON schema for configuring this node.
	Schema() map[string]any
}
