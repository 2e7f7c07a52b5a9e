// Package registry maps workflow node types to their factories.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/protocol"
)

// Registry holds the closed set of node factories the executor can
// instantiate. Unregistered types are an invariant violation surfaced
// as an error, not a crash.
type Registry struct {
	logger        *slog.Logger
	nodeFactories map[models.NodeType]protocol.NodeFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:        logger,
		nodeFactories: make(map[models.NodeType]protocol.NodeFactory),
	}
}

func (r *Registry) RegisterNode(factory protocol.NodeFactory) {
	r.nodeFactories[factory.ID()] = factory
}

// CreateNode instantiates a node of the given type with its authored
// configuration.
func (r *Registry) CreateNode(ctx context.Context, nodeType models.NodeType, id string, config map[string]any) (protocol.Node, error) {
	factory, ok := r.nodeFactories[nodeType]
	if !ok {
		return nil, fmt.Errorf("node type '%s' not registered", nodeType)
	}

	return factory.Create(ctx, id, config)
}

// AvailableNodes returns the registered node types.
func (r *Registry) AvailableNodes() []models.NodeType {
	types := make([]models.NodeType, 0, len(r.nodeFactories))
	for nodeType := range r.nodeFactories {
		types = append(types, nodeType)
	}

	return types
}

// NodeFactory returns the factory for a node type, for schema and
// metadata introspection.
func (r *Registry) NodeFactory(nodeType models.NodeType) (protocol.NodeFactory, bool) {
	factory, ok := r.nodeFactories[nodeType]

	return factory, ok
}
