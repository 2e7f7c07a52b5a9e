package cmd

import (
	"context"
	"log/slog"

	"github.com/caredesk/slaflow/pkg/registry"
)

// NewRegistry builds a node registry with the built-in node set
// registered against the given collaborators.
func NewRegistry(ctx context.Context, logger *slog.Logger, deps registry.NodeDeps) *registry.Registry {
	reg := registry.NewRegistry(logger)

	registry.RegisterDefaultNodes(reg, deps)

	logger.InfoContext(ctx, "Registered node types", "count", len(reg.AvailableNodes()))

	return reg
}
