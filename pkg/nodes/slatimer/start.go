// Package slatimer provides the workflow nodes that drive the SLA
// timer engine: start, pause, resume, check, warning and breach.
package slatimer

import (
	"context"
	"fmt"
	"strings"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/protocol"
	"github.com/caredesk/slaflow/pkg/sla"
)

// StartNode starts the response/resolution timer pair for the context
// ticket. The duration comes from a named policy (looked up by the
// ticket priority) or from a literal custom duration configured on the
// node.
type StartNode struct {
	id            string
	policyID      string
	durationValue int
	durationUnit  string
	manager       *sla.Manager
}

func NewStartNode(id string, config map[string]any, manager *sla.Manager) (*StartNode, error) {
	node := &StartNode{
		id:      id,
		manager: manager,
	}

	node.policyID, _ = config["policyId"].(string)
	node.durationValue = intConfig(config, "durationValue")
	node.durationUnit, _ = config["durationUnit"].(string)

	if node.durationValue > 0 && !validUnit(node.durationUnit) {
		return nil, fmt.Errorf("unsupported duration unit %q", node.durationUnit)
	}

	return node, nil
}

func (n *StartNode) ID() string            { return n.id }
func (n *StartNode) Type() models.NodeType { return models.NodeTypeStartSLATimer }

func (n *StartNode) Execute(ctx context.Context, ectx models.ExecutionContext) (models.NodeResult, error) {
	req := sla.StartRequest{
		TicketID:     ectx.TicketID(),
		Priority:     ectx.GetString(models.ContextKeyPriority),
		DepartmentID: ectx.GetString(models.ContextKeyDepartment),
		CategoryID:   ectx.GetString(models.ContextKeyCategory),
		PolicyID:     n.policyID,
	}

	if n.durationValue > 0 {
		minutes := toMinutes(n.durationValue, n.durationUnit)
		req.CustomTargets = &models.PriorityTargets{
			ResponseMinutes:   minutes,
			ResolutionMinutes: minutes,
		}
	}

	result, err := n.manager.Start(ctx, req)
	if err != nil {
		return models.NodeResult{}, err
	}

	if !result.Started {
		return models.NodeResult{
			NodeID: n.id,
			Type:   models.NodeTypeStartSLATimer,
			Error:  result.Reason,
		}, nil
	}

	return models.NodeResult{
		NodeID:  n.id,
		Type:    models.NodeTypeStartSLATimer,
		Success: true,
		Output:  map[string]any{"slaTimersStarted": len(result.Timers)},
	}, nil
}

func validUnit(unit string) bool {
	switch strings.ToLower(unit) {
	case "minutes", "hours", "days":
		return true
	}

	return false
}

func toMinutes(value int, unit string) int {
	switch strings.ToLower(unit) {
	case "hours":
		return value * 60
	case "days":
		return value * 60 * 24
	default:
		return value
	}
}

func stringConfig(config map[string]any, key string) string {
	if v, ok := config[key].(string); ok {
		return v
	}

	return ""
}

func intConfig(config map[string]any, key string) int {
	switch v := config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// StartNodeFactory creates StartNode instances.
type StartNodeFactory struct {
	manager *sla.Manager
}

func (f *StartNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewStartNode(id, config, f.manager)
}

func (f *StartNodeFactory) ID() models.NodeType { return models.NodeTypeStartSLATimer }
func (f *StartNodeFactory) Name() string        { return "Start SLA Timer" }

func (f *StartNodeFactory) Description() string {
	return "Starts the response and resolution timers for the ticket, from a policy or a custom duration."
}

func (f *StartNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"policyId": map[string]any{
				"type":        "string",
				"description": "Policy to read targets from; omitted means scope resolution",
			},
			"durationValue": map[string]any{
				"type":        "integer",
				"description": "Custom duration overriding policy targets",
			},
			"durationUnit": map[string]any{
				"type": "string",
				"enum": []string{"minutes", "hours", "days"},
			},
		},
	}
}

func NewStartNodeFactory(manager *sla.Manager) protocol.NodeFactory {
	return &StartNodeFactory{manager: manager}
}
