package condition

import (
	"context"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/protocol"
)

// ConditionNodeFactory creates ConditionNode instances.
type ConditionNodeFactory struct{}

func (f *ConditionNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewConditionNode(id, config)
}

func (f *ConditionNodeFactory) ID() models.NodeType { return models.NodeTypeConditionIf }
func (f *ConditionNodeFactory) Name() string        { return "Condition" }

func (f *ConditionNodeFactory) Description() string {
	return "Compares a context field against a value and routes execution to the true or false edge."
}

func (f *ConditionNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"field": map[string]any{
				"type":        "string",
				"description": "Execution context key to compare",
				"examples":    []string{"priority", "status", "percentRemaining"},
			},
			"operator": map[string]any{
				"type": "string",
				"enum": []string{
					OperatorEquals, OperatorNotEquals, OperatorGreaterThan,
					OperatorLessThan, OperatorGreaterOrEqual, OperatorLessOrEqual,
					OperatorContains,
				},
			},
			"value": map[string]any{
				"type":        "string",
				"description": "Literal to compare against",
			},
		},
		"required": []string{"field"},
	}
}

// NewConditionNodeFactory creates a new factory instance.
func NewConditionNodeFactory() protocol.NodeFactory {
	return &ConditionNodeFactory{}
}
