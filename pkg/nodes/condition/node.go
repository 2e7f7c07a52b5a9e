// Package condition provides the condition_if branching node. The
// result selects the outgoing edge whose source handle matches "true"
// or "false".
package condition

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/caredesk/slaflow/pkg/models"
)

// Supported comparison operators.
const (
	OperatorEquals         = "equals"
	OperatorNotEquals      = "not_equals"
	OperatorGreaterThan    = "greater_than"
	OperatorLessThan       = "less_than"
	OperatorGreaterOrEqual = "greater_or_equal"
	OperatorLessOrEqual    = "less_or_equal"
	OperatorContains       = "contains"
)

type ConditionNode struct {
	id       string
	field    string
	operator string
	value    string
}

func NewConditionNode(id string, config map[string]any) (*ConditionNode, error) {
	field, _ := config["field"].(string)
	if field == "" {
		return nil, errors.New("missing required field 'field'")
	}

	operator, _ := config["operator"].(string)
	if operator == "" {
		operator = OperatorEquals
	}

	if !validOperator(operator) {
		return nil, fmt.Errorf("unsupported operator %q", operator)
	}

	value := ""
	if raw, ok := config["value"]; ok && raw != nil {
		value = fmt.Sprint(raw)
	}

	return &ConditionNode{
		id:       id,
		field:    field,
		operator: operator,
		value:    value,
	}, nil
}

func (n *ConditionNode) ID() string            { return n.id }
func (n *ConditionNode) Type() models.NodeType { return models.NodeTypeConditionIf }

func (n *ConditionNode) Execute(_ context.Context, ectx models.ExecutionContext) (models.NodeResult, error) {
	left, _ := ectx.Get(n.field)

	matched, err := Evaluate(n.operator, left, n.value)
	if err != nil {
		return models.NodeResult{
			NodeID: n.id,
			Type:   models.NodeTypeConditionIf,
			Error:  err.Error(),
		}, nil
	}

	return models.NodeResult{
		NodeID:  n.id,
		Type:    models.NodeTypeConditionIf,
		Success: true,
		Branch:  &matched,
		Output: map[string]any{
			"conditionResult": matched,
		},
	}, nil
}

// Evaluate applies one comparison operator. The ordering operators
// parse both sides as floats; equality compares the string forms, so
// "10" and "10.0" are not equal; contains is a case-insensitive
// substring test.
func Evaluate(operator string, left any, right string) (bool, error) {
	leftStr := stringify(left)

	leftNum, leftIsNum := toFloat(left)
	rightNum, rightIsNum := toFloat(right)
	numeric := leftIsNum && rightIsNum

	switch operator {
	case OperatorEquals:
		return leftStr == right, nil
	case OperatorNotEquals:
		return leftStr != right, nil
	case OperatorGreaterThan:
		if !numeric {
			return false, numericError(operator, leftStr, right)
		}

		return leftNum > rightNum, nil
	case OperatorLessThan:
		if !numeric {
			return false, numericError(operator, leftStr, right)
		}

		return leftNum < rightNum, nil
	case OperatorGreaterOrEqual:
		if !numeric {
			return false, numericError(operator, leftStr, right)
		}

		return leftNum >= rightNum, nil
	case OperatorLessOrEqual:
		if !numeric {
			return false, numericError(operator, leftStr, right)
		}

		return leftNum <= rightNum, nil
	case OperatorContains:
		return strings.Contains(strings.ToLower(leftStr), strings.ToLower(right)), nil
	default:
		return false, fmt.Errorf("unsupported operator %q", operator)
	}
}

func validOperator(operator string) bool {
	switch operator {
	case OperatorEquals, OperatorNotEquals, OperatorGreaterThan, OperatorLessThan,
		OperatorGreaterOrEqual, OperatorLessOrEqual, OperatorContains:
		return true
	}

	return false
}

func stringify(value any) string {
	if value == nil {
		return ""
	}

	if s, ok := value.(string); ok {
		return s
	}

	return fmt.Sprint(value)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)

		return parsed, err == nil
	default:
		return 0, false
	}
}

func numericError(operator, left, right string) error {
	return fmt.Errorf("operator %q requires numeric operands, got %q and %q", operator, left, right)
}
