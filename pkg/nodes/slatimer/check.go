package slatimer

import (
	"context"
	"fmt"
	"time"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/persistence"
	"github.com/caredesk/slaflow/pkg/protocol"
)

// CheckNode reads the ticket's timer of the configured type and adds
// its current metrics to the execution context for downstream nodes
// (typically a condition node branching on timeRemaining).
type CheckNode struct {
	id        string
	timerType models.TimerType
	timers    persistence.TimerRepository
	now       func() time.Time
}

func NewCheckNode(id string, config map[string]any, timers persistence.TimerRepository) (*CheckNode, error) {
	timerType := models.TimerTypeResponse

	if raw, ok := config["timerType"].(string); ok && raw != "" {
		timerType = models.TimerType(raw)
		if timerType != models.TimerTypeResponse && timerType != models.TimerTypeResolution {
			return nil, fmt.Errorf("unsupported timer type %q", raw)
		}
	}

	return &CheckNode{
		id:        id,
		timerType: timerType,
		timers:    timers,
		now:       time.Now,
	}, nil
}

func (n *CheckNode) ID() string            { return n.id }
func (n *CheckNode) Type() models.NodeType { return models.NodeTypeCheckSLATime }

func (n *CheckNode) Execute(ctx context.Context, ectx models.ExecutionContext) (models.NodeResult, error) {
	active, err := n.timers.ActiveByTicket(ctx, ectx.TicketID())
	if err != nil {
		return models.NodeResult{}, err
	}

	for _, timer := range active {
		if timer.Type != n.timerType {
			continue
		}

		now := n.now()

		return models.NodeResult{
			NodeID:  n.id,
			Type:    models.NodeTypeCheckSLATime,
			Success: true,
			Output: map[string]any{
				"slaElapsed":                   timer.Elapsed(now),
				"slaPercentage":                timer.Percentage(now),
				"slaStatus":                    string(timer.Status),
				models.ContextKeyTimeRemaining: timer.Remaining(now),
			},
		}, nil
	}

	return models.NodeResult{
		NodeID:  n.id,
		Type:    models.NodeTypeCheckSLATime,
		Success: true,
		Output: map[string]any{
			"slaStatus": "none",
		},
	}, nil
}

// CheckNodeFactory creates CheckNode instances.
type CheckNodeFactory struct {
	timers persistence.TimerRepository
}

func (f *CheckNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewCheckNode(id, config, f.timers)
}

func (f *CheckNodeFactory) ID() models.NodeType { return models.NodeTypeCheckSLATime }
func (f *CheckNodeFactory) Name() string        { return "Check SLA Time" }

func (f *CheckNodeFactory) Description() string {
	return "Reads the ticket's SLA timer metrics into the execution context."
}

func (f *CheckNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"timerType": map[string]any{
				"type": "string",
				"enum": []string{string(models.TimerTypeResponse), string(models.TimerTypeResolution)},
			},
		},
	}
}

func NewCheckNodeFactory(timers persistence.TimerRepository) protocol.NodeFactory {
	return &CheckNodeFactory{timers: timers}
}
