package slatimer

import (
	"context"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/protocol"
	"github.com/caredesk/slaflow/pkg/sla"
)

// PauseNode pauses every running timer for the context ticket.
type PauseNode struct {
	id      string
	reason  string
	manager *sla.Manager
}

func NewPauseNode(id string, config map[string]any, manager *sla.Manager) *PauseNode {
	reason, _ := config["reason"].(string)
	if reason == "" {
		reason = "paused by workflow"
	}

	return &PauseNode{id: id, reason: reason, manager: manager}
}

func (n *PauseNode) ID() string            { return n.id }
func (n *PauseNode) Type() models.NodeType { return models.NodeTypePauseSLA }

func (n *PauseNode) Execute(ctx context.Context, ectx models.ExecutionContext) (models.NodeResult, error) {
	paused, err := n.manager.Pause(ctx, ectx.TicketID(), n.reason)
	if err != nil {
		return models.NodeResult{}, err
	}

	return models.NodeResult{
		NodeID:  n.id,
		Type:    models.NodeTypePauseSLA,
		Success: true,
		Output:  map[string]any{"slaTimersPaused": paused},
	}, nil
}

// ResumeNode resumes every paused timer for the context ticket.
type ResumeNode struct {
	id      string
	manager *sla.Manager
}

func NewResumeNode(id string, manager *sla.Manager) *ResumeNode {
	return &ResumeNode{id: id, manager: manager}
}

func (n *ResumeNode) ID() string            { return n.id }
func (n *ResumeNode) Type() models.NodeType { return models.NodeTypeResumeSLA }

func (n *ResumeNode) Execute(ctx context.Context, ectx models.ExecutionContext) (models.NodeResult, error) {
	resumed, err := n.manager.Resume(ctx, ectx.TicketID())
	if err != nil {
		return models.NodeResult{}, err
	}

	return models.NodeResult{
		NodeID:  n.id,
		Type:    models.NodeTypeResumeSLA,
		Success: true,
		Output:  map[string]any{"slaTimersResumed": resumed},
	}, nil
}

// PauseNodeFactory creates PauseNode instances.
type PauseNodeFactory struct {
	manager *sla.Manager
}

func (f *PauseNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewPauseNode(id, config, f.manager), nil
}

func (f *PauseNodeFactory) ID() models.NodeType { return models.NodeTypePauseSLA }
func (f *PauseNodeFactory) Name() string        { return "Pause SLA" }

func (f *PauseNodeFactory) Description() string {
	return "Pauses all running SLA timers for the ticket."
}

func (f *PauseNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reason": map[string]any{"type": "string"},
		},
	}
}

func NewPauseNodeFactory(manager *sla.Manager) protocol.NodeFactory {
	return &PauseNodeFactory{manager: manager}
}

// ResumeNodeFactory creates ResumeNode instances.
type ResumeNodeFactory struct {
	manager *sla.Manager
}

func (f *ResumeNodeFactory) Create(_ context.Context, id string, _ map[string]any) (protocol.Node, error) {
	return NewResumeNode(id, f.manager), nil
}

func (f *ResumeNodeFactory) ID() models.NodeType { return models.NodeTypeResumeSLA }
func (f *ResumeNodeFactory) Name() string        { return "Resume SLA" }

func (f *ResumeNodeFactory) Description() string {
	return "Resumes all paused SLA timers for the ticket."
}

func (f *ResumeNodeFactory) Schema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func NewResumeNodeFactory(manager *sla.Manager) protocol.NodeFactory {
	return &ResumeNodeFactory{manager: manager}
}
