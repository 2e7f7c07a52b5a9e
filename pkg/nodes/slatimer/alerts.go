package slatimer

import (
	"context"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/protocol"
	"github.com/caredesk/slaflow/pkg/sla"
	"github.com/caredesk/slaflow/pkg/template"
)

// WarningNode sends an SLA warning notification. Recipient, subject
// and message are rendered against the execution context before
// delivery.
type WarningNode struct {
	id        string
	recipient string
	subject   string
	message   string
	notifier  protocol.NotificationSink
}

func NewWarningNode(id string, config map[string]any, notifier protocol.NotificationSink) (*WarningNode, error) {
	node := &WarningNode{
		id:        id,
		recipient: stringConfig(config, "recipient"),
		subject:   stringConfig(config, "subject"),
		message:   stringConfig(config, "message"),
		notifier:  notifier,
	}

	if node.subject == "" {
		node.subject = "SLA warning for ticket {{ticketId}}"
	}

	if node.message == "" {
		node.message = "Ticket {{ticketId}} has {{timeRemaining}} minutes of SLA time remaining."
	}

	return node, nil
}

func (n *WarningNode) ID() string            { return n.id }
func (n *WarningNode) Type() models.NodeType { return models.NodeTypeSLAWarning }

func (n *WarningNode) Execute(ctx context.Context, ectx models.ExecutionContext) (models.NodeResult, error) {
	recipient := template.Render(n.recipient, ectx)
	if recipient == "" {
		recipient = "sla-escalations"
	}

	notification := models.Notification{
		Recipient: recipient,
		Subject:   template.Render(n.subject, ectx),
		Body:      template.Render(n.message, ectx),
		Priority:  ectx.GetString(models.ContextKeyPriority),
		Channel:   "in_app",
	}

	if err := n.notifier.Send(ctx, notification); err != nil {
		return models.NodeResult{}, err
	}

	return models.NodeResult{
		NodeID:  n.id,
		Type:    models.NodeTypeSLAWarning,
		Success: true,
		Output: map[string]any{
			"warningSent":      true,
			"warningRecipient": recipient,
		},
	}, nil
}

// BreachNode records an SLA breach for the execution's ticket. The
// monitor owns the breach bookkeeping so workflow-driven breaches and
// sweep-detected breaches share one code path and stay idempotent.
type BreachNode struct {
	id      string
	monitor *sla.Monitor
}

func NewBreachNode(id string, monitor *sla.Monitor) *BreachNode {
	return &BreachNode{id: id, monitor: monitor}
}

func (n *BreachNode) ID() string            { return n.id }
func (n *BreachNode) Type() models.NodeType { return models.NodeTypeSLABreach }

func (n *BreachNode) Execute(ctx context.Context, ectx models.ExecutionContext) (models.NodeResult, error) {
	breached, err := n.monitor.BreachTicket(ctx, ectx.TicketID())
	if err != nil {
		return models.NodeResult{}, err
	}

	return models.NodeResult{
		NodeID:  n.id,
		Type:    models.NodeTypeSLABreach,
		Success: true,
		Output: map[string]any{
			"slaTimersBreached": breached,
		},
	}, nil
}

// WarningNodeFactory creates WarningNode instances.
type WarningNodeFactory struct {
	notifier protocol.NotificationSink
}

func (f *WarningNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewWarningNode(id, config, f.notifier)
}

func (f *WarningNodeFactory) ID() models.NodeType { return models.NodeTypeSLAWarning }
func (f *WarningNodeFactory) Name() string        { return "SLA Warning" }

func (f *WarningNodeFactory) Description() string {
	return "Sends a templated SLA warning notification."
}

func (f *WarningNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"recipient": map[string]any{"type": "string"},
			"subject":   map[string]any{"type": "string"},
			"message":   map[string]any{"type": "string"},
		},
	}
}

func NewWarningNodeFactory(notifier protocol.NotificationSink) protocol.NodeFactory {
	return &WarningNodeFactory{notifier: notifier}
}

// BreachNodeFactory creates BreachNode instances.
type BreachNodeFactory struct {
	monitor *sla.Monitor
}

func (f *BreachNodeFactory) Create(_ context.Context, id string, _ map[string]any) (protocol.Node, error) {
	return NewBreachNode(id, f.monitor), nil
}

func (f *BreachNodeFactory) ID() models.NodeType { return models.NodeTypeSLABreach }
func (f *BreachNodeFactory) Name() string        { return "SLA Breach" }

func (f *BreachNodeFactory) Description() string {
	return "Records an SLA breach for the execution's ticket."
}

func (f *BreachNodeFactory) Schema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func NewBreachNodeFactory(monitor *sla.Monitor) protocol.NodeFactory {
	return &BreachNodeFactory{monitor: monitor}
}
