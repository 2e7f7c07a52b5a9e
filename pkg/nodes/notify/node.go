// Package notify implements the send_email, send_sms and
// send_notification action nodes. The three types share one node
// implementation differing only in the delivery channel stamped on the
// outgoing notification.
package notify

import (
	"context"
	"fmt"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/protocol"
	"github.com/caredesk/slaflow/pkg/template"
)

var channels = map[models.NodeType]string{
	models.NodeTypeSendEmail:        "email",
	models.NodeTypeSendSMS:          "sms",
	models.NodeTypeSendNotification: "in_app",
}

// NotifyNode renders its configured recipient, subject and message
// against the execution context and hands the result to the sink.
type NotifyNode struct {
	id        string
	kind      models.NodeType
	recipient string
	subject   string
	message   string
	notifier  protocol.NotificationSink
}

func NewNotifyNode(id string, kind models.NodeType, config map[string]any, notifier protocol.NotificationSink) (*NotifyNode, error) {
	if _, ok := channels[kind]; !ok {
		return nil, fmt.Errorf("node type %q is not a notification type", kind)
	}

	recipient, _ := config["recipient"].(string)
	if recipient == "" {
		return nil, fmt.Errorf("recipient is required")
	}

	subject, _ := config["subject"].(string)
	message, _ := config["message"].(string)

	return &NotifyNode{
		id:        id,
		kind:      kind,
		recipient: recipient,
		subject:   subject,
		message:   message,
		notifier:  notifier,
	}, nil
}

func (n *NotifyNode) ID() string            { return n.id }
func (n *NotifyNode) Type() models.NodeType { return n.kind }

func (n *NotifyNode) Execute(ctx context.Context, ectx models.ExecutionContext) (models.NodeResult, error) {
	notification := models.Notification{
		Recipient: template.Render(n.recipient, ectx),
		Subject:   template.Render(n.subject, ectx),
		Body:      template.Render(n.message, ectx),
		Priority:  ectx.GetString(models.ContextKeyPriority),
		Channel:   channels[n.kind],
	}

	if err := n.notifier.Send(ctx, notification); err != nil {
		return models.NodeResult{}, err
	}

	return models.NodeResult{
		NodeID:  n.id,
		Type:    n.kind,
		Success: true,
		Output: map[string]any{
			"notificationSent":    true,
			"notificationChannel": notification.Channel,
		},
	}, nil
}

// Factory creates NotifyNode instances for one of the three
// notification node types.
type Factory struct {
	kind     models.NodeType
	name     string
	notifier protocol.NotificationSink
}

func (f *Factory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewNotifyNode(id, f.kind, config, f.notifier)
}

func (f *Factory) ID() models.NodeType { return f.kind }
func (f *Factory) Name() string        { return f.name }

func (f *Factory) Description() string {
	return fmt.Sprintf("Delivers a templated message over the %s channel.", channels[f.kind])
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"recipient"},
		"properties": map[string]any{
			"recipient": map[string]any{"type": "string"},
			"subject":   map[string]any{"type": "string"},
			"message":   map[string]any{"type": "string"},
		},
	}
}

func NewEmailFactory(notifier protocol.NotificationSink) protocol.NodeFactory {
	return &Factory{kind: models.NodeTypeSendEmail, name: "Send Email", notifier: notifier}
}

func NewSMSFactory(notifier protocol.NotificationSink) protocol.NodeFactory {
	return &Factory{kind: models.NodeTypeSendSMS, name: "Send SMS", notifier: notifier}
}

func NewNotificationFactory(notifier protocol.NotificationSink) protocol.NodeFactory {
	return &Factory{kind: models.NodeTypeSendNotification, name: "Send Notification", notifier: notifier}
}
