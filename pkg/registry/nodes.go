package registry

import (
	"github.com/caredesk/slaflow/pkg/nodes/assign"
	"github.com/caredesk/slaflow/pkg/nodes/condition"
	"github.com/caredesk/slaflow/pkg/nodes/escalate"
	"github.com/caredesk/slaflow/pkg/nodes/merge"
	"github.com/caredesk/slaflow/pkg/nodes/note"
	"github.com/caredesk/slaflow/pkg/nodes/notify"
	"github.com/caredesk/slaflow/pkg/nodes/slatimer"
	"github.com/caredesk/slaflow/pkg/nodes/trigger"
	"github.com/caredesk/slaflow/pkg/nodes/updatefield"
	"github.com/caredesk/slaflow/pkg/persistence"
	"github.com/caredesk/slaflow/pkg/protocol"
	"github.com/caredesk/slaflow/pkg/sla"
)

// NodeDeps carries the shared collaborators the built-in node
// factories need.
type NodeDeps struct {
	Manager     *sla.Manager
	Monitor     *sla.Monitor
	Timers      persistence.TimerRepository
	Escalations persistence.EscalationRepository
	Tickets     protocol.TicketStore
	Notifier    protocol.NotificationSink
}

// RegisterDefaultNodes registers every built-in node type. The set is
// closed; workflows referencing anything else fail validation.
func RegisterDefaultNodes(r *Registry, deps NodeDeps) {
	r.RegisterNode(trigger.NewTicketCreatedFactory())
	r.RegisterNode(trigger.NewTicketUpdatedFactory())
	r.RegisterNode(trigger.NewTimeSchedulerFactory())

	r.RegisterNode(slatimer.NewStartNodeFactory(deps.Manager))
	r.RegisterNode(slatimer.NewPauseNodeFactory(deps.Manager))
	r.RegisterNode(slatimer.NewResumeNodeFactory(deps.Manager))
	r.RegisterNode(slatimer.NewCheckNodeFactory(deps.Timers))
	r.RegisterNode(slatimer.NewWarningNodeFactory(deps.Notifier))
	r.RegisterNode(slatimer.NewBreachNodeFactory(deps.Monitor))

	r.RegisterNode(condition.NewConditionNodeFactory())
	r.RegisterNode(merge.NewFactory())

	r.RegisterNode(notify.NewEmailFactory(deps.Notifier))
	r.RegisterNode(notify.NewSMSFactory(deps.Notifier))
	r.RegisterNode(notify.NewNotificationFactory(deps.Notifier))
	r.RegisterNode(updatefield.NewFactory(deps.Tickets))
	r.RegisterNode(assign.NewFactory(deps.Tickets))
	r.RegisterNode(note.NewFactory(deps.Tickets))
	r.RegisterNode(escalate.NewFactory(deps.Escalations))
}
